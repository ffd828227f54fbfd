// Package assetcache implements the dashboard's offline cache layer: a named
// on-disk cache of shell assets with install/activate lifecycle and a fetch
// interceptor routing data requests network-first and everything else
// cache-first.
package assetcache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// DataSuffix marks requests served with the network-first policy.
const DataSuffix = "/data/latest.json"

// Cache is one named cache generation rooted at <root>/<name>. Bumping the
// name starts a fresh generation; Activate removes the old ones.
type Cache struct {
	root     string
	name     string
	origin   string // origin base URL, no trailing slash
	manifest []string
	client   *http.Client
	log      *slog.Logger
}

// New creates a cache generation. The manifest lists the shell asset paths
// pre-populated by Install.
func New(root, name, origin string, manifest []string, log *slog.Logger) *Cache {
	return &Cache{
		root:     root,
		name:     name,
		origin:   strings.TrimSuffix(origin, "/"),
		manifest: manifest,
		client:   &http.Client{},
		log:      log,
	}
}

// Install pre-populates the named cache with every manifest asset. Like the
// install phase it fails as a whole if any single asset cannot be fetched.
func (c *Cache) Install(ctx context.Context) error {
	for _, path := range c.manifest {
		body, err := c.fetchOrigin(ctx, path)
		if err != nil {
			return fmt.Errorf("installing %s: %w", path, err)
		}
		if err := c.put(path, body); err != nil {
			return fmt.Errorf("caching %s: %w", path, err)
		}
	}
	c.log.Info("asset cache installed", "cache", c.name, "assets", len(c.manifest))
	return nil
}

// Activate deletes every sibling cache generation whose name differs from
// the current one.
func (c *Cache) Activate() error {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == c.name {
			continue
		}
		if err := os.RemoveAll(filepath.Join(c.root, e.Name())); err != nil {
			return fmt.Errorf("removing stale cache %s: %w", e.Name(), err)
		}
		c.log.Info("stale asset cache removed", "cache", e.Name())
	}
	return nil
}

// Transport returns a RoundTripper applying the fetch-routing policy. Plug
// it into an http.Client to give any consumer offline reads.
func (c *Cache) Transport() http.RoundTripper {
	return &transport{cache: c, base: http.DefaultTransport}
}

// Client returns an http.Client whose requests go through the routing
// policy.
func (c *Cache) Client() *http.Client {
	return &http.Client{Transport: c.Transport()}
}

// Fetch retrieves one path through the routing policy.
func (c *Cache) Fetch(ctx context.Context, path string) ([]byte, error) {
	client := c.Client()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.origin+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: HTTP %d", path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ---------------------------------------------------------------------------
// Routing transport
// ---------------------------------------------------------------------------

type transport struct {
	cache *Cache
	base  http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if strings.HasSuffix(req.URL.Path, DataSuffix) {
		return t.networkFirst(req)
	}
	return t.cacheFirst(req)
}

// networkFirst tries the live origin, storing a copy on success. Only a
// transport-level failure falls back to the cached copy; HTTP error statuses
// pass through untouched so callers see them.
func (t *transport) networkFirst(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		if data, cerr := t.cache.get(req.URL.Path); cerr == nil {
			t.cache.log.Warn("network fetch failed, serving cached data", "path", req.URL.Path, "error", err)
			return cachedResponse(req, data), nil
		}
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		body, rerr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if rerr != nil {
			return nil, rerr
		}
		stored := make([]byte, len(body))
		copy(stored, body)
		go func() {
			if perr := t.cache.put(req.URL.Path, stored); perr != nil {
				t.cache.log.Warn("storing data copy", "path", req.URL.Path, "error", perr)
			}
		}()
		resp.Body = io.NopCloser(strings.NewReader(string(body)))
	}
	return resp, nil
}

// cacheFirst serves the cached entry when present, otherwise the network.
// A network hit is NOT written back; stale-asset turnover happens through a
// cache-name bump and Activate instead.
func (t *transport) cacheFirst(req *http.Request) (*http.Response, error) {
	if data, err := t.cache.get(req.URL.Path); err == nil {
		return cachedResponse(req, data), nil
	}
	return t.base.RoundTrip(req)
}

func cachedResponse(req *http.Request, data []byte) *http.Response {
	h := make(http.Header)
	h.Set("X-Asset-Cache", "hit")
	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(strings.NewReader(string(data))),
		ContentLength: int64(len(data)),
		Request:       req,
	}
}

// ---------------------------------------------------------------------------
// Disk layout
// ---------------------------------------------------------------------------

func (c *Cache) entryPath(urlPath string) string {
	key := strings.Trim(urlPath, "/")
	if key == "" {
		key = "__root"
	}
	key = strings.ReplaceAll(key, "/", "__")
	return filepath.Join(c.root, c.name, key)
}

func (c *Cache) get(urlPath string) ([]byte, error) {
	return os.ReadFile(c.entryPath(urlPath))
}

// put writes an entry via tmp + rename so readers never see a torn file.
func (c *Cache) put(urlPath string, data []byte) error {
	path := c.entryPath(urlPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (c *Cache) fetchOrigin(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.origin+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
