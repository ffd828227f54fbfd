package snapshot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrKind classifies loader failures.
type ErrKind string

const (
	// ErrNetwork is a transport-level failure (DNS, refused, offline).
	ErrNetwork ErrKind = "network"
	// ErrHTTPStatus is a non-2xx response; Status carries the code.
	ErrHTTPStatus ErrKind = "http_status"
	// ErrDecode is a response body that failed to parse.
	ErrDecode ErrKind = "decode"
)

// LoadError is the loader's failure taxonomy. Every failed load surfaces
// exactly one of these; there is no retry.
type LoadError struct {
	Kind   ErrKind
	Status int // set for ErrHTTPStatus
	Err    error
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case ErrHTTPStatus:
		return fmt.Sprintf("snapshot fetch returned HTTP %d", e.Status)
	case ErrDecode:
		return fmt.Sprintf("snapshot decode failed: %v", e.Err)
	default:
		return fmt.Sprintf("snapshot fetch failed: %v", e.Err)
	}
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader retrieves snapshot documents over HTTP, always bypassing caches.
type Loader struct {
	client *http.Client
}

// NewLoader creates a Loader with a sane default timeout.
func NewLoader() *Loader {
	return &Loader{client: &http.Client{Timeout: 30 * time.Second}}
}

// NewLoaderWithClient creates a Loader using the given HTTP client. Pass a
// client whose transport is an asset-cache interceptor to get offline reads.
func NewLoaderWithClient(client *http.Client) *Loader {
	return &Loader{client: client}
}

// Load issues a single fetch against sourceURL and returns the normalized
// snapshot. The request carries a no-store directive so intermediaries never
// serve stale data. One failed load is one reported failure.
func (l *Loader) Load(ctx context.Context, sourceURL string) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, &LoadError{Kind: ErrNetwork, Err: err}
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &LoadError{Kind: ErrNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &LoadError{Kind: ErrHTTPStatus, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &LoadError{Kind: ErrNetwork, Err: err}
	}

	snap, err := Decode(body)
	if err != nil {
		return nil, &LoadError{Kind: ErrDecode, Err: err}
	}
	return snap, nil
}
