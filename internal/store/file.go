package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"twflow/internal/snapshot"
)

// FileStore writes the JSON documents the web front end consumes:
// <DataDir>/latest.json plus one history copy per run at
// <DataDir>/history/<YYYYMMDD>.json.
type FileStore struct {
	DataDir string
}

// NewFileStore creates a FileStore rooted at dataDir.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{DataDir: dataDir}
}

// LatestPath returns the path of the latest snapshot document.
func (s *FileStore) LatestPath() string {
	return filepath.Join(s.DataDir, "latest.json")
}

// WriteLatest writes latest.json and the dated history copy.
func (s *FileStore) WriteLatest(p *snapshot.Payload) error {
	data, err := snapshot.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	if err := writeAtomic(s.LatestPath(), data); err != nil {
		return fmt.Errorf("writing latest.json: %w", err)
	}

	name := strings.ReplaceAll(runDate(p), "-", "") + ".json"
	histPath := filepath.Join(s.DataDir, "history", name)
	if err := writeAtomic(histPath, data); err != nil {
		return fmt.Errorf("writing history copy: %w", err)
	}
	return nil
}

// ReadLatest returns the raw bytes of latest.json.
func (s *FileStore) ReadLatest() ([]byte, error) {
	return os.ReadFile(s.LatestPath())
}

// ReadHistory returns the raw bytes of one history document ("YYYYMMDD").
func (s *FileStore) ReadHistory(date string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.DataDir, "history", date+".json"))
}

// ListHistoryDates returns sorted "YYYYMMDD" stems of the history documents.
func (s *FileStore) ListHistoryDates() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.DataDir, "history"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var dates []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		dates = append(dates, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(dates)
	return dates, nil
}

// writeAtomic writes via tmp + rename so a crashed run never leaves a torn
// document behind.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
