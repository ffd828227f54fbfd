package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// ParquetStore archives the raw per-day top lists, one file per trading day
// at <DataDir>/tw/top10/<YYYY-MM-DD>.parquet. The JSON snapshot only keeps
// the intersection; this keeps the full daily lists queryable.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at dataDir.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// TopRecord is the Parquet schema for one row of a day's top list.
type TopRecord struct {
	Date       string `parquet:"date"`
	Position   int32  `parquet:"position"` // 1-based rank within the day
	StockID    string `parquet:"stock_id"`
	StockName  string `parquet:"stock_name"`
	BuyLots    int64  `parquet:"buy_lots"`
	SellLots   int64  `parquet:"sell_lots"`
	NetBuyLots int64  `parquet:"net_buy_lots"`
}

// WriteDailyTop writes one day's complete top list, replacing any previous
// file for that date.
func (s *ParquetStore) WriteDailyTop(date string, records []TopRecord) error {
	if len(records) == 0 {
		return nil
	}
	path := s.topPath(date)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("writing top list for %s: %w", date, err)
	}
	return nil
}

// ReadDailyTop reads one day's top list, sorted by position.
func (s *ParquetStore) ReadDailyTop(date string) ([]TopRecord, error) {
	records, err := parquet.ReadFile[TopRecord](s.topPath(date))
	if err != nil {
		return nil, fmt.Errorf("reading top list for %s: %w", date, err)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Position < records[j].Position
	})
	return records, nil
}

// ListTopDates returns sorted dates that have an archived top list.
func (s *ParquetStore) ListTopDates() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.DataDir, "tw", "top10"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var dates []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".parquet") {
			continue
		}
		dates = append(dates, strings.TrimSuffix(e.Name(), ".parquet"))
	}
	sort.Strings(dates)
	return dates, nil
}

func (s *ParquetStore) topPath(date string) string {
	return filepath.Join(s.DataDir, "tw", "top10", date+".parquet")
}
