package store

import (
	"os"
	"path/filepath"
	"testing"

	"twflow/internal/snapshot"
)

func samplePayload() *snapshot.Payload {
	return &snapshot.Payload{
		Mode:           "intersection_top10_per_day",
		GeneratedAtUTC: "2026-08-28 10:05:00",
		Timezone:       "Asia/Taipei",
		Params:         snapshot.Params{Days: 2, TopN: 10},
		TradingDates:   []string{"2026-08-28", "2026-08-27"},
		Count:          1,
		Stocks: []snapshot.PayloadStock{{
			StockID:     "2330",
			StockName:   "台積電",
			TotalNetBuy: 1600,
			AvgNetBuy:   800,
			PerDay: map[string]snapshot.PayloadDay{
				"day1": {Date: "2026-08-28", Rank: 1, NetBuyLots: 1000},
				"day2": {Date: "2026-08-27", Rank: 2, NetBuyLots: 600},
			},
		}},
	}
}

func TestFileStoreWriteLatest(t *testing.T) {
	s := NewFileStore(t.TempDir())

	if err := s.WriteLatest(samplePayload()); err != nil {
		t.Fatalf("WriteLatest() error = %v", err)
	}

	data, err := s.ReadLatest()
	if err != nil {
		t.Fatalf("ReadLatest() error = %v", err)
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(snap.Stocks) != 1 || snap.Stocks[0].ID != "2330" {
		t.Errorf("round trip lost data: %+v", snap.Stocks)
	}

	// History copy is keyed by the most recent trading date.
	hist, err := s.ReadHistory("20260828")
	if err != nil {
		t.Fatalf("ReadHistory() error = %v", err)
	}
	if string(hist) != string(data) {
		t.Error("history copy differs from latest.json")
	}

	dates, err := s.ListHistoryDates()
	if err != nil {
		t.Fatalf("ListHistoryDates() error = %v", err)
	}
	if len(dates) != 1 || dates[0] != "20260828" {
		t.Errorf("ListHistoryDates() = %v, want [20260828]", dates)
	}
}

func TestFileStoreNoTmpLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	if err := s.WriteLatest(samplePayload()); err != nil {
		t.Fatalf("WriteLatest() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "latest.json.tmp")); !os.IsNotExist(err) {
		t.Error("tmp file left behind after write")
	}
}

func TestFileStoreEmptyHistory(t *testing.T) {
	s := NewFileStore(t.TempDir())
	dates, err := s.ListHistoryDates()
	if err != nil {
		t.Fatalf("ListHistoryDates() error = %v", err)
	}
	if dates != nil {
		t.Errorf("ListHistoryDates() = %v, want nil", dates)
	}
}

func TestRunDate(t *testing.T) {
	tests := []struct {
		p    *snapshot.Payload
		want string
	}{
		{&snapshot.Payload{TradingDates: []string{"2026-08-28", "2026-08-27"}}, "2026-08-28"},
		{&snapshot.Payload{GeneratedAtUTC: "2026-08-28 10:05:00"}, "2026-08-28"},
		{&snapshot.Payload{}, "unknown"},
	}
	for _, tt := range tests {
		if got := runDate(tt.p); got != tt.want {
			t.Errorf("runDate() = %q, want %q", got, tt.want)
		}
	}
}
