package projection

import (
	"testing"

	"twflow/internal/snapshot"
)

func day(date string, rank int, lots int64) *snapshot.DayMetric {
	return &snapshot.DayMetric{Date: date, Rank: rank, NetBuyLots: lots}
}

func twoDaySnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Mode:         "intersection_top10_per_day",
		GeneratedAt:  "2026-08-28 10:05:00",
		TradingDates: []string{"2026-08-28", "2026-08-27"},
		Count:        2,
		Stocks: []snapshot.Stock{
			{
				ID: "2330", Name: "台積電",
				Day1:        day("2026-08-28", 1, 500),
				Day2:        day("2026-08-27", 2, 300),
				TotalNetBuy: 800, AvgNetBuy: 400,
			},
			{
				ID: "2317", Name: "鴻海",
				Day1:        day("2026-08-28", 3, 200),
				Day2:        day("2026-08-27", 3, 200),
				TotalNetBuy: 400, AvgNetBuy: 200,
			},
		},
	}
}

func TestProjectTwoDaySnapshot(t *testing.T) {
	p := Project(twoDaySnapshot())

	if p.Empty {
		t.Fatal("Empty = true, want false")
	}
	if !p.HasDay2 {
		t.Error("HasDay2 = false, want true")
	}
	if p.Meta != "mode: intersection_top10_per_day | dates: 2026-08-28, 2026-08-27 | generated: 2026-08-28 18:05:00 (UTC+8)" {
		t.Errorf("Meta = %q", p.Meta)
	}
	if p.Stats != "intersection count: 2" {
		t.Errorf("Stats = %q", p.Stats)
	}

	if len(p.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(p.Rows))
	}
	r := p.Rows[0]
	if r.ID != "2330" || r.Position != 1 {
		t.Errorf("first row = %s at position %d, want 2330 at 1", r.ID, r.Position)
	}
	if r.RankDelta != "improved by 1" {
		t.Errorf("RankDelta = %q, want %q", r.RankDelta, "improved by 1")
	}
	if r.BuyDelta != "+200" {
		t.Errorf("BuyDelta = %q, want +200", r.BuyDelta)
	}
	if r.Total != "800" {
		t.Errorf("Total = %q, want 800", r.Total)
	}
	if r.PriorDate != "2026-08-27" || r.CurrDate != "2026-08-28" {
		t.Errorf("dates = %q / %q, want prior 2026-08-27, curr 2026-08-28", r.PriorDate, r.CurrDate)
	}

	r2 := p.Rows[1]
	if r2.RankDelta != Unchanged {
		t.Errorf("equal ranks RankDelta = %q, want %q", r2.RankDelta, Unchanged)
	}
	if r2.BuyDelta != BuyFlat {
		t.Errorf("zero delta BuyDelta = %q, want %q", r2.BuyDelta, BuyFlat)
	}
}

func TestProjectChart(t *testing.T) {
	p := Project(twoDaySnapshot())
	if p.Chart == nil {
		t.Fatal("Chart = nil")
	}
	if got := p.Chart.Labels[0]; got != "台積電(2330)" {
		t.Errorf("label = %q, want 台積電(2330)", got)
	}
	if len(p.Chart.Series) != 2 {
		t.Fatalf("len(Series) = %d, want 2", len(p.Chart.Series))
	}
	if p.Chart.Series[0].Label != "2026-08-28" || p.Chart.Series[1].Label != "2026-08-27" {
		t.Errorf("series labels = %q / %q", p.Chart.Series[0].Label, p.Chart.Series[1].Label)
	}
	if p.Chart.Series[0].Values[0] != 500 || p.Chart.Series[1].Values[0] != 300 {
		t.Errorf("first stock values = %d / %d, want 500 / 300",
			p.Chart.Series[0].Values[0], p.Chart.Series[1].Values[0])
	}
}

func TestProjectEmptySnapshot(t *testing.T) {
	p := Project(&snapshot.Snapshot{
		Mode:         "intersection_top10_per_day",
		TradingDates: []string{"2026-08-28", "2026-08-27"},
		Stocks:       []snapshot.Stock{},
	})

	if !p.Empty {
		t.Fatal("Empty = false, want true")
	}
	if p.Placeholder != EmptyPlaceholder {
		t.Errorf("Placeholder = %q, want %q", p.Placeholder, EmptyPlaceholder)
	}
	if p.Chart != nil {
		t.Error("Chart != nil on empty projection")
	}
	if len(p.Rows) != 0 {
		t.Errorf("len(Rows) = %d, want 0", len(p.Rows))
	}
	if p.Meta == "" || p.Stats == "" {
		t.Error("Meta/Stats should still be populated on the empty path")
	}
}

func TestProjectSortOrder(t *testing.T) {
	s := &snapshot.Snapshot{
		TradingDates: []string{"2026-08-28"},
		Stocks: []snapshot.Stock{
			{ID: "A", Day1: day("2026-08-28", 0, 50), TotalNetBuy: 50},  // unranked, sorts last
			{ID: "B", Day1: day("2026-08-28", 2, 100), TotalNetBuy: 100},
			{ID: "C", Day1: day("2026-08-28", 2, 300), TotalNetBuy: 300}, // same rank, bigger total first
			{ID: "D", Day1: day("2026-08-28", 1, 400), TotalNetBuy: 400},
		},
	}

	p := Project(s)
	got := []string{p.Rows[0].ID, p.Rows[1].ID, p.Rows[2].ID, p.Rows[3].ID}
	want := []string{"D", "C", "B", "A"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sort order = %v, want %v", got, want)
		}
	}

	// Input order must survive the projection.
	if s.Stocks[0].ID != "A" {
		t.Error("Project mutated its input")
	}

	// Unranked entry renders the dash, not a zero.
	if p.Rows[3].CurrRank != Dash {
		t.Errorf("unranked CurrRank = %q, want %q", p.Rows[3].CurrRank, Dash)
	}
}

func TestProjectSortStability(t *testing.T) {
	s := &snapshot.Snapshot{
		TradingDates: []string{"2026-08-28"},
		Stocks: []snapshot.Stock{
			{ID: "X", Day1: day("2026-08-28", 4, 100), TotalNetBuy: 100},
			{ID: "Y", Day1: day("2026-08-28", 4, 100), TotalNetBuy: 100},
		},
	}
	p := Project(s)
	if p.Rows[0].ID != "X" || p.Rows[1].ID != "Y" {
		t.Errorf("equal keys reordered: %s, %s", p.Rows[0].ID, p.Rows[1].ID)
	}
}

func TestProjectSingleDay(t *testing.T) {
	s := &snapshot.Snapshot{
		TradingDates: []string{"2026-08-28"},
		Stocks: []snapshot.Stock{
			{ID: "2330", Name: "台積電", Day1: day("2026-08-28", 1, 500), TotalNetBuy: 500},
		},
	}

	p := Project(s)
	if p.HasDay2 {
		t.Error("HasDay2 = true for single-day snapshot")
	}
	if len(p.Chart.Series) != 1 {
		t.Errorf("len(Series) = %d, want 1", len(p.Chart.Series))
	}
	r := p.Rows[0]
	if r.BuyDelta != BuyNA {
		t.Errorf("BuyDelta = %q, want %q", r.BuyDelta, BuyNA)
	}
	if r.RankDelta != Unchanged {
		t.Errorf("RankDelta = %q, want %q", r.RankDelta, Unchanged)
	}
	if r.PriorDate != Dash || r.PriorRank != Dash || r.PriorBuy != Dash {
		t.Errorf("prior columns = %q/%q/%q, want dashes", r.PriorDate, r.PriorRank, r.PriorBuy)
	}
}

func TestProjectMissingRankIsNeutral(t *testing.T) {
	s := &snapshot.Snapshot{
		TradingDates: []string{"2026-08-28", "2026-08-27"},
		Stocks: []snapshot.Stock{
			{ID: "A", Day1: day("2026-08-28", 0, 100), Day2: day("2026-08-27", 3, 50), TotalNetBuy: 150},
			{ID: "B", Day1: day("2026-08-28", 1, 400), Day2: day("2026-08-27", 1, 400), TotalNetBuy: 800},
		},
	}

	p := Project(s)
	if p.Rows[1].ID != "A" {
		t.Fatalf("unranked entry should sort last, got order %s, %s", p.Rows[0].ID, p.Rows[1].ID)
	}
	if p.Rows[1].RankDelta != Unchanged {
		t.Errorf("missing rank RankDelta = %q, want %q", p.Rows[1].RankDelta, Unchanged)
	}
	// Buy delta still computes; only rank movement is neutralised.
	if p.Rows[1].BuyDelta != "+50" {
		t.Errorf("BuyDelta = %q, want +50", p.Rows[1].BuyDelta)
	}
}

func TestProjectIdempotent(t *testing.T) {
	s := twoDaySnapshot()
	p1 := Project(s)
	p2 := Project(s)
	if len(p1.Rows) != len(p2.Rows) {
		t.Fatalf("row counts differ: %d vs %d", len(p1.Rows), len(p2.Rows))
	}
	for i := range p1.Rows {
		if p1.Rows[i] != p2.Rows[i] {
			t.Errorf("row %d differs between projections", i)
		}
	}
}

func TestProjectFallbackMeta(t *testing.T) {
	p := Project(&snapshot.Snapshot{Stocks: []snapshot.Stock{}})
	if p.Meta != "mode: unknown | dates: - | generated: " {
		t.Errorf("Meta = %q", p.Meta)
	}
}
