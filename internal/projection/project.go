// Package projection derives the display-ready view of a snapshot: sorted
// table rows, a chart dataset, and the meta/stats strings. Every function
// here is pure and total: malformed input degrades to placeholders, never
// to a panic or an error.
package projection

import (
	"fmt"
	"sort"
	"strings"

	"twflow/internal/snapshot"
)

// missingRank sorts unranked entries after every ranked one.
const missingRank = 9999

// Display constants.
const (
	Dash             = "-"
	BuyFlat          = "flat"
	BuyNA            = "n/a"
	Unchanged        = "unchanged"
	EmptyPlaceholder = "no stocks made the top-10 list on every tracked day"
)

// Projection is everything the view layer needs for one redraw.
type Projection struct {
	Empty       bool   // tear down any existing chart, show the placeholder
	Placeholder string // set when Empty
	Meta        string
	Stats       string
	HasDay2     bool
	Chart       *ChartDataset // nil when Empty
	Rows        []TableRow
}

// ChartDataset is the opaque input to a chart renderer: one label per stock
// and one series per present trading day.
type ChartDataset struct {
	Labels []string
	Series []Series
}

// Series is a single day's values, index-aligned with Labels.
type Series struct {
	Label  string
	Values []int64
}

// TableRow is one fully-formatted table row. Missing values carry the
// placeholder dash, never a raw zero or empty string.
type TableRow struct {
	Position  int
	ID        string
	Name      string
	PriorDate string
	PriorRank string
	PriorBuy  string
	CurrDate  string
	CurrRank  string
	CurrBuy   string
	Total     string
	RankDelta string
	BuyDelta  string
}

// Project builds the projection for a snapshot. The snapshot is not mutated;
// ordering is always re-derived here.
func Project(s *snapshot.Snapshot) *Projection {
	p := &Projection{
		Meta:  metaText(s),
		Stats: statsText(s),
	}

	if len(s.Stocks) == 0 {
		p.Empty = true
		p.Placeholder = EmptyPlaceholder
		return p
	}

	stocks := sortStocks(s.Stocks)

	// The dataset is uniformly one-day or two-day: day2 presence is decided
	// once for the whole snapshot, not per entry.
	for i := range stocks {
		if stocks[i].Day2 != nil {
			p.HasDay2 = true
			break
		}
	}

	p.Chart = buildChart(stocks, s.TradingDates, p.HasDay2)
	p.Rows = buildRows(stocks, p.HasDay2)
	return p
}

// sortRank is the primary sort key: day1 rank ascending, absent last.
func sortRank(st *snapshot.Stock) int {
	if st.Day1 == nil || st.Day1.Rank == 0 {
		return missingRank
	}
	return st.Day1.Rank
}

// sortStocks returns a sorted copy: day1 rank asc, then total net buy desc.
// The sort is stable so equal keys keep their input order.
func sortStocks(in []snapshot.Stock) []snapshot.Stock {
	stocks := make([]snapshot.Stock, len(in))
	copy(stocks, in)
	sort.SliceStable(stocks, func(i, j int) bool {
		ri, rj := sortRank(&stocks[i]), sortRank(&stocks[j])
		if ri != rj {
			return ri < rj
		}
		return stocks[i].TotalNetBuy > stocks[j].TotalNetBuy
	})
	return stocks
}

func buildChart(stocks []snapshot.Stock, tradingDates []string, hasDay2 bool) *ChartDataset {
	ds := &ChartDataset{Labels: make([]string, len(stocks))}

	day1 := Series{Label: seriesLabel(tradingDates, 0, "day1")}
	day2 := Series{Label: seriesLabel(tradingDates, 1, "day2")}
	for i := range stocks {
		st := &stocks[i]
		ds.Labels[i] = fmt.Sprintf("%s(%s)", st.Name, st.ID)
		day1.Values = append(day1.Values, dayLots(st.Day1))
		day2.Values = append(day2.Values, dayLots(st.Day2))
	}

	ds.Series = []Series{day1}
	if hasDay2 {
		ds.Series = append(ds.Series, day2)
	}
	return ds
}

func seriesLabel(tradingDates []string, idx int, fallback string) string {
	if idx < len(tradingDates) {
		return tradingDates[idx]
	}
	return fallback
}

func dayLots(d *snapshot.DayMetric) int64 {
	if d == nil {
		return 0
	}
	return d.NetBuyLots
}

func buildRows(stocks []snapshot.Stock, hasDay2 bool) []TableRow {
	rows := make([]TableRow, len(stocks))
	for i := range stocks {
		st := &stocks[i]
		rows[i] = TableRow{
			Position:  i + 1,
			ID:        st.ID,
			Name:      st.Name,
			PriorDate: dayDate(st.Day2),
			PriorRank: dayRank(st.Day2),
			PriorBuy:  dayBuy(st.Day2),
			CurrDate:  dayDate(st.Day1),
			CurrRank:  dayRank(st.Day1),
			CurrBuy:   dayBuy(st.Day1),
			Total:     FormatLots(st.TotalNetBuy),
			RankDelta: rankDelta(st.Day1, st.Day2, hasDay2),
			BuyDelta:  buyDelta(st.Day1, st.Day2, hasDay2),
		}
	}
	return rows
}

func dayDate(d *snapshot.DayMetric) string {
	if d == nil || d.Date == "" {
		return Dash
	}
	return d.Date
}

func dayRank(d *snapshot.DayMetric) string {
	if d == nil || d.Rank == 0 {
		return Dash
	}
	return fmt.Sprintf("%d", d.Rank)
}

func dayBuy(d *snapshot.DayMetric) string {
	if d == nil {
		return Dash
	}
	return FormatLots(d.NetBuyLots)
}

// rankDelta describes the day2→day1 rank movement. A missing rank on either
// side is neutral, not an error.
func rankDelta(day1, day2 *snapshot.DayMetric, hasDay2 bool) string {
	if !hasDay2 || day1 == nil || day2 == nil || day1.Rank == 0 || day2.Rank == 0 {
		return Unchanged
	}
	switch {
	case day1.Rank < day2.Rank:
		return fmt.Sprintf("improved by %d", day2.Rank-day1.Rank)
	case day1.Rank > day2.Rank:
		return fmt.Sprintf("worsened by %d", day1.Rank-day2.Rank)
	default:
		return Unchanged
	}
}

// buyDelta is day1 minus day2 net buy lots. It is "n/a" only when no entry
// in the dataset has day2 data, which is distinct from a zero delta.
func buyDelta(day1, day2 *snapshot.DayMetric, hasDay2 bool) string {
	if !hasDay2 {
		return BuyNA
	}
	delta := dayLots(day1) - dayLots(day2)
	switch {
	case delta == 0:
		return BuyFlat
	case delta > 0:
		return "+" + FormatLots(delta)
	default:
		return FormatLots(delta)
	}
}

func metaText(s *snapshot.Snapshot) string {
	mode := s.Mode
	if mode == "" {
		mode = "unknown"
	}
	dates := strings.Join(s.TradingDates, ", ")
	if dates == "" {
		dates = Dash
	}
	return fmt.Sprintf("mode: %s | dates: %s | generated: %s",
		mode, dates, FormatGeneratedAt(s.GeneratedAt))
}

func statsText(s *snapshot.Snapshot) string {
	return fmt.Sprintf("intersection count: %s", FormatLots(int64(s.Count)))
}
