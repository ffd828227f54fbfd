package tw

import (
	"fmt"
	"time"

	"twflow/internal/snapshot"
)

// Result is one complete gather run: the intersection payload plus the raw
// per-day lists it was derived from.
type Result struct {
	Payload *snapshot.Payload
	Tops    []*DailyTop
}

// BuildSnapshot intersects the per-day top lists (most-recent-first) into a
// snapshot payload. An empty intersection is a valid, complete payload.
func BuildSnapshot(tops []*DailyTop, topN int, generatedAt time.Time) *snapshot.Payload {
	p := &snapshot.Payload{
		Mode:           "intersection_top10_per_day",
		GeneratedAtUTC: generatedAt.Format("2006-01-02 15:04:05"),
		Timezone:       "Asia/Taipei",
		Params:         snapshot.Params{Days: len(tops), TopN: topN},
		TradingDates:   make([]string, 0, len(tops)),
		Stocks:         []snapshot.PayloadStock{},
	}
	for _, t := range tops {
		p.TradingDates = append(p.TradingDates, t.Date)
	}
	if len(tops) == 0 {
		return p
	}

	// Intersect ids across all days; iterate in day-1 list order so output
	// is deterministic.
	for _, first := range tops[0].Entries {
		onAll := true
		for _, t := range tops[1:] {
			if findEntry(t, first.StockID) == nil {
				onAll = false
				break
			}
		}
		if !onAll {
			continue
		}

		st := snapshot.PayloadStock{
			StockID:   first.StockID,
			StockName: first.StockName,
			PerDay:    make(map[string]snapshot.PayloadDay, len(tops)),
		}
		for i, t := range tops {
			e := findEntry(t, first.StockID)
			st.PerDay[fmt.Sprintf("day%d", i+1)] = snapshot.PayloadDay{
				Date:       t.Date,
				Rank:       rankWithin(t, e.NetBuyLots),
				NetBuyLots: e.NetBuyLots,
			}
			st.TotalNetBuy += e.NetBuyLots
		}
		st.AvgNetBuy = float64(st.TotalNetBuy) / float64(len(tops))
		p.Stocks = append(p.Stocks, st)
	}

	p.Count = len(p.Stocks)
	return p
}

func findEntry(t *DailyTop, id string) *TopEntry {
	for i := range t.Entries {
		if t.Entries[i].StockID == id {
			return &t.Entries[i]
		}
	}
	return nil
}

// rankWithin is the 1-based rank by net buy within one day's list: the
// number of entries with at least this many net-buy lots.
func rankWithin(t *DailyTop, netBuyLots int64) int {
	rank := 0
	for i := range t.Entries {
		if t.Entries[i].NetBuyLots >= netBuyLots {
			rank++
		}
	}
	return rank
}
