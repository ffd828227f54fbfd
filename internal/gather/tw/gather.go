package tw

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// taipeiZone is a fixed +8 offset. The exchanges publish in local time; a
// fixed zone keeps the date math independent of the host's zone database.
var taipeiZone = time.FixedZone("Asia/Taipei", 8*60*60)

// TopEntry is one stock in a single day's top-N net-buy list.
type TopEntry struct {
	StockID    string
	StockName  string
	BuyLots    int64
	SellLots   int64
	NetBuyLots int64
}

// DailyTop is one trading day's top-N list, net buy descending.
type DailyTop struct {
	Date    string // "2006-01-02"
	Entries []TopEntry
}

// Gatherer runs the full daily collection: find recent trading dates, pull
// each day's top-N list, and intersect them into a snapshot payload.
type Gatherer struct {
	client   *Client
	days     int
	topN     int
	lookback int
	log      *slog.Logger
	now      func() time.Time // injectable for tests
}

// NewGatherer creates a Gatherer. days is the number of consecutive trading
// days to intersect, lookback the calendar-day probe budget.
func NewGatherer(client *Client, days, topN, lookback int, log *slog.Logger) *Gatherer {
	return &Gatherer{
		client:   client,
		days:     days,
		topN:     topN,
		lookback: lookback,
		log:      log,
		now:      time.Now,
	}
}

// RecentTradingDates probes backwards from today (Asia/Taipei) until it has
// found the requested number of trading days, skipping weekends without a
// network call. Dates come back most-recent-first as "YYYYMMDD".
func (g *Gatherer) RecentTradingDates(ctx context.Context) ([]string, error) {
	var dates []string
	day := g.now().In(taipeiZone)

	for probe := 0; probe < g.lookback && len(dates) < g.days; probe++ {
		d := day.AddDate(0, 0, -probe)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		date := d.Format("20060102")

		records, err := g.client.FetchTWSE(ctx, date)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			continue // holiday or data not yet published
		}
		g.log.Info("trading day found", "date", date, "records", len(records))
		dates = append(dates, date)
	}

	if len(dates) < g.days {
		return nil, fmt.Errorf("found %d trading days in the last %d calendar days, need %d",
			len(dates), g.lookback, g.days)
	}
	return dates, nil
}

// DailyTop fetches both markets for one date, merges per stock, and keeps
// the top N by net buy. Share counts convert to lots (1 lot = 1000 shares,
// rounded).
func (g *Gatherer) DailyTop(ctx context.Context, date string) (*DailyTop, error) {
	var twse, tpex []ForeignRecord

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		twse, err = g.client.FetchTWSE(egctx, date)
		return err
	})
	eg.Go(func() error {
		var err error
		tpex, err = g.client.FetchTPEx(egctx, date)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if len(twse) == 0 && len(tpex) == 0 {
		return nil, fmt.Errorf("no market data for %s", date)
	}

	return buildDailyTop(date, append(twse, tpex...), g.topN), nil
}

// buildDailyTop merges records per stock id across markets and keeps topN.
func buildDailyTop(date string, records []ForeignRecord, topN int) *DailyTop {
	type agg struct {
		name           string
		buy, sell, net float64
	}
	byID := make(map[string]*agg)
	var order []string // first-seen order keeps the merge deterministic
	for _, r := range records {
		a, ok := byID[r.StockID]
		if !ok {
			a = &agg{name: r.StockName}
			byID[r.StockID] = a
			order = append(order, r.StockID)
		}
		a.buy += r.BuyShares
		a.sell += r.SellShares
		a.net += r.NetShares
	}

	sort.SliceStable(order, func(i, j int) bool {
		return byID[order[i]].net > byID[order[j]].net
	})
	if len(order) > topN {
		order = order[:topN]
	}

	top := &DailyTop{Date: formatDashDate(date)}
	for _, id := range order {
		a := byID[id]
		top.Entries = append(top.Entries, TopEntry{
			StockID:    id,
			StockName:  a.name,
			BuyLots:    sharesToLots(a.buy),
			SellLots:   sharesToLots(a.sell),
			NetBuyLots: sharesToLots(a.net),
		})
	}
	return top
}

func sharesToLots(shares float64) int64 {
	return int64(math.Round(shares / 1000))
}

// formatDashDate converts "YYYYMMDD" to "YYYY-MM-DD"; other input passes
// through unchanged.
func formatDashDate(date string) string {
	if len(date) != 8 {
		return date
	}
	return date[:4] + "-" + date[4:6] + "-" + date[6:8]
}

// Run executes the whole gather: probe dates, fetch each day's list, build
// the intersection payload. The per-day lists come back too so callers can
// archive them.
func (g *Gatherer) Run(ctx context.Context) (*Result, error) {
	dates, err := g.RecentTradingDates(ctx)
	if err != nil {
		return nil, err
	}

	tops := make([]*DailyTop, 0, len(dates))
	for i, date := range dates {
		g.log.Info("fetching top list", "day", i+1, "date", date)
		top, err := g.DailyTop(ctx, date)
		if err != nil {
			return nil, err
		}
		tops = append(tops, top)
	}

	payload := BuildSnapshot(tops, g.topN, g.now().UTC())
	g.log.Info("snapshot built",
		"dates", payload.TradingDates,
		"intersection", payload.Count)

	return &Result{Payload: payload, Tops: tops}, nil
}
