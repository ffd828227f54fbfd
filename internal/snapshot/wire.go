package snapshot

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ---------------------------------------------------------------------------
// Payload — producer-side document (all fields present)
// ---------------------------------------------------------------------------

// Payload is the full-fidelity document written by the daily gather job.
// The field names match data/latest.json exactly.
type Payload struct {
	Mode           string         `json:"mode"`
	GeneratedAtUTC string         `json:"generated_at_utc"`
	Timezone       string         `json:"timezone"`
	Params         Params         `json:"params"`
	TradingDates   []string       `json:"trading_dates"`
	Count          int            `json:"count_intersection"`
	Stocks         []PayloadStock `json:"stocks"`
}

// Params records the gather parameters used to produce the payload.
type Params struct {
	Days int `json:"days"`
	TopN int `json:"top_n"`
}

// PayloadStock is one intersection entry as written to disk.
type PayloadStock struct {
	StockID     string                `json:"stock_id"`
	StockName   string                `json:"stock_name"`
	TotalNetBuy int64                 `json:"total_net_buy"`
	AvgNetBuy   float64               `json:"avg_net_buy"`
	PerDay      map[string]PayloadDay `json:"per_day"`
}

// PayloadDay is one day's figures as written to disk.
type PayloadDay struct {
	Date       string `json:"date"`
	Rank       int    `json:"rank"`
	NetBuyLots int64  `json:"net_buy_lots"`
}

// Marshal encodes a payload as indented JSON suitable for data/latest.json.
func Marshal(p *Payload) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// ---------------------------------------------------------------------------
// Decoding — consumer side (tolerant of missing fields)
// ---------------------------------------------------------------------------

// Wire documents are not schema-guaranteed, so every field the consumer
// touches is optional here and defaulted in normalize.
type wireDocument struct {
	Mode           string      `json:"mode"`
	GeneratedAtUTC string      `json:"generated_at_utc"`
	Timezone       string      `json:"timezone"`
	Params         *Params     `json:"params"`
	TradingDates   wireStrings `json:"trading_dates"`
	Count          *int        `json:"count_intersection"`
	Stocks         wireStocks  `json:"stocks"`
}

// The two sequence fields coerce a wrong-shaped value to empty instead of
// failing the whole document; only an unparseable document is a decode
// failure.
type wireStrings []string

func (w *wireStrings) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		*w = nil
		return nil
	}
	*w = items
	return nil
}

type wireStocks []wireStock

func (w *wireStocks) UnmarshalJSON(data []byte) error {
	var items []wireStock
	if err := json.Unmarshal(data, &items); err != nil {
		*w = nil
		return nil
	}
	*w = items
	return nil
}

type wireStock struct {
	StockID     string              `json:"stock_id"`
	StockName   string              `json:"stock_name"`
	TotalNetBuy *int64              `json:"total_net_buy"`
	AvgNetBuy   *float64            `json:"avg_net_buy"`
	PerDay      map[string]*wireDay `json:"per_day"`
}

type wireDay struct {
	Date       string `json:"date"`
	Rank       *int   `json:"rank"`
	NetBuyLots *int64 `json:"net_buy_lots"`
}

// Decode parses a snapshot document and applies all defaulting rules once:
// nil sequences become empty, names are trimmed, per-day dates fall back to
// the trading-date list, and absent totals are derived from the day values.
func Decode(data []byte) (*Snapshot, error) {
	var doc wireDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing snapshot document: %w", err)
	}
	return normalize(&doc), nil
}

func normalize(doc *wireDocument) *Snapshot {
	s := &Snapshot{
		Mode:         doc.Mode,
		GeneratedAt:  doc.GeneratedAtUTC,
		Timezone:     doc.Timezone,
		TradingDates: []string(doc.TradingDates),
	}
	if s.TradingDates == nil {
		s.TradingDates = []string{}
	}
	if doc.Params != nil {
		s.Days = doc.Params.Days
		s.TopN = doc.Params.TopN
	}
	if s.Days == 0 {
		s.Days = len(s.TradingDates)
	}

	s.Stocks = make([]Stock, 0, len(doc.Stocks))
	for _, ws := range doc.Stocks {
		s.Stocks = append(s.Stocks, normalizeStock(&ws, s.TradingDates, s.Days))
	}

	// Explicit intersection count wins over the derived stock count.
	if doc.Count != nil {
		s.Count = *doc.Count
	} else {
		s.Count = len(s.Stocks)
	}
	return s
}

func normalizeStock(ws *wireStock, tradingDates []string, days int) Stock {
	st := Stock{
		ID:   ws.StockID,
		Name: strings.TrimSpace(ws.StockName),
		Day1: normalizeDay(ws.PerDay["day1"], tradingDates, 0),
		Day2: normalizeDay(ws.PerDay["day2"], tradingDates, 1),
	}

	if ws.TotalNetBuy != nil {
		st.TotalNetBuy = *ws.TotalNetBuy
	} else {
		if st.Day1 != nil {
			st.TotalNetBuy += st.Day1.NetBuyLots
		}
		if st.Day2 != nil {
			st.TotalNetBuy += st.Day2.NetBuyLots
		}
	}

	if ws.AvgNetBuy != nil {
		st.AvgNetBuy = *ws.AvgNetBuy
	} else if days > 0 {
		st.AvgNetBuy = float64(st.TotalNetBuy) / float64(days)
	}
	return st
}

func normalizeDay(wd *wireDay, tradingDates []string, idx int) *DayMetric {
	if wd == nil {
		return nil
	}
	d := &DayMetric{Date: wd.Date}
	if d.Date == "" && idx < len(tradingDates) {
		d.Date = tradingDates[idx]
	}
	if wd.Rank != nil {
		d.Rank = *wd.Rank
	}
	if wd.NetBuyLots != nil {
		d.NetBuyLots = *wd.NetBuyLots
	}
	return d
}
