// Package snapshot defines the immutable dashboard snapshot document, its
// wire codec, and the HTTP loader that retrieves it.
package snapshot

// Snapshot is one fully-normalized point-in-time dataset of foreign-investor
// trading activity. All optional wire fields have had their defaults applied
// at decode time; downstream code never re-checks for absence.
type Snapshot struct {
	Mode         string
	GeneratedAt  string // "2006-01-02 15:04:05", UTC
	Timezone     string
	Days         int
	TopN         int
	TradingDates []string // most-recent-first, never nil
	Count        int      // intersection count, explicit or derived
	Stocks       []Stock  // input order, never nil
}

// Stock is one entry in the intersection list.
type Stock struct {
	ID          string
	Name        string // whitespace-trimmed
	Day1        *DayMetric
	Day2        *DayMetric
	TotalNetBuy int64
	AvgNetBuy   float64
}

// DayMetric holds a single trading day's figures for one stock.
type DayMetric struct {
	Date       string
	Rank       int // 1-based; 0 means not ranked
	NetBuyLots int64
}
