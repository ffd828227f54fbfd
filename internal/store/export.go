package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"twflow/internal/snapshot"
)

// ExportCSV writes the intersection result as a timestamped CSV under dir
// and returns the file path. Day columns follow the wire layout: most
// recent first.
func ExportCSV(dir string, p *snapshot.Payload, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("top10_intersection_%s.csv", now.Format("20060102_1504")))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"stock_id", "stock_name",
		"day1_date", "day1_rank", "day1_net_buy",
		"day2_date", "day2_rank", "day2_net_buy",
		"total_net_buy", "avg_net_buy"}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, st := range p.Stocks {
		d1 := st.PerDay["day1"]
		d2 := st.PerDay["day2"]
		row := []string{
			st.StockID, st.StockName,
			d1.Date, strconv.Itoa(d1.Rank), strconv.FormatInt(d1.NetBuyLots, 10),
			d2.Date, strconv.Itoa(d2.Rank), strconv.FormatInt(d2.NetBuyLots, 10),
			strconv.FormatInt(st.TotalNetBuy, 10),
			strconv.FormatFloat(st.AvgNetBuy, 'f', 1, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	return path, w.Error()
}
