// Package tw gathers foreign-investor daily net-buy data from the Taiwan
// exchanges (TWSE listed, TPEx over-the-counter) and builds the intersection
// snapshot consumed by the dashboard.
package tw

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"twflow/internal/util"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ForeignRecord is one stock's foreign-investor share totals for a single
// day on a single market.
type ForeignRecord struct {
	StockID    string
	StockName  string
	BuyShares  float64
	SellShares float64
	NetShares  float64
	Market     string // "TWSE" or "TPEx"
}

// Client fetches the public exchange endpoints. Every request is paced by a
// shared rate limiter and retried with backoff.
type Client struct {
	twseBase    string
	tpexBase    string
	userAgent   string
	maxAttempts int
	httpClient  *http.Client
	limiter     *util.RateLimiter
}

// NewClient creates a Client for the given endpoints.
func NewClient(twseBase, tpexBase, userAgent string, maxAttempts, ratePerMin int) *Client {
	return &Client{
		twseBase:    strings.TrimSuffix(twseBase, "/"),
		tpexBase:    strings.TrimSuffix(tpexBase, "/"),
		userAgent:   userAgent,
		maxAttempts: maxAttempts,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		limiter:     util.NewRateLimiter(ratePerMin),
	}
}

// twseFields are the T86 column headers we extract, in record order.
var twseFields = [5]string{
	"證券代號",
	"證券名稱",
	"外陸資買進股數(不含外資自營商)",
	"外陸資賣出股數(不含外資自營商)",
	"外陸資買賣超股數(不含外資自營商)",
}

type twseResponse struct {
	Stat   string   `json:"stat"`
	Fields []string `json:"fields"`
	Data   [][]any  `json:"data"`
}

// FetchTWSE retrieves foreign-investor records for listed stocks on the
// given date ("YYYYMMDD"). A trading holiday yields an empty slice, not an
// error.
func (c *Client) FetchTWSE(ctx context.Context, date string) ([]ForeignRecord, error) {
	q := url.Values{}
	q.Set("date", date)
	q.Set("selectType", "ALL")
	q.Set("response", "json")
	u := c.twseBase + "/rwd/zh/fund/T86?" + q.Encode()

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetching TWSE %s: %w", date, err)
	}

	var resp twseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing TWSE %s: %w", date, err)
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}

	// Resolve column positions by header name.
	var idx [5]int
	for i := range idx {
		idx[i] = -1
	}
	for col, name := range resp.Fields {
		for i, want := range twseFields {
			if name == want {
				idx[i] = col
			}
		}
	}
	for i, col := range idx {
		if col < 0 {
			return nil, fmt.Errorf("TWSE %s: missing column %q", date, twseFields[i])
		}
	}

	records := make([]ForeignRecord, 0, len(resp.Data))
	for _, row := range resp.Data {
		if len(row) <= idx[4] {
			continue
		}
		records = append(records, ForeignRecord{
			StockID:    strings.TrimSpace(asString(row[idx[0]])),
			StockName:  strings.TrimSpace(asString(row[idx[1]])),
			BuyShares:  parseNumber(row[idx[2]]),
			SellShares: parseNumber(row[idx[3]]),
			NetShares:  parseNumber(row[idx[4]]),
			Market:     "TWSE",
		})
	}
	return records, nil
}

type tpexResponse struct {
	AAData [][]any `json:"aaData"`
}

// FetchTPEx retrieves foreign-investor records for OTC stocks on the given
// date ("YYYYMMDD"). The endpoint wants the date in the ROC calendar.
func (c *Client) FetchTPEx(ctx context.Context, date string) ([]ForeignRecord, error) {
	rocDate, err := toROCDate(date)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("l", "zh-tw")
	q.Set("d", rocDate)
	q.Set("se", "AL")
	q.Set("response", "json")
	u := c.tpexBase + "/web/stock/3insti/daily_trade/3itrade_hedge_result.php?" + q.Encode()

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetching TPEx %s: %w", date, err)
	}

	var resp tpexResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing TPEx %s: %w", date, err)
	}
	if len(resp.AAData) == 0 {
		return nil, nil
	}

	// Positional columns: 0 id, 1 name, 7 foreign buy, 8 sell, 9 net.
	records := make([]ForeignRecord, 0, len(resp.AAData))
	for _, row := range resp.AAData {
		if len(row) < 10 {
			continue
		}
		records = append(records, ForeignRecord{
			StockID:    strings.TrimSpace(asString(row[0])),
			StockName:  strings.TrimSpace(asString(row[1])),
			BuyShares:  parseNumber(row[7]),
			SellShares: parseNumber(row[8]),
			NetShares:  parseNumber(row[9]),
			Market:     "TPEx",
		})
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	var body []byte
	err := util.Retry(ctx, c.maxAttempts, 1200*time.Millisecond, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	return body, err
}

// toROCDate converts "YYYYMMDD" to the ROC-calendar "YYY/MM/DD" form.
func toROCDate(date string) (string, error) {
	if len(date) != 8 {
		return "", fmt.Errorf("bad date %q", date)
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return "", fmt.Errorf("bad date %q", date)
	}
	return fmt.Sprintf("%d/%s/%s", year-1911, date[4:6], date[6:8]), nil
}

// parseNumber coerces "1,234" / "-" / nil / numeric into a float, defaulting
// to 0 for anything unparseable.
func parseNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case int:
		return float64(n)
	}
	s := strings.ReplaceAll(strings.TrimSpace(asString(v)), ",", "")
	if s == "" || s == "-" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
