package webapi

// DatesResponse lists available history dates ("YYYYMMDD").
type DatesResponse struct {
	Dates []string `json:"dates"`
}

// TopEntry is one row of an archived daily top list.
type TopEntry struct {
	Position   int    `json:"position"`
	StockID    string `json:"stock_id"`
	StockName  string `json:"stock_name"`
	BuyLots    int64  `json:"buy_lots"`
	SellLots   int64  `json:"sell_lots"`
	NetBuyLots int64  `json:"net_buy_lots"`
}

// TopResponse is the full archived top list for one trading day.
type TopResponse struct {
	Date    string     `json:"date"`
	Entries []TopEntry `json:"entries"`
}
