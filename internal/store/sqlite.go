package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"twflow/internal/snapshot"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ SnapshotWriter = (*SQLiteStore)(nil)
var _ SnapshotReader = (*SQLiteStore)(nil)

// SQLiteStore archives gather runs in a SQLite database so history survives
// pruning of the JSON files.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_date           TEXT PRIMARY KEY,
	generated_at_utc   TEXT NOT NULL,
	mode               TEXT NOT NULL,
	days               INTEGER NOT NULL,
	top_n              INTEGER NOT NULL,
	trading_dates      TEXT NOT NULL,
	count_intersection INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS run_stocks (
	run_date      TEXT NOT NULL,
	stock_id      TEXT NOT NULL,
	stock_name    TEXT NOT NULL,
	total_net_buy INTEGER NOT NULL,
	avg_net_buy   REAL NOT NULL,
	day1_date     TEXT,
	day1_rank     INTEGER,
	day1_net_buy  INTEGER,
	day2_date     TEXT,
	day2_rank     INTEGER,
	day2_net_buy  INTEGER,
	PRIMARY KEY (run_date, stock_id)
);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA synchronous=NORMAL")

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun upserts one run and its stocks in a single transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, p *snapshot.Payload) error {
	date := runDate(p)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(run_date, generated_at_utc, mode, days, top_n, trading_dates, count_intersection)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		date, p.GeneratedAtUTC, p.Mode, p.Params.Days, p.Params.TopN,
		strings.Join(p.TradingDates, ","), p.Count)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", date, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_stocks WHERE run_date = ?`, date); err != nil {
		return err
	}

	for _, st := range p.Stocks {
		d1 := st.PerDay["day1"]
		d2, hasD2 := st.PerDay["day2"]

		var d2Date any
		var d2Rank, d2Net any
		if hasD2 {
			d2Date, d2Rank, d2Net = d2.Date, d2.Rank, d2.NetBuyLots
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_stocks
				(run_date, stock_id, stock_name, total_net_buy, avg_net_buy,
				 day1_date, day1_rank, day1_net_buy,
				 day2_date, day2_rank, day2_net_buy)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			date, st.StockID, st.StockName, st.TotalNetBuy, st.AvgNetBuy,
			d1.Date, d1.Rank, d1.NetBuyLots,
			d2Date, d2Rank, d2Net)
		if err != nil {
			return fmt.Errorf("inserting stock %s: %w", st.StockID, err)
		}
	}

	return tx.Commit()
}

// ListRunDates returns the archived run dates, ascending.
func (s *SQLiteStore) ListRunDates(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_date FROM runs ORDER BY run_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// GetRun rebuilds a payload from the archive.
func (s *SQLiteStore) GetRun(ctx context.Context, date string) (*snapshot.Payload, error) {
	p := &snapshot.Payload{Stocks: []snapshot.PayloadStock{}}

	var joined string
	err := s.db.QueryRowContext(ctx, `
		SELECT generated_at_utc, mode, days, top_n, trading_dates, count_intersection
		FROM runs WHERE run_date = ?`, date).
		Scan(&p.GeneratedAtUTC, &p.Mode, &p.Params.Days, &p.Params.TopN, &joined, &p.Count)
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", date, err)
	}
	p.Timezone = "Asia/Taipei"
	if joined != "" {
		p.TradingDates = strings.Split(joined, ",")
	} else {
		p.TradingDates = []string{}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT stock_id, stock_name, total_net_buy, avg_net_buy,
		       day1_date, day1_rank, day1_net_buy,
		       day2_date, day2_rank, day2_net_buy
		FROM run_stocks WHERE run_date = ? ORDER BY total_net_buy DESC`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var st snapshot.PayloadStock
		var d1 snapshot.PayloadDay
		var d2Date sql.NullString
		var d2Rank, d2Net sql.NullInt64
		err := rows.Scan(&st.StockID, &st.StockName, &st.TotalNetBuy, &st.AvgNetBuy,
			&d1.Date, &d1.Rank, &d1.NetBuyLots,
			&d2Date, &d2Rank, &d2Net)
		if err != nil {
			return nil, err
		}
		st.PerDay = map[string]snapshot.PayloadDay{"day1": d1}
		if d2Date.Valid {
			st.PerDay["day2"] = snapshot.PayloadDay{
				Date:       d2Date.String,
				Rank:       int(d2Rank.Int64),
				NetBuyLots: d2Net.Int64,
			}
		}
		p.Stocks = append(p.Stocks, st)
	}
	return p, rows.Err()
}
