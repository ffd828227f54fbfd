// Package webapi serves the dashboard: the snapshot documents under /data,
// a small history API, and the static page shell.
package webapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"twflow/internal/store"
)

// Server serves the dashboard HTTP API.
type Server struct {
	files   *store.FileStore
	tops    *store.ParquetStore
	siteDir string
	log     *slog.Logger
}

// NewServer creates a dashboard server reading from the given stores and
// serving static shell files from siteDir.
func NewServer(files *store.FileStore, tops *store.ParquetStore, siteDir string, log *slog.Logger) *Server {
	return &Server{
		files:   files,
		tops:    tops,
		siteDir: siteDir,
		log:     log,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /data/latest.json", s.handleLatest)
	mux.HandleFunc("GET /api/dates", s.handleDates)
	mux.HandleFunc("GET /api/history/{date}", s.handleHistory)
	mux.HandleFunc("GET /api/top/{date}", s.handleTop)
	mux.Handle("GET /", http.FileServer(http.Dir(s.siteDir)))
	return corsMiddleware(mux)
}

// handleLatest serves the current snapshot with caching disabled so the
// page's cache-bypassing fetch always sees fresh data.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	data, err := s.files.ReadLatest()
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "no snapshot yet", http.StatusNotFound)
			return
		}
		s.log.Error("reading latest snapshot", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.files.ListHistoryDates()
	if err != nil {
		s.log.Error("listing history dates", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, DatesResponse{Dates: dates})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	data, err := s.files.ReadHistory(date)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "no snapshot for "+date, http.StatusNotFound)
			return
		}
		s.log.Error("reading history snapshot", "date", date, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(data)
}

// handleTop serves one day's full archived top list (not just the
// intersection) from the Parquet archive.
func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	records, err := s.tops.ReadDailyTop(date)
	if err != nil {
		http.Error(w, "no top list for "+date, http.StatusNotFound)
		return
	}

	resp := TopResponse{Date: date, Entries: make([]TopEntry, len(records))}
	for i, rec := range records {
		resp.Entries[i] = TopEntry{
			Position:   int(rec.Position),
			StockID:    rec.StockID,
			StockName:  rec.StockName,
			BuyLots:    rec.BuyLots,
			SellLots:   rec.SellLots,
			NetBuyLots: rec.NetBuyLots,
		}
	}
	writeJSON(w, resp)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writing JSON response", "error", err)
	}
}
