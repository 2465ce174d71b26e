// Package dashboard serves the migration queries as JSON together with a
// browser page that draws the world map, the ranking and the time series.
package dashboard

import (
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"strconv"

	"github.com/anrid/world-migration/pkg/config"
	"github.com/anrid/world-migration/pkg/stats"
	"github.com/gorilla/mux"
)

//go:embed static
var staticFiles embed.FS

type Server struct {
	data   *stats.Dataset
	cfg    config.Dashboard
	router *mux.Router
}

func NewServer(data *stats.Dataset, cfg config.Dashboard) *Server {
	s := &Server{data: data, cfg: cfg, router: mux.NewRouter()}

	s.router.Use(corsMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/metrics", s.handleMetrics).Methods("GET", "OPTIONS")
	api.HandleFunc("/years", s.handleYears).Methods("GET", "OPTIONS")
	api.HandleFunc("/entities", s.handleEntities).Methods("GET", "OPTIONS")
	api.HandleFunc("/ranking", s.handleRanking).Methods("GET", "OPTIONS")
	api.HandleFunc("/snapshot", s.handleSnapshot).Methods("GET", "OPTIONS")
	api.HandleFunc("/timeseries", s.handleTimeSeries).Methods("GET", "OPTIONS")

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Panic(err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(static)))

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Could not encode response: %v", err)
	}
}

// writeResult maps a query outcome to a response. Missing inputs are
// answered with 204 so the page keeps what it shows.
func writeResult(w http.ResponseWriter, v interface{}, err error) {
	switch {
	case errors.Is(err, stats.ErrNoUpdate):
		w.WriteHeader(http.StatusNoContent)
	case err != nil:
		log.Printf("Query failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, v)
	}
}

type metricOption struct {
	Value stats.Metric `json:"value"`
	Label string       `json:"label"`
}

type metricsResponse struct {
	Options []metricOption `json:"options"`
	Top     stats.Metric   `json:"top"`
	Bottom  stats.Metric   `json:"bottom"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	res := metricsResponse{Top: s.cfg.TopMetric, Bottom: s.cfg.BottomMetric}
	for _, m := range stats.Metrics {
		res.Options = append(res.Options, metricOption{Value: m, Label: m.Label()})
	}
	writeJSON(w, res)
}

type yearsResponse struct {
	Years   []int `json:"years"`
	Default int   `json:"default"`
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	years := s.data.Years()
	if years == nil {
		years = []int{}
	}
	res := yearsResponse{Years: years, Default: s.cfg.DefaultYear}
	if len(years) > 0 && !containsInt(years, res.Default) {
		res.Default = years[len(years)-1]
	}
	writeJSON(w, res)
}

type entitiesResponse struct {
	Entities []string `json:"entities"`
	Default  []string `json:"default"`
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	res := entitiesResponse{Entities: s.data.Entities(), Default: []string{}}
	if res.Entities == nil {
		res.Entities = []string{}
	}
	for _, e := range s.cfg.DefaultEntities {
		if s.data.HasEntity(e) {
			res.Default = append(res.Default, e)
		}
	}
	writeJSON(w, res)
}

// yearAndMetric reads the year and metric parameters. A missing year falls
// back to the default year, a missing metric is left empty.
func (s *Server) yearAndMetric(w http.ResponseWriter, r *http.Request) (int, stats.Metric, bool) {
	q := r.URL.Query()

	year := s.cfg.DefaultYear
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid year '"+v+"'", http.StatusBadRequest)
			return 0, "", false
		}
		year = y
	}

	metric, err := stats.ParseMetric(q.Get("metric"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, "", false
	}

	return year, metric, true
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	year, metric, ok := s.yearAndMetric(w, r)
	if !ok {
		return
	}
	rk, err := s.data.Ranking(year, metric)
	writeResult(w, rk, err)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	year, metric, ok := s.yearAndMetric(w, r)
	if !ok {
		return
	}
	sn, err := s.data.Snapshot(year, metric)
	writeResult(w, sn, err)
}

func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	metric, err := stats.ParseMetric(q.Get("metric"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	names := q["country"]
	for _, n := range names {
		if !s.data.HasEntity(n) {
			http.Error(w, "unknown country or region '"+n+"'", http.StatusBadRequest)
			return
		}
	}

	ts, err := s.data.TimeSeries(names, metric)
	writeResult(w, ts, err)
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
