package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.uber.org/automaxprocs/maxprocs"

	"wtftrace/internal/config"
	"wtftrace/query"
	"wtftrace/stats"
	"wtftrace/trace"
)

type app struct {
	db  *trace.Database
	log *logrus.Entry
	ws  websocket.Upgrader
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	log := logrus.WithField("component", "cmd/tracedb-server")
	if _, err := maxprocs.Set(maxprocs.Logger(log.Infof)); err != nil {
		log.WithError(err).Warn("failed to set GOMAXPROCS")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if lvl, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logrus.SetLevel(lvl)
	}

	a := &app{db: trace.NewDatabase(), log: log}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.handleHealth)
	r.Get("/zones", a.handleListZones)
	r.Get("/zones/{zoneID}/query", a.handleQuery)
	r.Get("/zones/{zoneID}/stats", a.handleStats)
	r.Get("/ws/invalidations", a.handleInvalidations)

	log.WithField("addr", cfg.Server.HTTPAddr).Info("tracedb-server listening")
	if err := http.ListenAndServe(cfg.Server.HTTPAddr, r); err != nil {
		log.WithError(err).Fatal("http server exited")
	}
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (a *app) handleListZones(w http.ResponseWriter, r *http.Request) {
	zones := a.db.Zones()
	names := make([]string, 0, len(zones))
	for _, z := range zones {
		names = append(names, z.Name)
	}
	writeJSON(w, names)
}

// handleQuery runs a compiled filter expression across every zone and
// returns the match set as JSON or CSV (?format=csv), per spec.md §4.6.
func (a *app) handleQuery(w http.ResponseWriter, r *http.Request) {
	expr, err := query.Compile(r.URL.Query().Get("q"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := query.NewEngine(a.db).Scan(r.Context(), expr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		if err := res.Dump(w, a.db.ArgumentsFor); err != nil {
			a.log.WithError(err).Error("csv dump failed")
		}
		return
	}
	writeJSON(w, res)
}

// handleStats aggregates event-type statistics for a zone over a time window
// given by ?start_ms=&end_ms=, sorted by ?sort=count|total_time|mean_time
// (spec.md §4.5).
func (a *app) handleStats(w http.ResponseWriter, r *http.Request) {
	zoneID := chi.URLParam(r, "zoneID")
	z := a.db.ZoneByID(zoneID)
	if z == nil {
		http.Error(w, "zone not found", http.StatusNotFound)
		return
	}

	startMs := parseInt64Default(r.URL.Query().Get("start_ms"), 0)
	endMs := parseInt64Default(r.URL.Query().Get("end_ms"), z.Store.LastTimeMs())

	agg := stats.NewAggregator()
	agg.Rebuild([]*trace.Zone{z}, startMs, endMs, nil)

	mode := stats.SortByCount
	switch r.URL.Query().Get("sort") {
	case "total_time":
		mode = stats.SortByTotalTime
	case "mean_time":
		mode = stats.SortByMeanTime
	}

	var entries []*stats.Entry
	agg.ForEach(mode, func(e *stats.Entry) bool {
		entries = append(entries, e)
		return true
	})
	writeJSON(w, entries)
}

// handleInvalidations upgrades to a websocket and forwards every
// INVALIDATED event the database broadcasts, per spec.md §6.
func (a *app) handleInvalidations(w http.ResponseWriter, r *http.Request) {
	conn, err := a.ws.Upgrade(w, r, nil)
	if err != nil {
		a.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch := make(chan trace.InvalidationEvent, 16)
	a.db.Subscribe(ch)

	for ev := range ch {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt64Default(s string, def int64) int64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return v
}
