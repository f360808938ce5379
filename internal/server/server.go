// Package server is a development document store speaking the timeline HTTP contract:
//
//	GET   /t/{slug}         canonical document
//	PATCH /timeline/{slug}  full replacement; items without an id get one
//	GET   /health
//	GET   /metrics          Prometheus
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"timeline-cli/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

type Config struct {
	Addr  string
	Store *Store
	// Token, when set, is required as a bearer token on every timeline route.
	Token  string
	Logger zerolog.Logger
	// Registry defaults to a fresh private registry.
	Registry *prometheus.Registry
}

type Server struct {
	cfg     Config
	log     zerolog.Logger
	reg     *prometheus.Registry
	metrics *metrics
}

func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:8000"
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Server{
		cfg:     cfg,
		log:     cfg.Logger.With().Str("component", "server").Logger(),
		reg:     reg,
		metrics: newMetrics(reg),
	}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.metrics.instrument("health", s.handleHealth))
	mux.HandleFunc("GET /t/{slug}", s.metrics.instrument("get_timeline", s.auth(s.handleGet)))
	mux.HandleFunc("PATCH /timeline/{slug}", s.metrics.instrument("replace_timeline", s.auth(s.handleReplace)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info().Str("addr", s.cfg.Addr).Msg("listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// Seed stores the JSON document read from r under slug, assigning ids where missing.
func (s *Server) Seed(ctx context.Context, slug string, r io.Reader) error {
	var body replaceBody
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return fmt.Errorf("seed %s: %w", slug, err)
	}
	rec, _, err := body.record()
	if err != nil {
		return fmt.Errorf("seed %s: %w", slug, err)
	}
	return s.cfg.Store.Put(ctx, slug, rec)
}

func (s *Server) auth(h http.HandlerFunc) http.HandlerFunc {
	if s.cfg.Token == "" {
		return h
	}
	want := "Bearer " + s.cfg.Token
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != want {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		h(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	rec, err := s.cfg.Store.Get(r.Context(), slug)
	if errors.Is(err, ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Timeline not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("slug", slug).Msg("get failed")
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleReplace(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	var body replaceBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	rec, assigned, err := body.record()
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := s.cfg.Store.Replace(r.Context(), slug, rec)
	if errors.Is(err, ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Timeline not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("slug", slug).Msg("replace failed")
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.metrics.timelinesSaved.Inc()
	s.metrics.itemsAssigned.Add(float64(assigned))
	s.log.Info().Str("slug", slug).Int("items", len(stored.Items)).Int("assigned", assigned).Msg("timeline replaced")
	writeJSON(w, http.StatusOK, stored)
}

type replaceBody struct {
	Title     *string           `json:"title"`
	EventDate *string           `json:"event_date"`
	Items     []json.RawMessage `json:"items"`
}

// record validates the body and normalizes its items. assigned counts items that
// arrived without a usable id.
func (b replaceBody) record() (Record, int, error) {
	if b.EventDate != nil && *b.EventDate != "" {
		if _, err := time.Parse(time.DateOnly, *b.EventDate); err != nil {
			return Record{}, 0, fmt.Errorf("invalid event_date %q (expected YYYY-MM-DD)", *b.EventDate)
		}
	}
	items := model.NormalizeItems(b.Items)
	assigned := 0
	for i, raw := range b.Items {
		var probe struct {
			ID any `json:"id"`
		}
		_ = json.Unmarshal(raw, &probe)
		if id, ok := probe.ID.(string); !ok || id != items[i].ID {
			assigned++
		}
	}
	return Record{Title: b.Title, EventDate: b.EventDate, Items: items}, assigned, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
