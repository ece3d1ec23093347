// Package timemachine runs the horizon selection over a document source and
// produces the per-horizon report.
package timemachine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/starford/timemachine/internal/horizon"
	"github.com/starford/timemachine/internal/metrics"
	"github.com/starford/timemachine/internal/models"
)

// Run statuses reported to metrics.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusInvalid = "invalid"
)

// Config is the selection configuration applied to every run.
type Config struct {
	Horizons []horizon.Spec
	Capacity int
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records run metrics on m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces the reference clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service coordinates a document source and the horizon set of each run.
type Service struct {
	cfg     Config
	src     Source
	logger  *slog.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

// NewService creates a run service.
func NewService(src Source, cfg Config, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{cfg: cfg, src: src, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the selection configuration.
func (s *Service) Config() Config { return s.cfg }

// Run builds a fresh horizon set at the current time and fills it from the
// source.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	return s.RunAt(ctx, s.now())
}

// RunAt is Run with an explicit reference time.
func (s *Service) RunAt(ctx context.Context, now time.Time) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := s.logger.With(slog.String("run_id", runID))

	set, err := horizon.Build(now, horizon.Config{Specs: s.cfg.Horizons, Capacity: s.cfg.Capacity})
	if err != nil {
		s.metrics.Run(StatusInvalid, time.Since(start))
		return nil, err
	}

	var seen, undated, unrouted atomic.Int64
	err = s.src.Documents(ctx, func(doc models.Document) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen.Add(1)
		it, ok := doc.Dated()
		if !ok {
			undated.Add(1)
			s.metrics.Document(metrics.OutcomeUndated)
			return nil
		}
		if set.Route(it) == 0 {
			unrouted.Add(1)
			s.metrics.Document(metrics.OutcomeUnrouted)
			return nil
		}
		s.metrics.Document(metrics.OutcomeRouted)
		return nil
	})
	if err != nil {
		s.metrics.Run(StatusFailed, time.Since(start))
		logger.Warn("timemachine: run abandoned", slog.String("error", err.Error()))
		return nil, fmt.Errorf("timemachine: run: %w", err)
	}

	for _, h := range set.Horizons() {
		s.metrics.Retained(h.Key, h.Len())
	}
	report := newReport(runID, set.Now(), set.Results(), Stats{
		Documents: int(seen.Load()),
		Undated:   int(undated.Load()),
		Unrouted:  int(unrouted.Load()),
	})
	elapsed := time.Since(start)
	s.metrics.Run(StatusOK, elapsed)

	logger.Info("timemachine: run finished",
		slog.Int("documents", report.Stats.Documents),
		slog.Int("undated", report.Stats.Undated),
		slog.Int("horizons", set.Len()),
		slog.Duration("elapsed", elapsed))
	return report, nil
}

// HorizonStatus describes one catalog horizon and whether it is enabled.
type HorizonStatus struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Offset  string `json:"offset"`
	Enabled bool   `json:"enabled"`
}

// Horizons lists the whole catalog, marking the configured horizons.
func (s *Service) Horizons() []HorizonStatus {
	enabled := make(map[string]struct{}, len(s.cfg.Horizons))
	for _, h := range s.cfg.Horizons {
		enabled[h.Key] = struct{}{}
	}
	out := make([]HorizonStatus, 0, len(horizon.Catalog))
	for _, spec := range horizon.Catalog {
		_, on := enabled[spec.Key]
		out = append(out, HorizonStatus{
			Key:     spec.Key,
			Label:   spec.Label,
			Offset:  spec.Offset.String(),
			Enabled: on,
		})
	}
	return out
}
