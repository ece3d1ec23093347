package horizon

import (
	"fmt"
	"sync"
	"time"

	"github.com/starford/timemachine/internal/apperr"
	"github.com/starford/timemachine/internal/recency"
)

// Config is the active horizon configuration for one run.
type Config struct {
	Specs    []Spec
	Capacity int
}

// Horizon is one relative time bucket with its own selector.
type Horizon struct {
	Key      string
	Label    string
	Boundary time.Time

	mu  sync.Mutex
	sel *recency.Selector
}

// Offer inserts it into the horizon's selector when it is at or before the
// boundary. It reports whether the item was eligible.
func (h *Horizon) Offer(it recency.Item) bool {
	if it.Date.After(h.Boundary) {
		return false
	}
	h.mu.Lock()
	h.sel.Insert(it)
	h.mu.Unlock()
	return true
}

// Len returns the number of items currently retained.
func (h *Horizon) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sel.Len()
}

// Set owns the horizons of a single run. Boundaries are fixed when the set
// is built; Route may be called concurrently.
type Set struct {
	now      time.Time
	horizons []*Horizon
}

// Result is the read-out of one horizon, newest item first.
type Result struct {
	Key      string
	Label    string
	Boundary time.Time
	Items    []recency.Item
}

// Build computes the boundaries relative to now and creates an empty
// selector for every configured horizon, in configuration order.
func Build(now time.Time, cfg Config) (*Set, error) {
	if len(cfg.Specs) == 0 {
		return nil, fmt.Errorf("horizon: no horizons enabled: %w", apperr.ErrInvalidConfiguration)
	}
	seen := make(map[string]struct{}, len(cfg.Specs))
	set := &Set{now: now, horizons: make([]*Horizon, 0, len(cfg.Specs))}
	for _, spec := range cfg.Specs {
		if _, dup := seen[spec.Key]; dup {
			return nil, fmt.Errorf("horizon: %q configured twice: %w", spec.Key, apperr.ErrInvalidConfiguration)
		}
		seen[spec.Key] = struct{}{}

		sel, err := recency.New(cfg.Capacity)
		if err != nil {
			return nil, err
		}
		set.horizons = append(set.horizons, &Horizon{
			Key:      spec.Key,
			Label:    spec.Label,
			Boundary: spec.Offset.Before(now),
			sel:      sel,
		})
	}
	return set, nil
}

// Now returns the reference time the boundaries were computed from.
func (s *Set) Now() time.Time { return s.now }

// Len returns the number of horizons.
func (s *Set) Len() int { return len(s.horizons) }

// Horizons returns the horizons in configuration order.
func (s *Set) Horizons() []*Horizon { return s.horizons }

// Route offers it to every horizon and returns how many were eligible.
func (s *Set) Route(it recency.Item) int {
	n := 0
	for _, h := range s.horizons {
		if h.Offer(it) {
			n++
		}
	}
	return n
}

// Results drains every selector and returns the horizons in configuration
// order with their items newest first. It is meant to be called once, after
// ingestion has finished.
func (s *Set) Results() []Result {
	out := make([]Result, len(s.horizons))
	for i, h := range s.horizons {
		h.mu.Lock()
		items := h.sel.DrainSortedDescending()
		h.mu.Unlock()
		out[i] = Result{
			Key:      h.Key,
			Label:    h.Label,
			Boundary: h.Boundary,
			Items:    items,
		}
	}
	return out
}
