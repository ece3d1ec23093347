// Package recency keeps the N most recent dated items out of an arbitrary
// insertion stream.
package recency

import (
	"fmt"
	"time"

	"github.com/starford/timemachine/internal/apperr"
)

// Item is a document reference paired with its parsed creation date.
type Item struct {
	ID    string    `json:"path"`
	Title string    `json:"title,omitempty"`
	Date  time.Time `json:"date"`
}

// Selector is a fixed-capacity min-heap ordered by date. The root always
// holds the oldest retained item, so a full selector can decide in O(1)
// whether a candidate is worth keeping.
//
// A Selector is not safe for concurrent use.
type Selector struct {
	capacity int
	items    []Item
}

// New returns an empty selector that retains at most capacity items.
func New(capacity int) (*Selector, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("recency: capacity must be positive, got %d: %w", capacity, apperr.ErrInvalidConfiguration)
	}
	return &Selector{
		capacity: capacity,
		items:    make([]Item, 0, capacity),
	}, nil
}

// Len returns the number of retained items.
func (s *Selector) Len() int { return len(s.items) }

// Cap returns the fixed capacity.
func (s *Selector) Cap() int { return s.capacity }

// Peek returns the oldest retained item without removing it.
func (s *Selector) Peek() (Item, bool) {
	if len(s.items) == 0 {
		return Item{}, false
	}
	return s.items[0], true
}

// Insert offers an item to the selector and reports whether it was kept.
//
// While there is room every item is kept. Once full, the item replaces the
// current oldest only if it is strictly more recent; equal dates never
// displace what is already held.
func (s *Selector) Insert(it Item) bool {
	if len(s.items) < s.capacity {
		s.items = append(s.items, it)
		s.siftUp(len(s.items) - 1)
		return true
	}
	if !it.Date.After(s.items[0].Date) {
		return false
	}
	s.items[0] = it
	s.siftDown(0)
	return true
}

// EvictMin removes and returns the oldest retained item.
func (s *Selector) EvictMin() (Item, bool) {
	n := len(s.items)
	if n == 0 {
		return Item{}, false
	}
	root := s.items[0]
	s.items[0] = s.items[n-1]
	s.items[n-1] = Item{}
	s.items = s.items[:n-1]
	if len(s.items) > 0 {
		s.siftDown(0)
	}
	return root, true
}

// DrainSortedDescending empties the selector and returns its items from the
// most recent to the oldest.
func (s *Selector) DrainSortedDescending() []Item {
	out := make([]Item, len(s.items))
	for i := len(out) - 1; i >= 0; i-- {
		out[i], _ = s.EvictMin()
	}
	return out
}

// Items returns a copy of the retained items in internal heap order.
// Callers must not rely on that order for display.
func (s *Selector) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func parent(i int) int { return (i - 1) / 2 }
func left(i int) int   { return 2*i + 1 }
func right(i int) int  { return 2*i + 2 }

func (s *Selector) swap(i, j int) {
	s.items[i], s.items[j] = s.items[j], s.items[i]
}

func (s *Selector) siftUp(i int) {
	for i > 0 {
		p := parent(i)
		if !s.items[p].Date.After(s.items[i].Date) {
			return
		}
		s.swap(p, i)
		i = p
	}
}

func (s *Selector) siftDown(i int) {
	n := len(s.items)
	for left(i) < n {
		child := left(i)
		if r := right(i); r < n && s.items[r].Date.Before(s.items[child].Date) {
			child = r
		}
		if !s.items[child].Date.Before(s.items[i].Date) {
			return
		}
		s.swap(i, child)
		i = child
	}
}
