package recency

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/starford/timemachine/internal/apperr"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func item(id, date string) Item {
	return Item{ID: id, Date: day(date)}
}

func mustNew(t *testing.T, capacity int) *Selector {
	t.Helper()
	s, err := New(capacity)
	if err != nil {
		t.Fatalf("New(%d): %v", capacity, err)
	}
	return s
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestNew_NonPositiveCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		s, err := New(c)
		if err == nil {
			t.Fatalf("New(%d) should fail", c)
		}
		if !errors.Is(err, apperr.ErrInvalidConfiguration) {
			t.Errorf("New(%d) error = %v, want ErrInvalidConfiguration", c, err)
		}
		if s != nil {
			t.Errorf("New(%d) returned a selector", c)
		}
	}
}

func TestPeek_Empty(t *testing.T) {
	s := mustNew(t, 2)
	if _, ok := s.Peek(); ok {
		t.Error("peek on empty selector should report empty")
	}
	if _, ok := s.EvictMin(); ok {
		t.Error("evict on empty selector should report empty")
	}
}

func TestInsert_KeepsMostRecent(t *testing.T) {
	s := mustNew(t, 3)
	s.Insert(item("a.md", "2020-01-01"))
	s.Insert(item("b.md", "2021-01-01"))
	s.Insert(item("c.md", "2022-01-01"))
	s.Insert(item("d.md", "2023-01-01"))

	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
	top, ok := s.Peek()
	if !ok || top.ID != "b.md" {
		t.Errorf("peek = %v, want b.md", top)
	}
	got := ids(s.DrainSortedDescending())
	want := []string{"d.md", "c.md", "b.md"}
	if !slices.Equal(got, want) {
		t.Errorf("drain = %v, want %v", got, want)
	}
	if s.Len() != 0 {
		t.Errorf("len after drain = %d, want 0", s.Len())
	}
}

func TestInsert_RejectsOlderWhenFull(t *testing.T) {
	s := mustNew(t, 2)
	s.Insert(item("a.md", "2021-01-01"))
	s.Insert(item("b.md", "2022-01-01"))

	if s.Insert(item("old.md", "2020-01-01")) {
		t.Error("older item should be rejected")
	}
	got := ids(s.Items())
	slices.Sort(got)
	if !slices.Equal(got, []string{"a.md", "b.md"}) {
		t.Errorf("held = %v, want [a.md b.md]", got)
	}
}

func TestInsert_TiesDoNotDisplace(t *testing.T) {
	s := mustNew(t, 2)
	s.Insert(item("first.md", "2021-01-01"))
	s.Insert(item("second.md", "2022-01-01"))

	if s.Insert(item("tie.md", "2021-01-01")) {
		t.Error("item equal to the oldest should be rejected")
	}
	top, _ := s.Peek()
	if top.ID != "first.md" {
		t.Errorf("peek = %s, want first.md", top.ID)
	}
}

func TestInsert_SingleSlot(t *testing.T) {
	s := mustNew(t, 1)
	s.Insert(item("mid.md", "2021-06-01"))

	if s.Insert(item("older.md", "2021-01-01")) {
		t.Error("older item should be rejected")
	}
	if top, _ := s.Peek(); top.ID != "mid.md" {
		t.Errorf("peek = %s, want mid.md", top.ID)
	}
	if !s.Insert(item("newer.md", "2022-01-01")) {
		t.Error("newer item should replace the held one")
	}
	if top, _ := s.Peek(); top.ID != "newer.md" {
		t.Errorf("peek = %s, want newer.md", top.ID)
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
}

func TestEvictMin_ReturnsOldest(t *testing.T) {
	s := mustNew(t, 2)
	s.Insert(item("a.md", "2021-01-01"))
	s.Insert(item("b.md", "2022-01-01"))

	got, ok := s.EvictMin()
	if !ok || got.ID != "a.md" {
		t.Errorf("evicted = %v, want a.md", got)
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
}

func TestCapacityInvariant(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	s := mustNew(t, 5)
	base := day("2000-01-01")
	full := false
	for i := 0; i < 500; i++ {
		s.Insert(Item{ID: "x", Date: base.AddDate(0, 0, rng.IntN(5000))})
		if s.Len() > s.Cap() {
			t.Fatalf("len %d exceeds capacity %d", s.Len(), s.Cap())
		}
		if full && s.Len() != s.Cap() {
			t.Fatalf("len dropped to %d after reaching capacity", s.Len())
		}
		full = s.Len() == s.Cap()
	}
}

func TestHeapOrder(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	s := mustNew(t, 16)
	base := day("2010-01-01")
	for i := 0; i < 200; i++ {
		s.Insert(Item{Date: base.AddDate(0, 0, rng.IntN(3000))})
		for j := 1; j < len(s.items); j++ {
			if s.items[parent(j)].Date.After(s.items[j].Date) {
				t.Fatalf("heap order violated at %d after %d inserts", j, i+1)
			}
		}
	}
}

func TestTopN_MatchesSort(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	base := day("2015-01-01")

	var all []Item
	for i, off := range rng.Perm(300) {
		all = append(all, Item{ID: string(rune('a' + i%26)), Date: base.AddDate(0, 0, off)})
	}

	s := mustNew(t, 7)
	for _, it := range all {
		s.Insert(it)
	}

	want := slices.Clone(all)
	slices.SortFunc(want, func(a, b Item) int { return b.Date.Compare(a.Date) })
	want = want[:7]

	got := s.DrainSortedDescending()
	for i := range want {
		if !got[i].Date.Equal(want[i].Date) {
			t.Fatalf("position %d: got %s, want %s", i, got[i].Date, want[i].Date)
		}
	}
}

func TestOrderIndependence(t *testing.T) {
	base := day("2019-01-01")
	items := make([]Item, 40)
	for i := range items {
		items[i] = Item{ID: base.AddDate(0, 0, i*3).Format("2006-01-02"), Date: base.AddDate(0, 0, i*3)}
	}

	held := func(seq []Item) []string {
		s := mustNew(t, 6)
		for _, it := range seq {
			s.Insert(it)
		}
		out := ids(s.Items())
		slices.Sort(out)
		return out
	}

	want := held(items)
	rng := rand.New(rand.NewPCG(7, 8))
	for round := 0; round < 20; round++ {
		perm := slices.Clone(items)
		rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		if got := held(perm); !slices.Equal(got, want) {
			t.Fatalf("round %d: held %v, want %v", round, got, want)
		}
	}
}

func TestMonotonicPeek(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	s := mustNew(t, 4)
	base := day("2001-01-01")
	for i := 0; i < 300; i++ {
		before, full := s.Peek()
		full = full && s.Len() == s.Cap()
		if !s.Insert(Item{Date: base.AddDate(0, 0, rng.IntN(4000))}) || !full {
			continue
		}
		after, _ := s.Peek()
		if after.Date.Before(before.Date) {
			t.Fatalf("peek went backwards: %s -> %s", before.Date, after.Date)
		}
	}
}
