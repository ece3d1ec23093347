// Package horizon computes relative time boundaries for one run and routes
// dated items to the selectors of the boundaries they satisfy.
package horizon

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/timemachine/internal/apperr"
)

// Unit is the calendar unit of an Offset.
type Unit int

const (
	Days Unit = iota
	Months
	Years
)

func (u Unit) String() string {
	switch u {
	case Days:
		return "days"
	case Months:
		return "months"
	case Years:
		return "years"
	}
	return fmt.Sprintf("unit(%d)", int(u))
}

// Offset is a relative duration measured in calendar units.
type Offset struct {
	Amount int  `json:"amount"`
	Unit   Unit `json:"-"`
}

func (o Offset) String() string {
	unit := o.Unit.String()
	if o.Amount == 1 {
		unit = strings.TrimSuffix(unit, "s")
	}
	return fmt.Sprintf("%d %s", o.Amount, unit)
}

// Before returns t moved back by the offset. Month and year offsets keep the
// time of day and clamp the day to the end of the target month, so one
// month before March 31 is the last day of February.
func (o Offset) Before(t time.Time) time.Time {
	switch o.Unit {
	case Months:
		return subtractMonths(t, o.Amount)
	case Years:
		return subtractMonths(t, 12*o.Amount)
	default:
		return t.AddDate(0, 0, -o.Amount)
	}
}

func subtractMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, -n, 0)
	if last := daysIn(target.Year(), target.Month(), t.Location()); d > last {
		d = last
	}
	return target.AddDate(0, 0, d-1)
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}

// Spec names one catalog horizon.
type Spec struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Offset Offset `json:"offset"`
}

// Catalog lists every supported horizon in display order.
var Catalog = []Spec{
	{Key: "week", Label: "A Week Ago", Offset: Offset{Amount: 7, Unit: Days}},
	{Key: "two_weeks", Label: "Two Weeks Ago", Offset: Offset{Amount: 14, Unit: Days}},
	{Key: "month", Label: "A Month Ago", Offset: Offset{Amount: 1, Unit: Months}},
	{Key: "six_months", Label: "Six Months Ago", Offset: Offset{Amount: 6, Unit: Months}},
	{Key: "year", Label: "A Year Ago", Offset: Offset{Amount: 1, Unit: Years}},
	{Key: "two_years", Label: "Two Years Ago", Offset: Offset{Amount: 2, Unit: Years}},
	{Key: "five_years", Label: "5 Years Ago", Offset: Offset{Amount: 5, Unit: Years}},
	{Key: "ten_years", Label: "10 Years Ago", Offset: Offset{Amount: 10, Unit: Years}},
}

// DefaultKeys are the horizons enabled out of the box.
var DefaultKeys = []string{"week", "month", "year", "five_years"}

// Keys returns every catalog key.
func Keys() []string {
	out := make([]string, len(Catalog))
	for i, s := range Catalog {
		out[i] = s.Key
	}
	return out
}

// Lookup finds a catalog horizon by key.
func Lookup(key string) (Spec, bool) {
	for _, s := range Catalog {
		if s.Key == key {
			return s, true
		}
	}
	return Spec{}, false
}

// Resolve maps configured keys onto catalog specs, keeping their order.
func Resolve(keys []string) ([]Spec, error) {
	out := make([]Spec, 0, len(keys))
	for _, k := range keys {
		s, ok := Lookup(k)
		if !ok {
			return nil, fmt.Errorf("horizon: unknown horizon %q: %w", k, apperr.ErrInvalidConfiguration)
		}
		out = append(out, s)
	}
	return out, nil
}
