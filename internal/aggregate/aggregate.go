package aggregate

import (
	"math"
	"time"

	"github.com/gyaneshwarpardhi/activity/internal/event"
	"github.com/gyaneshwarpardhi/activity/internal/session"
)

// DefaultCapHours is the daily activity ceiling used when none is configured.
const DefaultCapHours = 7.0

// capEpsilon absorbs float rounding so that re-capping a capped day is a no-op.
const capEpsilon = 1e-9

// Day maps a category to its value for one date.
type Day map[event.Category]float64

// DailyHours is the per-date, per-category breakdown in fractional hours.
type DailyHours map[event.Date]Day

// Aggregator folds emissions into a per-date duration table.
// It is not safe for concurrent use.
type Aggregator struct {
	categories []event.Category
	days       map[event.Date]map[event.Category]time.Duration
}

// New returns an Aggregator whose rows always carry every category in
// categories, zero when nothing accumulated.
func New(categories []event.Category) *Aggregator {
	return &Aggregator{
		categories: append([]event.Category(nil), categories...),
		days:       make(map[event.Date]map[event.Category]time.Duration),
	}
}

// Observe makes sure d has a row, so that days with events but no closed
// intervals still show up as all-zero.
func (a *Aggregator) Observe(d event.Date) {
	a.row(d)
}

// Add accumulates one emission. Non-positive durations are ignored.
func (a *Aggregator) Add(em session.Emission) {
	if em.Duration <= 0 {
		a.row(em.Date)
		return
	}
	a.row(em.Date)[em.Category] += em.Duration
}

// Duration returns the accumulated pre-cap duration for (d, c).
func (a *Aggregator) Duration(d event.Date, c event.Category) time.Duration {
	return a.days[d][c]
}

// Dates returns the number of days seen so far.
func (a *Aggregator) Dates() int { return len(a.days) }

// Hours converts the table to fractional hours, capping every day's total
// at capHours and clamping each value to [0, capHours]. It returns the
// result and the number of days that had to be scaled down.
func (a *Aggregator) Hours(capHours float64) (DailyHours, int) {
	out := make(DailyHours, len(a.days))
	capped := 0
	for date, row := range a.days {
		day := make(Day, len(row))
		for cat, d := range row {
			day[cat] = d.Hours()
		}
		if CapDay(day, capHours) {
			capped++
		}
		out[date] = day
	}
	return out, capped
}

func (a *Aggregator) row(d event.Date) map[event.Category]time.Duration {
	row, ok := a.days[d]
	if !ok {
		row = make(map[event.Category]time.Duration, len(a.categories))
		for _, c := range a.categories {
			row[c] = 0
		}
		a.days[d] = row
	}
	return row
}

// CapDay scales day in place so its total does not exceed capHours,
// preserving the ratio between categories, then clamps every value to
// [0, capHours]. It reports whether scaling was applied. A zero-total day
// is left untouched.
func CapDay(day Day, capHours float64) bool {
	var sum float64
	for _, v := range day {
		sum += v
	}
	scaled := false
	if sum-capHours > capEpsilon {
		factor := capHours / sum
		for c, v := range day {
			day[c] = v * factor
		}
		scaled = true
	}
	for c, v := range day {
		day[c] = math.Min(math.Max(v, 0), capHours)
	}
	return scaled
}

// Total returns the sum of a day's values.
func (d Day) Total() float64 {
	var sum float64
	for _, v := range d {
		sum += v
	}
	return sum
}
