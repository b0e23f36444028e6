package report

import (
	"slices"

	"github.com/gyaneshwarpardhi/activity/internal/aggregate"
	"github.com/gyaneshwarpardhi/activity/internal/event"
)

// Report is the handoff artifact for renderers: per user, per date, per
// category fractional hours.
type Report struct {
	CapHours   float64                         `json:"cap_hours"`
	Categories []event.Category                `json:"categories"` // stacking order
	Users      map[string]aggregate.DailyHours `json:"users"`
}

// New returns an empty report for the given cap and category order.
func New(capHours float64, categories []event.Category) *Report {
	return &Report{
		CapHours:   capHours,
		Categories: append([]event.Category(nil), categories...),
		Users:      make(map[string]aggregate.DailyHours),
	}
}

// Add attaches a user's table, replacing any previous one.
func (r *Report) Add(user string, hours aggregate.DailyHours) {
	r.Users[user] = hours
}

// UserIDs returns the users in lexical order.
func (r *Report) UserIDs() []string {
	out := make([]string, 0, len(r.Users))
	for u := range r.Users {
		out = append(out, u)
	}
	slices.Sort(out)
	return out
}

// Dates returns the user's dates in calendar order.
func (r *Report) Dates(user string) []event.Date {
	days := r.Users[user]
	out := make([]event.Date, 0, len(days))
	for d := range days {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b event.Date) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	return out
}

// Hours returns the value for (user, date, category), zero when absent.
func (r *Report) Hours(user string, d event.Date, c event.Category) float64 {
	return r.Users[user][d][c]
}

// Empty reports whether no user has any dated row.
func (r *Report) Empty() bool {
	for _, days := range r.Users {
		if len(days) > 0 {
			return false
		}
	}
	return true
}
