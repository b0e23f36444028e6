package session

import (
	"time"

	"github.com/gyaneshwarpardhi/activity/internal/event"
)

// Emission is one closed interval, bucketed to the day its open event fell on.
type Emission struct {
	Date     event.Date     `json:"date"`
	Category event.Category `json:"category"`
	Duration time.Duration  `json:"duration"`
}

// Outcome describes what a single Apply call did to the timer state.
type Outcome int

const (
	Ignored       Outcome = iota // Other, or an unknown category
	Opened                       // timer set, nothing pending before
	Overwrote                    // timer reset while a previous open was pending
	Closed                       // pending timer closed, emission produced
	UnpairedClose                // close event with nothing pending
)

func (o Outcome) String() string {
	switch o {
	case Opened:
		return "opened"
	case Overwrote:
		return "overwrote"
	case Closed:
		return "closed"
	case UnpairedClose:
		return "unpaired_close"
	default:
		return "ignored"
	}
}

// Reconstructor walks one user's time-ordered event stream and turns
// open/close pairs into emissions. It is not safe for concurrent use;
// give every stream its own instance.
type Reconstructor struct {
	user   string
	timers map[event.Category]time.Time
}

// New returns a Reconstructor with no pending timers.
func New(user string) *Reconstructor {
	return &Reconstructor{user: user, timers: make(map[event.Category]time.Time)}
}

// User returns the identifier this stream is attributed to.
func (r *Reconstructor) User() string { return r.user }

// Apply feeds the next event. Events must arrive in non-decreasing
// timestamp order; the returned Emission is only meaningful when the
// outcome is Closed.
//
// Logon and SessionConnect share the Logon timer, closed by Logoff or
// SessionDisconnect. Lock is closed by Unlock. Every other non-Other
// category toggles its own timer.
func (r *Reconstructor) Apply(ev event.Tagged) (Emission, Outcome) {
	switch ev.Category {
	case event.Logon, event.SessionConnect:
		return Emission{}, r.open(event.Logon, ev.Timestamp)
	case event.Logoff, event.SessionDisconnect:
		return r.close(event.Logon, ev.Timestamp)
	case event.Lock:
		return Emission{}, r.open(event.Lock, ev.Timestamp)
	case event.Unlock:
		return r.close(event.Lock, ev.Timestamp)
	case event.Other, "":
		return Emission{}, Ignored
	}
	if _, pending := r.timers[ev.Category]; pending {
		return r.close(ev.Category, ev.Timestamp)
	}
	return Emission{}, r.open(ev.Category, ev.Timestamp)
}

// Pending returns the categories whose timer is still open.
func (r *Reconstructor) Pending() []event.Category {
	out := make([]event.Category, 0, len(r.timers))
	for cat := range r.timers {
		out = append(out, cat)
	}
	return out
}

func (r *Reconstructor) open(cat event.Category, ts time.Time) Outcome {
	_, pending := r.timers[cat]
	r.timers[cat] = ts
	if pending {
		return Overwrote
	}
	return Opened
}

func (r *Reconstructor) close(cat event.Category, ts time.Time) (Emission, Outcome) {
	start, pending := r.timers[cat]
	if !pending {
		return Emission{}, UnpairedClose
	}
	delete(r.timers, cat)
	return Emission{
		Date:     event.DateOf(start),
		Category: cat,
		Duration: ts.Sub(start),
	}, Closed
}

// Reconstruct runs a fresh Reconstructor over events and collects every
// emission in order.
func Reconstruct(user string, events []event.Tagged) []Emission {
	r := New(user)
	var out []Emission
	for _, ev := range events {
		if em, outcome := r.Apply(ev); outcome == Closed {
			out = append(out, em)
		}
	}
	return out
}
