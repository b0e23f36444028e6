package session_test

import (
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/activity/internal/event"
	"github.com/gyaneshwarpardhi/activity/internal/session"
)

const outlook = event.Category("OutlookEvent")

func at(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		t.Fatalf("bad timestamp %q: %v", s, err)
	}
	return ts
}

func tagged(t *testing.T, s string, c event.Category) event.Tagged {
	t.Helper()
	return event.Tagged{Timestamp: at(t, s), Category: c}
}

func TestReconstruct_LogonLogoff(t *testing.T) {
	got := session.Reconstruct("u", []event.Tagged{
		tagged(t, "2024-05-06 08:00", event.Logon),
		tagged(t, "2024-05-06 17:00", event.Logoff),
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 emission, got %d", len(got))
	}
	if got[0].Category != event.Logon || got[0].Duration != 9*time.Hour {
		t.Errorf("unexpected emission %+v", got[0])
	}
}

func TestReconstruct_SessionConnectSharesLogonTimer(t *testing.T) {
	got := session.Reconstruct("u", []event.Tagged{
		tagged(t, "2024-05-06 09:00", event.SessionConnect),
		tagged(t, "2024-05-06 10:30", event.Logoff),
		tagged(t, "2024-05-06 11:00", event.Logon),
		tagged(t, "2024-05-06 11:45", event.SessionDisconnect),
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 emissions, got %d", len(got))
	}
	if got[0].Duration != 90*time.Minute || got[1].Duration != 45*time.Minute {
		t.Errorf("unexpected durations %v, %v", got[0].Duration, got[1].Duration)
	}
	for _, em := range got {
		if em.Category != event.Logon {
			t.Errorf("expected Logon bucket, got %q", em.Category)
		}
	}
}

func TestReconstruct_MidnightSpanUsesOpeningDate(t *testing.T) {
	got := session.Reconstruct("u", []event.Tagged{
		tagged(t, "2024-05-06 23:50", event.Logon),
		tagged(t, "2024-05-07 00:10", event.Logoff),
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 emission, got %d", len(got))
	}
	want := event.Date{Year: 2024, Month: time.May, Day: 6}
	if got[0].Date != want {
		t.Errorf("date = %v, want %v", got[0].Date, want)
	}
	if got[0].Duration != 20*time.Minute {
		t.Errorf("duration = %v, want 20m", got[0].Duration)
	}
}

func TestReconstruct_Toggle(t *testing.T) {
	r := session.New("u")

	steps := []struct {
		ts      string
		outcome session.Outcome
	}{
		{"2024-05-06 08:30", session.Opened},
		{"2024-05-06 09:00", session.Closed},
		{"2024-05-06 10:00", session.Opened},
		{"2024-05-06 10:15", session.Closed},
	}
	var total time.Duration
	for i, st := range steps {
		em, outcome := r.Apply(tagged(t, st.ts, outlook))
		if outcome != st.outcome {
			t.Fatalf("step %d: outcome %v, want %v", i, outcome, st.outcome)
		}
		if outcome == session.Closed {
			total += em.Duration
		}
	}
	if total != 45*time.Minute {
		t.Errorf("total = %v, want 45m", total)
	}
}

func TestReconstruct_UnpairedCloseIsNoop(t *testing.T) {
	r := session.New("u")
	if _, outcome := r.Apply(tagged(t, "2024-05-06 08:00", event.Unlock)); outcome != session.UnpairedClose {
		t.Errorf("unlock without lock: outcome %v", outcome)
	}
	if _, outcome := r.Apply(tagged(t, "2024-05-06 08:01", event.Logoff)); outcome != session.UnpairedClose {
		t.Errorf("logoff without logon: outcome %v", outcome)
	}
	if len(r.Pending()) != 0 {
		t.Errorf("expected no pending timers, got %v", r.Pending())
	}
}

func TestReconstruct_OverwriteDiscardsEarlierOpen(t *testing.T) {
	r := session.New("u")
	r.Apply(tagged(t, "2024-05-06 12:00", event.Lock))
	if _, outcome := r.Apply(tagged(t, "2024-05-06 12:30", event.Lock)); outcome != session.Overwrote {
		t.Fatalf("second lock: outcome %v, want overwrote", outcome)
	}
	em, outcome := r.Apply(tagged(t, "2024-05-06 13:00", event.Unlock))
	if outcome != session.Closed || em.Duration != 30*time.Minute || em.Category != event.Lock {
		t.Errorf("unexpected close %+v (%v)", em, outcome)
	}
}

func TestReconstruct_OtherIgnored(t *testing.T) {
	r := session.New("u")
	if _, outcome := r.Apply(tagged(t, "2024-05-06 08:00", event.Other)); outcome != session.Ignored {
		t.Errorf("Other: outcome %v", outcome)
	}
	if len(r.Pending()) != 0 {
		t.Errorf("Other must not open a timer")
	}
}

func TestReconstruct_CategoriesAreIndependent(t *testing.T) {
	got := session.Reconstruct("u", []event.Tagged{
		tagged(t, "2024-05-06 08:00", event.Logon),
		tagged(t, "2024-05-06 08:10", outlook),
		tagged(t, "2024-05-06 08:20", event.Lock),
		tagged(t, "2024-05-06 08:40", event.Unlock),
		tagged(t, "2024-05-06 08:50", outlook),
		tagged(t, "2024-05-06 09:00", event.Logoff),
	})
	want := map[event.Category]time.Duration{
		event.Lock:  20 * time.Minute,
		outlook:     40 * time.Minute,
		event.Logon: time.Hour,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d emissions, got %d", len(want), len(got))
	}
	for _, em := range got {
		if em.Duration != want[em.Category] {
			t.Errorf("%s: %v, want %v", em.Category, em.Duration, want[em.Category])
		}
		if em.Duration < 0 {
			t.Errorf("%s: negative duration", em.Category)
		}
	}
}
