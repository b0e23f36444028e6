package classifier_test

import (
	"testing"

	"github.com/gyaneshwarpardhi/activity/internal/classifier"
	"github.com/gyaneshwarpardhi/activity/internal/event"
)

var officeSources = []string{"Outlook", "Teams", "WinWord", "PowerPoint", "MicrosoftEdge", "Excel", "Chrome", "ESENT"}

func TestClassify(t *testing.T) {
	c := classifier.New(officeSources, nil)

	cases := []struct {
		name   string
		source string
		code   int
		want   event.Category
	}{
		{"logon", "Microsoft-Windows-Security-Auditing", 4624, event.Logon},
		{"logoff", "Microsoft-Windows-Security-Auditing", 4634, event.Logoff},
		{"lock", "", 4800, event.Lock},
		{"unlock", "", 4801, event.Unlock},
		{"session connect", "", 4778, event.SessionConnect},
		{"session disconnect", "", 4779, event.SessionDisconnect},
		{"tracked app", "Outlook", 63, event.Category("OutlookEvent")},
		{"code beats source", "Outlook", 4624, event.Logon},
		{"untracked source", "Notepad", 1, event.Other},
		{"empty source", "", 1000, event.Other},
		{"case sensitive", "outlook", 63, event.Other},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Classify(tc.source, tc.code); got != tc.want {
				t.Errorf("Classify(%q, %d) = %q, want %q", tc.source, tc.code, got, tc.want)
			}
		})
	}
}

func TestClassify_CodeOverride(t *testing.T) {
	c := classifier.New([]string{"Teams"}, map[int]event.Category{1: event.Lock, 2: event.Unlock})

	if got := c.Classify("", 1); got != event.Lock {
		t.Errorf("code 1: got %q, want Lock", got)
	}
	// Overriding replaces the defaults entirely.
	if got := c.Classify("", 4624); got != event.Other {
		t.Errorf("code 4624 with override: got %q, want Other", got)
	}
}

func TestReportCategories(t *testing.T) {
	c := classifier.New([]string{"Teams", "Excel", "Teams", ""}, nil)

	got := c.ReportCategories()
	want := []event.Category{event.Logon, event.Lock, "TeamsEvent", "ExcelEvent"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if !c.Tracked("Excel") || c.Tracked("Word") {
		t.Errorf("Tracked mismatch")
	}
}
