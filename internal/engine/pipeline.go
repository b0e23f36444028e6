package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/gyaneshwarpardhi/activity/internal/aggregate"
	"github.com/gyaneshwarpardhi/activity/internal/classifier"
	"github.com/gyaneshwarpardhi/activity/internal/config"
	"github.com/gyaneshwarpardhi/activity/internal/event"
	"github.com/gyaneshwarpardhi/activity/internal/ingest"
	"github.com/gyaneshwarpardhi/activity/internal/report"
	"github.com/gyaneshwarpardhi/activity/internal/session"
)

// Settings is the immutable engine configuration for one analysis.
type Settings struct {
	User       string
	CapHours   float64
	Classifier *classifier.Classifier
	Ingest     ingest.Options
}

// SettingsFromConfig builds Settings from a validated config.
func SettingsFromConfig(cfg *config.Config) (*Settings, error) {
	codes, err := cfg.SystemCodes()
	if err != nil {
		return nil, err
	}
	start, end, err := cfg.Window()
	if err != nil {
		return nil, err
	}
	if cfg.DailyCapHours <= 0 {
		return nil, fmt.Errorf("daily cap must be positive, got %v", cfg.DailyCapHours)
	}
	opts := ingest.Options{WindowStart: start, MaxFiles: cfg.Ingest.MaxFiles}
	if cfg.Ingest.WindowEnd != "" {
		opts.WindowEnd = end
	}
	return &Settings{
		User:       cfg.User,
		CapHours:   cfg.DailyCapHours,
		Classifier: classifier.New(cfg.TrackedSources, codes),
		Ingest:     opts,
	}, nil
}

// Summary describes how an event stream was consumed.
type Summary struct {
	Events         int                    `json:"events"`
	Dropped        int                    `json:"dropped"` // classified Other
	ByCategory     map[event.Category]int `json:"by_category"`
	Emissions      int                    `json:"emissions"`
	Overwrites     int                    `json:"overwrites"`
	UnpairedCloses int                    `json:"unpaired_closes"`
	DaysCapped     int                    `json:"days_capped"`
	PendingAtEnd   []event.Category       `json:"pending_at_end,omitempty"`
	RelevantCodes  []int                  `json:"relevant_codes,omitempty"` // distinct codes seen from tracked sources
	EmittedBy      map[event.Category]int `json:"-"`
	OverwrittenBy  map[event.Category]int `json:"-"`
}

// Analyze runs the full reconstruction for one user's records, which must
// already be in non-decreasing timestamp order. It has no side effects.
func Analyze(s *Settings, user string, recs []event.Record) (*report.Report, Summary) {
	if user == "" {
		user = s.User
	}
	sum := Summary{
		Events:        len(recs),
		ByCategory:    make(map[event.Category]int),
		EmittedBy:     make(map[event.Category]int),
		OverwrittenBy: make(map[event.Category]int),
	}
	categories := s.Classifier.ReportCategories()
	recon := session.New(user)
	agg := aggregate.New(categories)
	codes := make(map[int]struct{})

	for _, rec := range recs {
		cat := s.Classifier.Classify(rec.Source, rec.Code)
		if s.Classifier.Tracked(rec.Source) {
			codes[rec.Code] = struct{}{}
		}
		if cat == event.Other {
			sum.Dropped++
			continue
		}
		sum.ByCategory[cat]++
		agg.Observe(event.DateOf(rec.Timestamp))

		em, outcome := recon.Apply(event.Tagged{Timestamp: rec.Timestamp, Category: cat})
		switch outcome {
		case session.Closed:
			agg.Add(em)
			sum.Emissions++
			sum.EmittedBy[em.Category]++
		case session.Overwrote:
			sum.Overwrites++
			sum.OverwrittenBy[timerOf(cat)]++
		case session.UnpairedClose:
			sum.UnpairedCloses++
		}
	}

	hours, capped := agg.Hours(s.CapHours)
	sum.DaysCapped = capped
	sum.PendingAtEnd = recon.Pending()
	slices.Sort(sum.PendingAtEnd)
	for c := range codes {
		sum.RelevantCodes = append(sum.RelevantCodes, c)
	}
	slices.Sort(sum.RelevantCodes)

	rep := report.New(s.CapHours, categories)
	rep.Add(user, hours)
	return rep, sum
}

// timerOf returns the timer a category opens.
func timerOf(c event.Category) event.Category {
	if c == event.SessionConnect {
		return event.Logon
	}
	return c
}

// Result is what one analysis job produces.
type Result struct {
	Report     *report.Report `json:"report"`
	Summary    Summary        `json:"summary"`
	Ingest     ingest.Stats   `json:"ingest"`
	DurationMs int64          `json:"duration_ms"`
}

// Request is the input of one analysis job.
type Request struct {
	User    string
	Records []event.Record
	Ingest  ingest.Stats
}

func run(s *Settings, req *Request) *Result {
	start := time.Now()
	rep, sum := Analyze(s, req.User, req.Records)
	return &Result{
		Report:     rep,
		Summary:    sum,
		Ingest:     req.Ingest,
		DurationMs: time.Since(start).Milliseconds(),
	}
}
