package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/activity/internal/event"
)

// Validate checks the config for:
//   - Required fields and positive limits
//   - Empty or duplicate tracked source names
//   - System event codes that map to something other than a system category
//   - A well-formed, ordered ingest window
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	if cfg.DailyCapHours <= 0 {
		errs = append(errs, fmt.Sprintf("daily_cap_hours must be > 0, got %v", cfg.DailyCapHours))
	}
	if cfg.Ingest.MaxFiles < 1 {
		errs = append(errs, fmt.Sprintf("ingest.max_files must be >= 1, got %d", cfg.Ingest.MaxFiles))
	}
	if cfg.Engine.Workers < 1 || cfg.Engine.QueueDepth < 1 {
		errs = append(errs, "engine.workers and engine.queue_depth must be >= 1")
	}

	seen := make(map[string]int)
	for i, src := range cfg.TrackedSources {
		if strings.TrimSpace(src) == "" {
			errs = append(errs, fmt.Sprintf("tracked_sources[%d]: name is required", i))
			continue
		}
		if prev, ok := seen[src]; ok {
			errs = append(errs, fmt.Sprintf("duplicate tracked source %q (first seen at %d, again at %d)", src, prev, i))
			continue
		}
		seen[src] = i
	}

	if _, err := cfg.SystemCodes(); err != nil {
		errs = append(errs, err.Error())
	}

	start, end, err := cfg.Window()
	if err != nil {
		errs = append(errs, err.Error())
	} else if cfg.Ingest.WindowStart != "" && cfg.Ingest.WindowEnd != "" && start > end {
		errs = append(errs, fmt.Sprintf("ingest window start %s is after end %s", cfg.Ingest.WindowStart, cfg.Ingest.WindowEnd))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// SystemCodes returns the code table for the classifier. An empty
// system_event_codes section selects the Security log defaults.
func (c *Config) SystemCodes() (map[int]event.Category, error) {
	if len(c.SystemEventCodes) == 0 {
		return event.DefaultSystemCodes(), nil
	}
	out := make(map[int]event.Category, len(c.SystemEventCodes))
	var bad []string
	for code, name := range c.SystemEventCodes {
		cat := event.Category(name)
		if !cat.IsSystem() {
			bad = append(bad, fmt.Sprintf("%d=%q", code, name))
			continue
		}
		out[code] = cat
	}
	if len(bad) > 0 {
		slices.Sort(bad)
		return nil, fmt.Errorf("system_event_codes: not a system category: %s", strings.Join(bad, ", "))
	}
	return out, nil
}

// Window returns the ingest time-of-day bounds as offsets from midnight.
// A missing bound is reported as 0 for start and 24h for end.
func (c *Config) Window() (start, end time.Duration, err error) {
	start, end = 0, 24*time.Hour
	if c.Ingest.WindowStart != "" {
		if start, err = ParseClock(c.Ingest.WindowStart); err != nil {
			return 0, 0, fmt.Errorf("ingest.window_start: %w", err)
		}
	}
	if c.Ingest.WindowEnd != "" {
		if end, err = ParseClock(c.Ingest.WindowEnd); err != nil {
			return 0, 0, fmt.Errorf("ingest.window_end: %w", err)
		}
	}
	return start, end, nil
}

// ParseClock parses "HH:MM" (or "HH:MM:SS") into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	layouts := []string{"15:04", "15:04:05"}
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid clock time %q (want HH:MM)", s)
}
