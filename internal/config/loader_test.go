package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/activity/internal/config"
	"github.com/gyaneshwarpardhi/activity/internal/event"
)

const sampleYAML = `
version: v1
user: Andrea
tracked_sources: [Outlook, Teams]
daily_cap_hours: 8
system_event_codes:
  4624: Logon
  4634: Logoff
ingest:
  window_start: "07:00"
  window_end: "19:00"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "activity.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoader_AppliesDefaults(t *testing.T) {
	l, err := config.NewLoader(writeConfig(t, "version: v1\n"))
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	cfg := l.Config()
	if cfg.DailyCapHours != 7 {
		t.Errorf("cap = %v, want 7", cfg.DailyCapHours)
	}
	if cfg.User != "user" || cfg.Ingest.MaxFiles != 3 || cfg.Engine.Workers != 4 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if len(cfg.TrackedSources) != len(config.DefaultTrackedSources) {
		t.Errorf("tracked sources = %v", cfg.TrackedSources)
	}
	if err := config.Validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoader_ParsesFullConfig(t *testing.T) {
	l, err := config.NewLoader(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	cfg := l.Config()
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	codes, err := cfg.SystemCodes()
	if err != nil {
		t.Fatalf("SystemCodes: %v", err)
	}
	if len(codes) != 2 || codes[4634] != event.Logoff {
		t.Errorf("codes = %v", codes)
	}
	start, end, err := cfg.Window()
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if start != 7*time.Hour || end != 19*time.Hour {
		t.Errorf("window = %v..%v", start, end)
	}
}

func TestLoader_ReloadNotifies(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	l, err := config.NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	var got *config.Config
	l.OnChange(func(c *config.Config) { got = c })

	if err := os.WriteFile(path, []byte(strings.Replace(sampleYAML, "daily_cap_hours: 8", "daily_cap_hours: 6", 1)), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if _, err := l.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got == nil || got.DailyCapHours != 6 {
		t.Fatalf("callback not invoked with new config: %+v", got)
	}
	if l.Config().DailyCapHours != 6 {
		t.Errorf("current config not swapped")
	}
}

func TestLoader_RejectsInvalidReload(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	l, err := config.NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if err := os.WriteFile(path, []byte("version: v1\ndaily_cap_hours: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err == nil {
		t.Fatal("expected validation error")
	}
	if l.Config().DailyCapHours != 8 {
		t.Errorf("invalid config was published: %+v", l.Config())
	}
}

func TestLoader_MissingFile(t *testing.T) {
	if _, err := config.NewLoader(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"missing version", func(c *config.Config) { c.Version = "" }, "version is required"},
		{"negative cap", func(c *config.Config) { c.DailyCapHours = -1 }, "daily_cap_hours"},
		{"duplicate source", func(c *config.Config) { c.TrackedSources = []string{"Teams", "Teams"} }, "duplicate tracked source"},
		{"empty source", func(c *config.Config) { c.TrackedSources = []string{" "} }, "name is required"},
		{"valid override", func(c *config.Config) { c.SystemEventCodes = map[int]string{7001: "Logon"} }, ""},
		{"bad code category", func(c *config.Config) { c.SystemEventCodes = map[int]string{1: "Outlook"} }, "not a system category"},
		{"bad window", func(c *config.Config) { c.Ingest.WindowStart = "7am" }, "window_start"},
		{"reversed window", func(c *config.Config) { c.Ingest.WindowStart, c.Ingest.WindowEnd = "19:00", "07:00" }, "is after end"},
		{"negative max files", func(c *config.Config) { c.Ingest.MaxFiles = -1 }, "max_files"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(cfg)
			err := config.Validate(cfg)
			if tc.want == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %v, want substring %q", err, tc.want)
			}
		})
	}
}

func TestLoader_ShippedConfig(t *testing.T) {
	l, err := config.NewLoader(filepath.Join("..", "..", "configs", "activity.yaml"))
	if err != nil {
		t.Fatalf("shipped config rejected: %v", err)
	}
	cfg := l.Config()
	if cfg.DailyCapHours != 7 || cfg.Ingest.MaxFiles != 3 {
		t.Errorf("unexpected shipped defaults: cap=%v max_files=%d", cfg.DailyCapHours, cfg.Ingest.MaxFiles)
	}
	start, end, err := cfg.Window()
	if err != nil || start != 7*time.Hour || end != 19*time.Hour {
		t.Errorf("window = %v..%v, %v", start, end, err)
	}
}
