package config

// Config is the top-level YAML structure.
type Config struct {
	Version          string         `yaml:"version" json:"version"`
	User             string         `yaml:"user" json:"user"`
	TrackedSources   []string       `yaml:"tracked_sources" json:"tracked_sources"`
	DailyCapHours    float64        `yaml:"daily_cap_hours" json:"daily_cap_hours"`
	SystemEventCodes map[int]string `yaml:"system_event_codes" json:"system_event_codes"` // empty = Security log defaults
	Ingest           IngestConf     `yaml:"ingest" json:"ingest"`
	Engine           EngineConf     `yaml:"engine" json:"engine"`
	LogLevel         string         `yaml:"log_level" json:"log_level"`
}

// IngestConf controls how raw exports are turned into records.
type IngestConf struct {
	WindowStart string `yaml:"window_start" json:"window_start"` // "HH:MM", empty = no lower bound
	WindowEnd   string `yaml:"window_end" json:"window_end"`     // "HH:MM", empty = no upper bound
	MaxFiles    int    `yaml:"max_files" json:"max_files"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	Workers      int `yaml:"workers" json:"workers"`
	QueueDepth   int `yaml:"queue_depth" json:"queue_depth"`
	JobTimeoutMs int `yaml:"job_timeout_ms" json:"job_timeout_ms"`
	MaxJobs      int `yaml:"max_jobs" json:"max_jobs"`
}

// DefaultTrackedSources are the applications whose events toggle activity.
var DefaultTrackedSources = []string{
	"Outlook", "Teams", "WinWord", "PowerPoint", "MicrosoftEdge", "Excel", "Chrome", "ESENT",
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{Version: "v1"}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.User == "" {
		cfg.User = "user"
	}
	if cfg.TrackedSources == nil {
		cfg.TrackedSources = append([]string(nil), DefaultTrackedSources...)
	}
	if cfg.DailyCapHours == 0 {
		cfg.DailyCapHours = 7
	}
	if cfg.Ingest.MaxFiles == 0 {
		cfg.Ingest.MaxFiles = 3
	}
	if cfg.Engine.Workers == 0 {
		cfg.Engine.Workers = 4
	}
	if cfg.Engine.QueueDepth == 0 {
		cfg.Engine.QueueDepth = 64
	}
	if cfg.Engine.JobTimeoutMs == 0 {
		cfg.Engine.JobTimeoutMs = 30000
	}
	if cfg.Engine.MaxJobs == 0 {
		cfg.Engine.MaxJobs = 256
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}
