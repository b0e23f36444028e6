package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/activity/internal/api"
	"github.com/gyaneshwarpardhi/activity/internal/config"
	"github.com/gyaneshwarpardhi/activity/internal/engine"
)

const testConfig = `
version: v1
user: andrea
tracked_sources: [Outlook]
daily_cap_hours: 7
engine:
  workers: 1
  queue_depth: 4
  job_timeout_ms: 5000
`

func newServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "activity.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	loader, err := config.NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	cfg := loader.Config()
	s, err := engine.SettingsFromConfig(cfg)
	if err != nil {
		t.Fatalf("SettingsFromConfig: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	eng := engine.New(ctx, s, cfg.Engine)
	srv := httptest.NewServer(api.New(eng, loader))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		eng.Shutdown()
	})
	return srv, path
}

type reportResponse struct {
	Report struct {
		CapHours float64                                  `json:"cap_hours"`
		Users    map[string]map[string]map[string]float64 `json:"users"`
	} `json:"report"`
	Summary engine.Summary `json:"summary"`
	Ingest  struct {
		Read      int `json:"read"`
		Malformed int `json:"malformed"`
		Kept      int `json:"kept"`
	} `json:"ingest"`
}

func post(t *testing.T, url, contentType, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, contentType, strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestBuildReport_JSONEnvelope(t *testing.T) {
	srv, _ := newServer(t)

	body := `{"records":[
		{"timestamp":"2024-05-06 08:00:00","source":"Microsoft-Windows-Security-Auditing","code":4624},
		{"timestamp":"2024-05-06 08:30:00","source":"Outlook","code":"63"},
		{"timestamp":"2024-05-06 09:00:00","source":"Outlook","code":63},
		{"timestamp":"2024-05-06 17:00:00","source":"Microsoft-Windows-Security-Auditing","code":4634},
		{"timestamp":"bogus","code":1}
	]}`
	resp := post(t, srv.URL+"/v1/reports", "application/json", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	day := out.Report.Users["andrea"]["2024-05-06"]
	if total := day["Logon"] + day["OutlookEvent"]; total < 6.999 || total > 7.001 {
		t.Errorf("day total = %v, want 7", total)
	}
	if out.Ingest.Malformed != 1 || out.Ingest.Kept != 4 {
		t.Errorf("unexpected ingest stats %+v", out.Ingest)
	}
}

func TestBuildReport_CSVUpload(t *testing.T) {
	srv, _ := newServer(t)

	csv := "Level,Date and Time,Source,Event ID,Task Category\n" +
		"Information,2024-05-06 12:00:00,Microsoft-Windows-Security-Auditing,4800,Other\n" +
		"Information,2024-05-06 12:30:00,Microsoft-Windows-Security-Auditing,4801,Other\n"
	resp := post(t, srv.URL+"/v1/reports?user=kim", "text/csv", csv)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := out.Report.Users["kim"]["2024-05-06"]["Lock"]; got != 0.5 {
		t.Errorf("Lock = %v, want 0.5", got)
	}
}

func TestBuildReport_BadInput(t *testing.T) {
	srv, _ := newServer(t)

	cases := []struct {
		name, ct, body string
	}{
		{"invalid json", "application/json", "{"},
		{"no records", "application/json", `{"records":[]}`},
		{"bad csv header", "text/csv", "a,b\n1,2\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := post(t, srv.URL+"/v1/reports", tc.ct, tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestJobs_SubmitAndFetch(t *testing.T) {
	srv, _ := newServer(t)

	body := `{"user":"andrea","records":[
		{"timestamp":"2024-05-06 08:00:00","code":4624},
		{"timestamp":"2024-05-06 10:00:00","code":4634}
	]}`
	resp := post(t, srv.URL+"/v1/jobs", "application/json", body)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var accepted struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil || accepted.JobID == "" {
		t.Fatalf("decode accepted: %v %+v", err, accepted)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		r, err := http.Get(srv.URL + "/v1/jobs/" + accepted.JobID)
		if err != nil {
			t.Fatal(err)
		}
		var job engine.Job
		err = json.NewDecoder(r.Body).Decode(&job)
		r.Body.Close()
		if err != nil {
			t.Fatalf("decode job: %v", err)
		}
		if job.Status == engine.JobDone {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job still %s", job.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	r, err := http.Get(srv.URL + "/v1/jobs/does-not-exist")
	if err != nil {
		t.Fatal(err)
	}
	r.Body.Close()
	if r.StatusCode != http.StatusNotFound {
		t.Errorf("unknown job status = %d, want 404", r.StatusCode)
	}
}

func TestConfigReload(t *testing.T) {
	srv, path := newServer(t)

	if err := os.WriteFile(path, []byte(strings.Replace(testConfig, "daily_cap_hours: 7", "daily_cap_hours: 5", 1)), 0o644); err != nil {
		t.Fatal(err)
	}
	resp := post(t, srv.URL+"/v1/config/reload", "application/json", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reload status = %d", resp.StatusCode)
	}

	r, err := http.Get(srv.URL + "/v1/config")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Body.Close()
	var cfg config.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.DailyCapHours != 5 {
		t.Errorf("cap = %v, want 5", cfg.DailyCapHours)
	}

	// A broken file is rejected and the previous settings stay active.
	if err := os.WriteFile(path, []byte("version: v1\ndaily_cap_hours: -3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	resp = post(t, srv.URL+"/v1/config/reload", "application/json", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("invalid reload status = %d, want 422", resp.StatusCode)
	}
	r2, err := http.Get(srv.URL + "/v1/config")
	if err != nil {
		t.Fatal(err)
	}
	defer r2.Body.Close()
	var kept config.Config
	if err := json.NewDecoder(r2.Body).Decode(&kept); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if kept.DailyCapHours != 5 {
		t.Errorf("cap after rejected reload = %v, want 5", kept.DailyCapHours)
	}
}

func TestProbes(t *testing.T) {
	srv, _ := newServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		r, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		r.Body.Close()
		if r.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d", path, r.StatusCode)
		}
	}
}
