package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/activity/internal/config"
	"github.com/gyaneshwarpardhi/activity/internal/engine"
	"github.com/gyaneshwarpardhi/activity/internal/ingest"
	"github.com/gyaneshwarpardhi/activity/internal/metrics"
)

const maxBodyBytes = 64 << 20

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, loader *config.Loader) http.Handler {
	h := &Handler{eng: eng, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/reports", h.buildReport)
	h.mux.HandleFunc("POST /v1/jobs", h.submitJob)
	h.mux.HandleFunc("GET /v1/jobs/{id}", h.getJob)
	h.mux.HandleFunc("GET /v1/config", h.getConfig)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// recordIn is one record in a JSON request envelope. Code may be a number
// or a numeric string.
type recordIn struct {
	Timestamp string          `json:"timestamp"`
	Source    string          `json:"source"`
	Code      json.RawMessage `json:"code"`
}

type reportRequest struct {
	User    string     `json:"user"`
	Records []recordIn `json:"records"`
}

// decodeRequest accepts either a JSON envelope (application/json) or a raw
// export upload (CSV, XML, NDJSON, optionally compressed) with ?user=.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (*engine.Request, error) {
	settings := h.eng.Settings()
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var (
		user string
		raws []ingest.Raw
	)
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if ct == "" || strings.HasPrefix(ct, "application/json") {
		var in reportRequest
		if err := json.NewDecoder(body).Decode(&in); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		user = in.User
		raws = make([]ingest.Raw, 0, len(in.Records))
		for _, rec := range in.Records {
			raws = append(raws, ingest.Raw{
				Timestamp: rec.Timestamp,
				Source:    rec.Source,
				Code:      codeText(rec.Code),
			})
		}
	} else {
		format := ingest.FormatFromContentType(ct)
		if q := r.URL.Query().Get("format"); q != "" {
			f, err := ingest.ParseFormat(q)
			if err != nil {
				return nil, err
			}
			format = f
		}
		var err error
		if raws, err = ingest.Decode(body, format); err != nil {
			return nil, err
		}
		user = r.URL.Query().Get("user")
	}
	if len(raws) == 0 {
		return nil, errors.New("request contains no records")
	}

	recs, st := ingest.Normalize(raws, settings.Ingest)
	metrics.RecordsIngested.WithLabelValues("kept").Add(float64(st.Kept))
	metrics.RecordsIngested.WithLabelValues("malformed").Add(float64(st.Malformed))
	metrics.RecordsIngested.WithLabelValues("outside_window").Add(float64(st.OutsideWindow))
	return &engine.Request{User: user, Records: recs, Ingest: st}, nil
}

func codeText(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "null" {
		return ""
	}
	return strings.Trim(s, `"`)
}

// POST /v1/reports: synchronous analysis.
func (h *Handler) buildReport(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.eng.Run(r.Context(), req)
	if err != nil {
		if errors.Is(err, engine.ErrQueueFull) {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/jobs: asynchronous analysis.
func (h *Handler) submitJob(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.eng.Submit(req)
	if err != nil {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": id,
		"ingest": req.Ingest,
	})
}

// GET /v1/jobs/{id}: job status and, once done, its result.
func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.eng.Job(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// GET /v1/config: the active configuration.
func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.loader.Config())
}

// POST /v1/config/reload: re-read the config file and swap engine settings.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s, err := engine.SettingsFromConfig(cfg)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.eng.SwapSettings(s)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":        true,
		"tracked_sources": len(cfg.TrackedSources),
		"daily_cap_hours": cfg.DailyCapHours,
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 if job queue >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}
