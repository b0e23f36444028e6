package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/activity/internal/config"
	"github.com/gyaneshwarpardhi/activity/internal/metrics"
)

var (
	ErrQueueFull   = errors.New("job queue full")
	ErrJobNotFound = errors.New("job not found")
)

// JobStatus is the lifecycle state of an asynchronous analysis.
type JobStatus string

const (
	JobQueued JobStatus = "queued"
	JobDone   JobStatus = "done"
	JobFailed JobStatus = "failed"
)

// Job is a snapshot of an asynchronous analysis.
type Job struct {
	ID          string    `json:"id"`
	Status      JobStatus `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Result      *Result   `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
}

type work struct {
	jobID    string
	req      *Request
	settings *Settings
	resultC  chan outcome
}

type outcome struct {
	res *Result
	err error
}

// Engine runs analyses on a bounded worker pool. Each job gets its own
// reconstruction state, so jobs never share timers.
type Engine struct {
	settings atomic.Pointer[Settings]
	pool     *workerPool[*work]
	conf     config.EngineConf

	mu    sync.Mutex
	jobs  map[string]*Job
	order []string
}

// New creates an Engine using conf and starts its worker pool.
func New(ctx context.Context, s *Settings, conf config.EngineConf) *Engine {
	e := &Engine{
		conf: conf,
		jobs: make(map[string]*Job),
	}
	e.settings.Store(s)
	e.pool = newWorkerPool[*work](ctx, conf.Workers, conf.QueueDepth, e.process)
	return e
}

// SwapSettings atomically replaces the settings used by future jobs (hot-reload).
func (e *Engine) SwapSettings(s *Settings) {
	e.settings.Store(s)
}

// Settings returns the settings new jobs will use.
func (e *Engine) Settings() *Settings {
	return e.settings.Load()
}

// Run analyses req on the pool and waits for the result.
func (e *Engine) Run(ctx context.Context, req *Request) (*Result, error) {
	w := &work{req: req, settings: e.settings.Load(), resultC: make(chan outcome, 1)}
	if !e.pool.Submit(w) {
		metrics.Jobs.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}
	metrics.Jobs.WithLabelValues("queued").Inc()

	timeout := time.Duration(e.conf.JobTimeoutMs) * time.Millisecond
	select {
	case out := <-w.resultC:
		return out.res, out.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("analysis timeout after %v", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Submit enqueues req and returns a job id to poll with Job.
func (e *Engine) Submit(req *Request) (string, error) {
	id := uuid.New().String()
	w := &work{jobID: id, req: req, settings: e.settings.Load()}

	e.mu.Lock()
	e.jobs[id] = &Job{ID: id, Status: JobQueued, SubmittedAt: time.Now()}
	e.order = append(e.order, id)
	e.mu.Unlock()

	if !e.pool.Submit(w) {
		e.mu.Lock()
		delete(e.jobs, id)
		e.order = slices.DeleteFunc(e.order, func(o string) bool { return o == id })
		e.mu.Unlock()
		metrics.Jobs.WithLabelValues("rejected").Inc()
		return "", fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}
	metrics.Jobs.WithLabelValues("queued").Inc()
	e.evict()
	return id, nil
}

// Job returns a snapshot of the job with the given id.
func (e *Engine) Job(id string) (Job, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	j, ok := e.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return *j, nil
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Shutdown drains the pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}

func (e *Engine) process(ctx context.Context, w *work) {
	var (
		res *Result
		err error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("analysis panic: %v", r)
			}
		}()
		res = run(w.settings, w.req)
	}()

	if err != nil {
		metrics.Jobs.WithLabelValues("failed").Inc()
		slog.Error("analysis failed", "job_id", w.jobID, "err", err)
	} else {
		e.observe(res)
	}

	if w.resultC != nil {
		w.resultC <- outcome{res: res, err: err}
	}
	if w.jobID != "" {
		e.finish(w.jobID, res, err)
	}
}

func (e *Engine) observe(res *Result) {
	metrics.Jobs.WithLabelValues("done").Inc()
	metrics.ReportsBuilt.Inc()
	metrics.AnalysisDuration.Observe(float64(res.DurationMs))
	metrics.DaysCapped.Add(float64(res.Summary.DaysCapped))
	for cat, n := range res.Summary.EmittedBy {
		metrics.Emissions.WithLabelValues(string(cat)).Add(float64(n))
	}
	for cat, n := range res.Summary.OverwrittenBy {
		metrics.TimerOverwrites.WithLabelValues(string(cat)).Add(float64(n))
	}
	if res.Summary.Overwrites > 0 {
		slog.Debug("open timers overwritten before close", "count", res.Summary.Overwrites)
	}
}

func (e *Engine) finish(id string, res *Result, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	j, ok := e.jobs[id]
	if !ok {
		return
	}
	j.FinishedAt = time.Now()
	if err != nil {
		j.Status = JobFailed
		j.Error = err.Error()
		return
	}
	j.Status = JobDone
	j.Result = res
}

// evict drops the oldest finished jobs beyond the retention limit.
func (e *Engine) evict() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conf.MaxJobs <= 0 {
		return
	}
	kept := e.order[:0]
	excess := len(e.order) - e.conf.MaxJobs
	for _, id := range e.order {
		if excess > 0 && e.jobs[id].Status != JobQueued {
			delete(e.jobs, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	e.order = kept
}
