package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "activity_records_ingested_total",
		Help: "Decoded log records, labelled by result (kept, malformed, outside_window).",
	}, []string{"result"})

	ReportsBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "activity_reports_built_total",
		Help: "Total number of activity reports assembled.",
	})

	Jobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "activity_jobs_total",
		Help: "Analysis jobs, labelled by status (queued, rejected, done, failed).",
	}, []string{"status"})

	Emissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "activity_emissions_total",
		Help: "Closed activity intervals, labelled by category.",
	}, []string{"category"})

	TimerOverwrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "activity_timer_overwrites_total",
		Help: "Open events that replaced a still-pending open timer, labelled by category.",
	}, []string{"category"})

	DaysCapped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "activity_days_capped_total",
		Help: "Days whose total activity was scaled down to the daily cap.",
	})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "activity_analysis_duration_ms",
		Help:    "Time spent reconstructing and aggregating one event stream, in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "activity_queue_utilization_ratio",
		Help: "Current job queue utilization (0–1).",
	})
)
