package metrics

import (
    "net/http"
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    impositions = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "booklets",
            Name:      "impositions_total",
            Help:      "Total imposition jobs by result (success, invalid, failed)",
        },
        []string{"result"},
    )

    impositionLatency = prometheus.NewHistogram(
        prometheus.HistogramOpts{
            Namespace: "booklets",
            Name:      "imposition_duration_seconds",
            Help:      "Duration of imposition jobs, planning plus composition",
            Buckets:   prometheus.DefBuckets,
        },
    )

    sourcePages = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "booklets",
            Name:      "source_pages_total",
            Help:      "Total source pages placed on sheets",
        },
    )

    sheetSides = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "booklets",
            Name:      "sheet_sides_total",
            Help:      "Total sheet sides produced, labeled by paper format",
        },
        []string{"paper"},
    )

    blankSlots = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "booklets",
            Name:      "blank_slots_total",
            Help:      "Total blank page slots added by padding",
        },
    )

    jobsInflight = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "booklets",
            Name:      "jobs_inflight",
            Help:      "Imposition jobs currently running",
        },
    )
)

var once sync.Once

// Init registers collectors. Safe to call more than once.
func Init() {
    once.Do(func() {
        prometheus.MustRegister(impositions, impositionLatency, sourcePages, sheetSides, blankSlots, jobsInflight)
    })
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveImposition(result string, dur time.Duration) {
    impositions.WithLabelValues(result).Inc()
    impositionLatency.Observe(dur.Seconds())
}

func AddLayout(paper string, pages, sides, blanks int) {
    sourcePages.Add(float64(pages))
    sheetSides.WithLabelValues(paper).Add(float64(sides))
    blankSlots.Add(float64(blanks))
}

func JobStarted()  { jobsInflight.Inc() }
func JobFinished() { jobsInflight.Dec() }
