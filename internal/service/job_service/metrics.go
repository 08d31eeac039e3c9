package job_service

import (
	"strconv"

	"github.com/Ntropy86/Codeforces-Calendar/internal/service/assignment_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/problem_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/streak_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/user_service"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	runs             *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	problemsIngested prometheus.Counter
	assignmentsAdded prometheus.Counter
	fallbacks        prometheus.Counter
	shortfalls       *prometheus.CounterVec
	prunedDays       prometheus.Counter
	bandChanges      prometheus.Counter
}

// NewMetrics registers the job collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "potd_job_runs_total",
				Help: "Total number of job runs",
			},
			[]string{"job", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "potd_job_duration_seconds",
				Help:    "Duration of job runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"job"},
		),
		problemsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "potd_problems_ingested_total",
			Help: "Problems added to the pool by ingestion",
		}),
		assignmentsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "potd_assignments_added_total",
			Help: "Daily assignments created",
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "potd_assignment_fallbacks_total",
			Help: "Days filled from a neighbouring band",
		}),
		shortfalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "potd_assignment_shortfalls_total",
				Help: "Days left unassigned because the pool ran dry",
			},
			[]string{"band"},
		),
		prunedDays: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "potd_streak_days_pruned_total",
			Help: "Ledger days removed by retention pruning",
		}),
		bandChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "potd_user_band_changes_total",
			Help: "Users moved to another band by a rating refresh",
		}),
	}

	collectors := []prometheus.Collector{
		m.runs,
		m.duration,
		m.problemsIngested,
		m.assignmentsAdded,
		m.fallbacks,
		m.shortfalls,
		m.prunedDays,
		m.bandChanges,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRun(job, status string, seconds float64) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(job, status).Inc()
	m.duration.WithLabelValues(job).Observe(seconds)
}

func (m *Metrics) observeIngest(stats problem_service.IngestStats) {
	if m == nil {
		return
	}
	m.problemsIngested.Add(float64(stats.Added))
}

func (m *Metrics) observeGeneration(stats *assignment_service.GenerationStats) {
	if m == nil {
		return
	}
	for ; stats != nil; stats = stats.NextMonth {
		m.assignmentsAdded.Add(float64(stats.Added))
		for _, f := range stats.Fallbacks {
			m.fallbacks.Add(float64(f.Days))
		}
		for _, s := range stats.Shortfalls {
			m.shortfalls.WithLabelValues(strconv.Itoa(int(s.Band))).Add(float64(s.Needed))
		}
	}
}

func (m *Metrics) observePrune(stats streak_service.PruneStats) {
	if m == nil {
		return
	}
	m.prunedDays.Add(float64(stats.RemovedDays))
}

func (m *Metrics) observeRefresh(stats user_service.RefreshStats) {
	if m == nil {
		return
	}
	m.bandChanges.Add(float64(stats.BandChanges))
}
