// Package metrics exposes scheduler and cache statistics as prometheus
// collectors. Collectors read Stats snapshots at scrape time, so nothing
// here touches the render-critical path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/apotenza92/butterpaper/cache"
	"github.com/apotenza92/butterpaper/sched"
)

// namespace prefixes every exported metric.
const namespace = "butterpaper"

// schedulerCollector exports scheduler counters.
type schedulerCollector struct {
	s *sched.Scheduler

	submitted *prometheus.Desc
	completed *prometheus.Desc
	cancelled *prometheus.Desc
	pending   *prometheus.Desc
	queued    *prometheus.Desc
}

// NewSchedulerCollector creates a collector over a scheduler.
func NewSchedulerCollector(s *sched.Scheduler) prometheus.Collector {
	return &schedulerCollector{
		s: s,
		submitted: prometheus.NewDesc(
			namespace+"_jobs_submitted_total", "Jobs submitted to the scheduler.", nil, nil),
		completed: prometheus.NewDesc(
			namespace+"_jobs_completed_total", "Jobs completed by workers.", nil, nil),
		cancelled: prometheus.NewDesc(
			namespace+"_jobs_cancelled_total", "Queued jobs removed by cancellation.", nil, nil),
		pending: prometheus.NewDesc(
			namespace+"_jobs_pending", "Jobs queued or currently running.", nil, nil),
		queued: prometheus.NewDesc(
			namespace+"_jobs_queued", "Jobs waiting in a priority queue.", []string{"priority"}, nil),
	}
}

func (c *schedulerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.submitted
	ch <- c.completed
	ch <- c.cancelled
	ch <- c.pending
	ch <- c.queued
}

func (c *schedulerCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.s.Stats()
	ch <- prometheus.MustNewConstMetric(c.submitted, prometheus.CounterValue, float64(st.Submitted))
	ch <- prometheus.MustNewConstMetric(c.completed, prometheus.CounterValue, float64(st.Completed))
	ch <- prometheus.MustNewConstMetric(c.cancelled, prometheus.CounterValue, float64(st.Cancelled))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(st.Pending()))
	for level, n := range st.QueuedByLevel {
		ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue,
			float64(n), sched.Priority(level).String())
	}
}

// tierCollector exports one cache tier's counters under a tier label.
type tierCollector struct {
	tier  string
	stats func() cache.Stats

	entries   *prometheus.Desc
	resident  *prometheus.Desc
	limit     *prometheus.Desc
	hits      *prometheus.Desc
	misses    *prometheus.Desc
	evictions *prometheus.Desc
}

// NewTierCollector creates a collector over any cache tier's Stats
// function. tier labels the metrics ("ram", "gpu", "disk", "preview").
func NewTierCollector(tier string, stats func() cache.Stats) prometheus.Collector {
	label := []string{"tier"}
	return &tierCollector{
		tier:  tier,
		stats: stats,
		entries: prometheus.NewDesc(
			namespace+"_cache_entries", "Resident cache entries.", label, nil),
		resident: prometheus.NewDesc(
			namespace+"_cache_resident_bytes", "Resident cache bytes.", label, nil),
		limit: prometheus.NewDesc(
			namespace+"_cache_limit_bytes", "Configured cache budget.", label, nil),
		hits: prometheus.NewDesc(
			namespace+"_cache_hits_total", "Cache lookup hits.", label, nil),
		misses: prometheus.NewDesc(
			namespace+"_cache_misses_total", "Cache lookup misses.", label, nil),
		evictions: prometheus.NewDesc(
			namespace+"_cache_evictions_total", "Entries evicted to fit the budget.", label, nil),
	}
}

func (c *tierCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
	ch <- c.resident
	ch <- c.limit
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
}

func (c *tierCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.stats()
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(st.Entries), c.tier)
	ch <- prometheus.MustNewConstMetric(c.resident, prometheus.GaugeValue, float64(st.ResidentBytes), c.tier)
	ch <- prometheus.MustNewConstMetric(c.limit, prometheus.GaugeValue, float64(st.LimitBytes), c.tier)
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(st.Hits), c.tier)
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(st.Misses), c.tier)
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(st.Evictions), c.tier)
}

// monitorCollector exports the combined budget view.
type monitorCollector struct {
	m *cache.Monitor

	used        *prometheus.Desc
	limit       *prometheus.Desc
	utilization *prometheus.Desc
	pressure    *prometheus.Desc
}

// NewMonitorCollector creates a collector over the budget monitor.
// Pressure is exported as a gauge: 0 normal, 1 warning, 2 critical.
func NewMonitorCollector(m *cache.Monitor) prometheus.Collector {
	return &monitorCollector{
		m: m,
		used: prometheus.NewDesc(
			namespace+"_budget_used_bytes", "Combined RAM+GPU resident bytes.", nil, nil),
		limit: prometheus.NewDesc(
			namespace+"_budget_limit_bytes", "Combined in-memory budget.", nil, nil),
		utilization: prometheus.NewDesc(
			namespace+"_budget_utilization", "Used bytes as a fraction of the budget.", nil, nil),
		pressure: prometheus.NewDesc(
			namespace+"_budget_pressure", "Memory pressure level (0 normal, 1 warning, 2 critical).", nil, nil),
	}
}

func (c *monitorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.used
	ch <- c.limit
	ch <- c.utilization
	ch <- c.pressure
}

func (c *monitorCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.m.Stats()
	ch <- prometheus.MustNewConstMetric(c.used, prometheus.GaugeValue, float64(st.UsedBytes))
	ch <- prometheus.MustNewConstMetric(c.limit, prometheus.GaugeValue, float64(st.LimitBytes))
	ch <- prometheus.MustNewConstMetric(c.utilization, prometheus.GaugeValue, st.Utilization)
	ch <- prometheus.MustNewConstMetric(c.pressure, prometheus.GaugeValue, float64(st.Pressure))
}
