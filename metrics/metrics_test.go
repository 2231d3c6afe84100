package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/apotenza92/butterpaper/cache"
	"github.com/apotenza92/butterpaper/sched"
)

func TestSchedulerCollector(t *testing.T) {
	s := sched.NewScheduler()
	s.Submit(sched.PriorityVisible, sched.RenderTile{Page: 0})
	s.Submit(sched.PriorityOcr, sched.RunOCR{Page: 0})
	job, _ := s.NextJob()
	s.CompleteJob(job.ID)

	c := NewSchedulerCollector(s)

	want := `
# HELP butterpaper_jobs_submitted_total Jobs submitted to the scheduler.
# TYPE butterpaper_jobs_submitted_total counter
butterpaper_jobs_submitted_total 2
# HELP butterpaper_jobs_completed_total Jobs completed by workers.
# TYPE butterpaper_jobs_completed_total counter
butterpaper_jobs_completed_total 1
# HELP butterpaper_jobs_pending Jobs queued or currently running.
# TYPE butterpaper_jobs_pending gauge
butterpaper_jobs_pending 1
`
	err := testutil.CollectAndCompare(c, strings.NewReader(want),
		"butterpaper_jobs_submitted_total",
		"butterpaper_jobs_completed_total",
		"butterpaper_jobs_pending")
	if err != nil {
		t.Error(err)
	}
}

func TestSchedulerCollectorQueuedByPriority(t *testing.T) {
	s := sched.NewScheduler()
	s.Submit(sched.PriorityVisible, sched.RenderTile{Page: 0})
	s.Submit(sched.PriorityVisible, sched.RenderTile{Page: 1})
	s.Submit(sched.PriorityThumbnails, sched.GenerateThumbnail{Page: 0})

	want := `
# HELP butterpaper_jobs_queued Jobs waiting in a priority queue.
# TYPE butterpaper_jobs_queued gauge
butterpaper_jobs_queued{priority="visible"} 2
butterpaper_jobs_queued{priority="margin"} 0
butterpaper_jobs_queued{priority="thumbnails"} 1
butterpaper_jobs_queued{priority="ocr"} 0
`
	err := testutil.CollectAndCompare(NewSchedulerCollector(s),
		strings.NewReader(want), "butterpaper_jobs_queued")
	if err != nil {
		t.Error(err)
	}
}

func TestTierCollector(t *testing.T) {
	stats := func() cache.Stats {
		return cache.Stats{
			Entries:       3,
			ResidentBytes: 4096,
			LimitBytes:    8192,
			Hits:          10,
			Misses:        2,
			Evictions:     1,
		}
	}

	want := `
# HELP butterpaper_cache_entries Resident cache entries.
# TYPE butterpaper_cache_entries gauge
butterpaper_cache_entries{tier="ram"} 3
# HELP butterpaper_cache_resident_bytes Resident cache bytes.
# TYPE butterpaper_cache_resident_bytes gauge
butterpaper_cache_resident_bytes{tier="ram"} 4096
# HELP butterpaper_cache_hits_total Cache lookup hits.
# TYPE butterpaper_cache_hits_total counter
butterpaper_cache_hits_total{tier="ram"} 10
`
	err := testutil.CollectAndCompare(NewTierCollector("ram", stats),
		strings.NewReader(want),
		"butterpaper_cache_entries",
		"butterpaper_cache_resident_bytes",
		"butterpaper_cache_hits_total")
	if err != nil {
		t.Error(err)
	}
}

type fixedSource uint64

func (s fixedSource) ResidentBytes() uint64 { return uint64(s) }

func TestMonitorCollector(t *testing.T) {
	m := cache.NewMonitor(cache.MonitorConfig{LimitBytes: 1000}, fixedSource(950))

	want := `
# HELP butterpaper_budget_used_bytes Combined RAM+GPU resident bytes.
# TYPE butterpaper_budget_used_bytes gauge
butterpaper_budget_used_bytes 950
# HELP butterpaper_budget_utilization Used bytes as a fraction of the budget.
# TYPE butterpaper_budget_utilization gauge
butterpaper_budget_utilization 0.95
# HELP butterpaper_budget_pressure Memory pressure level (0 normal, 1 warning, 2 critical).
# TYPE butterpaper_budget_pressure gauge
butterpaper_budget_pressure 2
`
	err := testutil.CollectAndCompare(NewMonitorCollector(m),
		strings.NewReader(want),
		"butterpaper_budget_used_bytes",
		"butterpaper_budget_utilization",
		"butterpaper_budget_pressure")
	if err != nil {
		t.Error(err)
	}
}

func TestCollectorsRegisterCleanly(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	s := sched.NewScheduler()
	ram := cache.NewRAM(0)
	m := cache.NewMonitor(cache.MonitorConfig{LimitBytes: 1 << 30}, ram)

	reg.MustRegister(
		NewSchedulerCollector(s),
		NewTierCollector("ram", ram.Stats),
		NewMonitorCollector(m),
	)
	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather: %v", err)
	}
}
