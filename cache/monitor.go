package cache

import "fmt"

// Pressure classifies combined memory usage against the configured budget.
type Pressure uint8

const (
	// PressureNormal means usage is comfortably inside the budget.
	PressureNormal Pressure = iota

	// PressureWarning means usage is approaching the budget; callers
	// should start trimming before inserting more data.
	PressureWarning

	// PressureCritical means usage is at or beyond the critical
	// fraction; eviction is overdue.
	PressureCritical
)

// String returns a human-readable name for the pressure level.
func (p Pressure) String() string {
	switch p {
	case PressureNormal:
		return "normal"
	case PressureWarning:
		return "warning"
	case PressureCritical:
		return "critical"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(p))
	}
}

// Default monitor thresholds as fractions of the combined budget.
const (
	// DefaultWarningFraction is where pressure turns Warning.
	DefaultWarningFraction = 0.75

	// DefaultEvictionFraction is where NeedsEviction turns true.
	DefaultEvictionFraction = 0.80

	// DefaultCriticalFraction is where pressure turns Critical.
	DefaultCriticalFraction = 0.90
)

// BytesSource reports a tier's resident byte count. RAMCache and GPUCache
// both satisfy it.
type BytesSource interface {
	ResidentBytes() uint64
}

// MonitorConfig holds parameters for creating a Monitor.
type MonitorConfig struct {
	// LimitBytes is the combined in-memory budget (RAM + GPU tiers).
	LimitBytes uint64

	// WarningFraction, EvictionFraction and CriticalFraction override
	// the default thresholds when in (0, 1].
	WarningFraction  float64
	EvictionFraction float64
	CriticalFraction float64
}

// Monitor aggregates byte usage across the in-memory tiers and classifies
// memory pressure. Classification is a pure function of current totals
// and the configured limits: the monitor holds no mutable state of its
// own, so reads are always consistent with the tiers.
type Monitor struct {
	limit    uint64
	warning  float64
	eviction float64
	critical float64
	sources  []BytesSource
}

// NewMonitor creates a monitor over the given tiers. Fractions outside
// (0, 1] fall back to the defaults.
func NewMonitor(cfg MonitorConfig, sources ...BytesSource) *Monitor {
	frac := func(v, def float64) float64 {
		if v <= 0 || v > 1 {
			return def
		}
		return v
	}
	return &Monitor{
		limit:    cfg.LimitBytes,
		warning:  frac(cfg.WarningFraction, DefaultWarningFraction),
		eviction: frac(cfg.EvictionFraction, DefaultEvictionFraction),
		critical: frac(cfg.CriticalFraction, DefaultCriticalFraction),
		sources:  sources,
	}
}

// Used returns the combined resident bytes across all observed tiers.
func (m *Monitor) Used() uint64 {
	var total uint64
	for _, s := range m.sources {
		total += s.ResidentBytes()
	}
	return total
}

// LimitBytes returns the combined budget.
func (m *Monitor) LimitBytes() uint64 { return m.limit }

// Utilization returns used/limit, or 0 with no limit configured.
func (m *Monitor) Utilization() float64 {
	if m.limit == 0 {
		return 0
	}
	return float64(m.Used()) / float64(m.limit)
}

// PressureLevel classifies the current combined usage.
func (m *Monitor) PressureLevel() Pressure {
	u := m.Utilization()
	switch {
	case u >= m.critical:
		return PressureCritical
	case u >= m.warning:
		return PressureWarning
	default:
		return PressureNormal
	}
}

// NeedsEviction reports whether usage has crossed the eviction threshold,
// so callers can trim proactively instead of waiting for a hard overflow.
func (m *Monitor) NeedsEviction() bool {
	return m.limit > 0 && m.Utilization() >= m.eviction
}

// RecommendEviction returns how many bytes to free to bring usage back
// under the eviction threshold. Returns 0 when no eviction is needed.
func (m *Monitor) RecommendEviction() uint64 {
	if m.limit == 0 {
		return 0
	}
	target := uint64(float64(m.limit) * m.eviction)
	used := m.Used()
	if used <= target {
		return 0
	}
	return used - target
}

// MonitorStats is a point-in-time snapshot of the combined budget.
type MonitorStats struct {
	UsedBytes     uint64
	LimitBytes    uint64
	Utilization   float64
	Pressure      Pressure
	NeedsEviction bool
}

// String returns a human-readable summary.
func (s MonitorStats) String() string {
	return fmt.Sprintf("Budget[%.1f%% used, %d/%d MB, pressure=%s]",
		s.Utilization*100,
		s.UsedBytes/(1024*1024),
		s.LimitBytes/(1024*1024),
		s.Pressure)
}

// Stats returns a snapshot of the combined budget state.
func (m *Monitor) Stats() MonitorStats {
	used := m.Used()
	var util float64
	if m.limit > 0 {
		util = float64(used) / float64(m.limit)
	}
	return MonitorStats{
		UsedBytes:     used,
		LimitBytes:    m.limit,
		Utilization:   util,
		Pressure:      m.PressureLevel(),
		NeedsEviction: m.limit > 0 && util >= m.eviction,
	}
}
