package cache

// Stats is a point-in-time snapshot of one cache tier.
type Stats struct {
	// Entries is the current number of cached payloads.
	Entries int

	// ResidentBytes is the sum of payload byte charges.
	ResidentBytes uint64

	// LimitBytes is the configured budget (0 = unlimited).
	LimitBytes uint64

	// Hits and Misses are lifetime lookup counters.
	Hits   uint64
	Misses uint64

	// Evictions is the number of entries removed to fit the budget.
	Evictions uint64

	// PeakBytes is the high-water mark of ResidentBytes.
	PeakBytes uint64
}

// HitRate returns hits/(hits+misses), or 0 with no lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Utilization returns resident bytes as a fraction of the budget,
// or 0 for an unlimited tier.
func (s Stats) Utilization() float64 {
	if s.LimitBytes == 0 {
		return 0
	}
	return float64(s.ResidentBytes) / float64(s.LimitBytes)
}
