package monitor

import (
	"sync/atomic"
)

// RouteStats counts partition lookups. Safe for concurrent use.
type RouteStats struct {
	LookupCount     uint64
	RoutedCount     uint64
	OutOfRangeCount uint64
	FailureCount    uint64
}

func NewRouteStats() *RouteStats {
	return &RouteStats{}
}

func (rs *RouteStats) RecordLookup() {
	atomic.AddUint64(&rs.LookupCount, 1)
}

func (rs *RouteStats) RecordRouted() {
	atomic.AddUint64(&rs.RoutedCount, 1)
}

func (rs *RouteStats) RecordOutOfRange() {
	atomic.AddUint64(&rs.OutOfRangeCount, 1)
}

func (rs *RouteStats) RecordFailure() {
	atomic.AddUint64(&rs.FailureCount, 1)
}

// HitRatio is the fraction of lookups that found a partition.
func (rs *RouteStats) HitRatio() float64 {
	lookups := atomic.LoadUint64(&rs.LookupCount)
	if lookups == 0 {
		return 0.0
	}
	return float64(atomic.LoadUint64(&rs.RoutedCount)) / float64(lookups)
}

func (rs *RouteStats) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"lookups":      atomic.LoadUint64(&rs.LookupCount),
		"routed":       atomic.LoadUint64(&rs.RoutedCount),
		"out_of_range": atomic.LoadUint64(&rs.OutOfRangeCount),
		"failures":     atomic.LoadUint64(&rs.FailureCount),
		"hit_ratio":    rs.HitRatio(),
	}
}
