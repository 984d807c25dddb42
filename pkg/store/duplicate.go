package store

import "math"

// findDuplicate reports the most recent earlier run in the partition that
// the candidate duplicates: same declared settings, metrics within the
// configured FPS tolerance, and captured within the duplicate window.
// Detection only flags; the candidate is committed either way.
func findDuplicate(candidate *Run, existing []partitionEntry, cfg Config) *Run {
	for i := len(existing) - 1; i >= 0; i-- {
		prev := existing[i].run
		if !prev.Settings.Equal(candidate.Settings) {
			continue
		}
		gap := candidate.Timestamp.Sub(prev.Timestamp)
		if gap < 0 {
			gap = -gap
		}
		if gap > cfg.DuplicateWindow {
			continue
		}
		if metricsWithinTolerance(prev, candidate, cfg.DuplicateToleranceFPS) {
			return prev
		}
	}
	return nil
}

func metricsWithinTolerance(a, b *Run, tol float64) bool {
	return math.Abs(a.Metrics.AverageFPS-b.Metrics.AverageFPS) <= tol &&
		math.Abs(a.Metrics.Low1FPS-b.Metrics.Low1FPS) <= tol &&
		math.Abs(a.Metrics.Low01FPS-b.Metrics.Low01FPS) <= tol
}
