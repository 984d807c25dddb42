package metrics

import (
	"fmt"
	"math"
	"sort"
)

// Config holds the tunables for metrics computation.
// All values are explicit; there are no ambient defaults read at compute time.
type Config struct {
	// StutterMultiplier marks a frame as a stutter when its duration exceeds
	// this multiple of the mean frame duration.
	StutterMultiplier float64 `json:"stutter_multiplier"`

	// ReliableSampleCount is the minimum number of samples required for the
	// 0.1%-low percentile to be considered reliable. Below it the 0.1%-low
	// falls back to the minimum observed FPS and LowConfidence is set.
	ReliableSampleCount int `json:"reliable_sample_count"`

	// Tiers are the stutter-tier boundaries.
	Tiers TierBoundaries `json:"tiers"`
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig() Config {
	return Config{
		StutterMultiplier:   2.0,
		ReliableSampleCount: 1000,
		Tiers:               DefaultTierBoundaries(),
	}
}

// Metrics is the derived, immutable result of analyzing one frametime
// sequence. Field names are stable; this is the record the reporting
// front-end consumes.
type Metrics struct {
	AverageFPS       float64 `json:"average_fps"`
	MinimumFPS       float64 `json:"minimum_fps"`
	MaximumFPS       float64 `json:"maximum_fps"`
	MedianFPS        float64 `json:"median_fps"`
	Low1FPS          float64 `json:"low_1_fps"`
	Low01FPS         float64 `json:"low_0_1_fps"`
	StutterPercent   float64 `json:"stutter_percent"`
	ConsistencyScore float64 `json:"consistency_score"`
	StutterTier      Tier    `json:"stutter_tier"`
	LowConfidence    bool    `json:"low_confidence"`
	FrameCount       int     `json:"frame_count"`
	DurationSeconds  float64 `json:"duration_seconds"`
}

// Compute derives Metrics from a sequence of frame durations in milliseconds.
// It is a pure function: the same input and config always produce the same
// output. Durations must be positive and finite; the parser guarantees this.
func Compute(frametimes []float64, cfg Config) (*Metrics, error) {
	if len(frametimes) == 0 {
		return nil, fmt.Errorf("metrics: no frametime samples")
	}
	for i, ft := range frametimes {
		if ft <= 0 || math.IsInf(ft, 0) || math.IsNaN(ft) {
			return nil, fmt.Errorf("metrics: invalid frametime %v at sample %d", ft, i)
		}
	}
	if err := cfg.Tiers.Validate(); err != nil {
		return nil, err
	}

	n := len(frametimes)
	mean := meanOf(frametimes)
	total := mean * float64(n)

	sortedAsc := append([]float64(nil), frametimes...)
	sort.Float64s(sortedAsc)
	worstFirst := make([]float64, n)
	for i, ft := range sortedAsc {
		worstFirst[n-1-i] = ft
	}

	minFPS := 1000.0 / sortedAsc[n-1] // longest frame
	maxFPS := 1000.0 / sortedAsc[0]

	m := &Metrics{
		AverageFPS:      1000.0 / mean,
		MinimumFPS:      minFPS,
		MaximumFPS:      maxFPS,
		MedianFPS:       1000.0 / medianOfSorted(sortedAsc),
		Low1FPS:         percentileLow(worstFirst, 1.0),
		FrameCount:      n,
		DurationSeconds: total / 1000.0,
	}

	// 0.1%-low needs enough samples for the worst slice to mean anything.
	if n < cfg.ReliableSampleCount {
		m.Low01FPS = minFPS
		m.LowConfidence = true
	} else {
		m.Low01FPS = percentileLow(worstFirst, 0.1)
	}

	stutterLimit := mean * cfg.StutterMultiplier
	stutters := 0
	for _, ft := range frametimes {
		if ft > stutterLimit {
			stutters++
		}
	}
	m.StutterPercent = float64(stutters) / float64(n) * 100.0

	sd := stddevOf(frametimes, mean)
	m.ConsistencyScore = clamp01(1.0 - sd/mean)

	m.StutterTier = cfg.Tiers.Classify(m.StutterPercent)
	return m, nil
}

// percentileLow computes the k%-low FPS: the average FPS over the worst k%
// of frame durations (at least one frame). Weighting by duration matches the
// perceived impact of stutter better than a plain FPS percentile.
func percentileLow(worstFirst []float64, k float64) float64 {
	count := int(math.Ceil(float64(len(worstFirst)) * k / 100.0))
	if count < 1 {
		count = 1
	}
	if count > len(worstFirst) {
		count = len(worstFirst)
	}
	return 1000.0 / meanOf(worstFirst[:count])
}

func meanOf(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func medianOfSorted(sortedAsc []float64) float64 {
	n := len(sortedAsc)
	if n%2 == 1 {
		return sortedAsc[n/2]
	}
	return (sortedAsc[n/2-1] + sortedAsc[n/2]) / 2.0
}

func stddevOf(vals []float64, mean float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(vals)-1))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
