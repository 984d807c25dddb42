package metrics

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestCompute_UniformFrametimes(t *testing.T) {
	frametimes := make([]float64, 2000)
	for i := range frametimes {
		frametimes[i] = 16.667
	}

	m, err := Compute(frametimes, DefaultConfig())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	want := 1000.0 / 16.667
	if !almostEqual(m.AverageFPS, want, 0.01) {
		t.Errorf("AverageFPS = %v, want %v", m.AverageFPS, want)
	}
	if !almostEqual(m.MinimumFPS, want, 0.01) || !almostEqual(m.MaximumFPS, want, 0.01) {
		t.Errorf("Min/Max FPS = %v/%v, want both %v", m.MinimumFPS, m.MaximumFPS, want)
	}
	if !almostEqual(m.MedianFPS, want, 0.01) {
		t.Errorf("MedianFPS = %v, want %v", m.MedianFPS, want)
	}
	if m.StutterPercent != 0 {
		t.Errorf("StutterPercent = %v, want 0", m.StutterPercent)
	}
	if m.StutterTier != TierExcellent {
		t.Errorf("StutterTier = %v, want %v", m.StutterTier, TierExcellent)
	}
	if !almostEqual(m.ConsistencyScore, 1.0, 0.001) {
		t.Errorf("ConsistencyScore = %v, want 1.0", m.ConsistencyScore)
	}
	if m.LowConfidence {
		t.Error("LowConfidence = true, want false for 2000 samples")
	}
	if m.FrameCount != 2000 {
		t.Errorf("FrameCount = %d, want 2000", m.FrameCount)
	}
	if !almostEqual(m.DurationSeconds, 2000*16.667/1000, 0.01) {
		t.Errorf("DurationSeconds = %v", m.DurationSeconds)
	}
}

func TestCompute_StutterScenario(t *testing.T) {
	// 1000 frames at 16.67 ms plus 10 spikes of 50 ms. Mean is exactly
	// 17.0 ms, so the stutter limit is 34 ms and only the spikes cross it.
	var frametimes []float64
	for i := 0; i < 1000; i++ {
		frametimes = append(frametimes, 16.67)
	}
	for i := 0; i < 10; i++ {
		frametimes = append(frametimes, 50.0)
	}

	m, err := Compute(frametimes, DefaultConfig())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if !almostEqual(m.AverageFPS, 1000.0/17.0, 0.01) {
		t.Errorf("AverageFPS = %v, want %v", m.AverageFPS, 1000.0/17.0)
	}

	wantStutter := 10.0 / 1010.0 * 100.0
	if !almostEqual(m.StutterPercent, wantStutter, 0.001) {
		t.Errorf("StutterPercent = %v, want %v", m.StutterPercent, wantStutter)
	}
	if m.StutterTier != TierExcellent {
		t.Errorf("StutterTier = %v, want %v", m.StutterTier, TierExcellent)
	}

	// 1% low: worst ceil(1010*0.01)=11 frames are ten 50 ms spikes plus one
	// 16.67 ms frame.
	want1 := 1000.0 / ((10*50.0 + 16.67) / 11.0)
	if !almostEqual(m.Low1FPS, want1, 0.01) {
		t.Errorf("Low1FPS = %v, want %v", m.Low1FPS, want1)
	}

	// 0.1% low: worst ceil(1010*0.001)=2 frames are both 50 ms spikes.
	if !almostEqual(m.Low01FPS, 20.0, 0.001) {
		t.Errorf("Low01FPS = %v, want 20.0", m.Low01FPS)
	}
	if m.LowConfidence {
		t.Error("LowConfidence = true, want false for 1010 samples")
	}
	if !almostEqual(m.MinimumFPS, 20.0, 0.001) {
		t.Errorf("MinimumFPS = %v, want 20.0", m.MinimumFPS)
	}
}

func TestCompute_LowConfidenceFallback(t *testing.T) {
	// 999 samples is below the reliability threshold: the 0.1% low must
	// fall back to the minimum FPS and the result must say so.
	frametimes := make([]float64, 999)
	for i := range frametimes {
		frametimes[i] = 10.0
	}
	frametimes[500] = 40.0

	m, err := Compute(frametimes, DefaultConfig())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if !m.LowConfidence {
		t.Error("LowConfidence = false, want true for 999 samples")
	}
	if !almostEqual(m.Low01FPS, m.MinimumFPS, 0.0001) {
		t.Errorf("Low01FPS = %v, want MinimumFPS %v", m.Low01FPS, m.MinimumFPS)
	}
	if !almostEqual(m.MinimumFPS, 25.0, 0.001) {
		t.Errorf("MinimumFPS = %v, want 25.0", m.MinimumFPS)
	}
}

func TestCompute_OrderIndependent(t *testing.T) {
	a := []float64{10, 20, 30, 40, 50, 15, 25, 35, 45, 16.7}
	b := []float64{16.7, 50, 10, 45, 20, 35, 30, 15, 40, 25}

	ma, err := Compute(a, DefaultConfig())
	if err != nil {
		t.Fatalf("Compute(a) failed: %v", err)
	}
	mb, err := Compute(b, DefaultConfig())
	if err != nil {
		t.Fatalf("Compute(b) failed: %v", err)
	}

	if *ma != *mb {
		t.Errorf("metrics differ under reordering:\n%+v\n%+v", ma, mb)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	frametimes := []float64{16.7, 17.1, 15.9, 33.4, 16.2}

	m1, err := Compute(frametimes, DefaultConfig())
	if err != nil {
		t.Fatalf("first Compute failed: %v", err)
	}
	m2, err := Compute(frametimes, DefaultConfig())
	if err != nil {
		t.Fatalf("second Compute failed: %v", err)
	}
	if *m1 != *m2 {
		t.Errorf("metrics differ between identical runs:\n%+v\n%+v", m1, m2)
	}
}

func TestCompute_SingleFrame(t *testing.T) {
	m, err := Compute([]float64{20.0}, DefaultConfig())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if !almostEqual(m.AverageFPS, 50.0, 0.001) {
		t.Errorf("AverageFPS = %v, want 50.0", m.AverageFPS)
	}
	if !almostEqual(m.Low1FPS, 50.0, 0.001) {
		t.Errorf("Low1FPS = %v, want 50.0 (worst slice is at least one frame)", m.Low1FPS)
	}
	if m.ConsistencyScore != 1.0 {
		t.Errorf("ConsistencyScore = %v, want 1.0 for a single sample", m.ConsistencyScore)
	}
}

func TestCompute_InvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		frametimes []float64
	}{
		{"empty", nil},
		{"zero", []float64{16.7, 0, 16.7}},
		{"negative", []float64{16.7, -1, 16.7}},
		{"nan", []float64{16.7, math.NaN()}},
		{"inf", []float64{16.7, math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compute(tt.frametimes, DefaultConfig()); err == nil {
				t.Error("Compute succeeded, want error")
			}
		})
	}
}

func TestCompute_BadTierConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tiers = TierBoundaries{ExcellentMax: 5, GoodMax: 3, ModerateMax: 7}
	if _, err := Compute([]float64{16.7, 16.7}, cfg); err == nil {
		t.Error("Compute succeeded with non-increasing tier boundaries, want error")
	}
}

func TestCompute_ConsistencyClamped(t *testing.T) {
	// Extreme variance drives 1 - stddev/mean below zero; the score clamps.
	m, err := Compute([]float64{1, 1, 1, 1000, 1000, 1000}, DefaultConfig())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if m.ConsistencyScore < 0 || m.ConsistencyScore > 1 {
		t.Errorf("ConsistencyScore = %v, want within [0,1]", m.ConsistencyScore)
	}
}
