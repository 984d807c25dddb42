// Package testdata generates synthetic capture files in the overlay CSV
// format. The generators are deterministic for a given seed, so tests can
// assert exact metrics.
package testdata

import (
	"fmt"
	"math/rand"
	"strings"
)

// CaptureSpec describes a synthetic capture to generate.
type CaptureSpec struct {
	// FrameCount is the number of frame rows to emit.
	FrameCount int

	// BaseFrametimeMS is the nominal frame duration in milliseconds.
	BaseFrametimeMS float64

	// JitterMS is the maximum uniform deviation added to each frame.
	JitterMS float64

	// SpikeEvery inserts a spike of SpikeMS every n-th frame (0 disables).
	SpikeEvery int
	SpikeMS    float64

	// Seed drives the jitter; the same seed always yields the same capture.
	Seed int64

	// Host, when set, emits a SYSTEM INFO section before the frame table.
	Host *HostSpec
}

// HostSpec is the system description embedded in a generated capture.
type HostSpec struct {
	OS         string
	CPU        string
	GPU        string
	Kernel     string
	Resolution string
}

// Frametimes generates the raw frame durations for a spec.
func Frametimes(spec CaptureSpec) []float64 {
	rng := rand.New(rand.NewSource(spec.Seed))
	out := make([]float64, 0, spec.FrameCount)
	for i := 0; i < spec.FrameCount; i++ {
		ft := spec.BaseFrametimeMS
		if spec.JitterMS > 0 {
			ft += (rng.Float64()*2 - 1) * spec.JitterMS
		}
		if spec.SpikeEvery > 0 && i > 0 && i%spec.SpikeEvery == 0 {
			ft = spec.SpikeMS
		}
		if ft < 0.1 {
			ft = 0.1
		}
		out = append(out, ft)
	}
	return out
}

// Render produces the capture file text for a spec: an optional SYSTEM INFO
// section followed by the frame table.
func Render(spec CaptureSpec) string {
	var b strings.Builder

	if spec.Host != nil {
		b.WriteString("--- SYSTEM INFO ---\n")
		b.WriteString("os,cpu,gpu,kernel,resolution\n")
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s\n\n",
			spec.Host.OS, spec.Host.CPU, spec.Host.GPU, spec.Host.Kernel, spec.Host.Resolution)
	}

	b.WriteString("--- FRAME METRICS ---\n")
	b.WriteString("fps,frametime,cpu_load,gpu_load\n")

	for _, ft := range Frametimes(spec) {
		fmt.Fprintf(&b, "%.1f,%.4f,%.1f,%.1f\n", 1000.0/ft, ft, 35.0, 90.0)
	}
	return b.String()
}

// SteadyCapture is a convenience spec: n frames at a constant 60 FPS with a
// 50 ms spike every stutterEvery frames.
func SteadyCapture(n, stutterEvery int) CaptureSpec {
	return CaptureSpec{
		FrameCount:      n,
		BaseFrametimeMS: 16.667,
		SpikeEvery:      stutterEvery,
		SpikeMS:         50.0,
		Seed:            1,
	}
}
