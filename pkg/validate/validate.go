// Package validate is the quality gate for captured benchmark data. It
// flags recordings that are too short, too sparse or implausible before
// they are committed to the store.
package validate

import "fmt"

// Severity of a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"   // recording should be rejected
	SeverityWarning Severity = "warning" // recording is usable, with a notice
	SeverityInfo    Severity = "info"    // informational only
)

// Issue is a single validation finding.
type Issue struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Result of validating one capture.
type Result struct {
	Valid           bool    `json:"valid"` // false when any error-level issue exists
	Issues          []Issue `json:"issues,omitempty"`
	FrameCount      int     `json:"frame_count"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Errors returns the error-level issues.
func (r *Result) Errors() []Issue {
	return r.bySeverity(SeverityError)
}

// Warnings returns the warning-level issues.
func (r *Result) Warnings() []Issue {
	return r.bySeverity(SeverityWarning)
}

func (r *Result) bySeverity(sev Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}

func (r *Result) add(issue Issue) {
	r.Issues = append(r.Issues, issue)
	if issue.Severity == SeverityError {
		r.Valid = false
	}
}

// Config holds the validation thresholds.
type Config struct {
	MinDurationSeconds float64 `yaml:"min_duration_seconds" json:"min_duration_seconds"`
	MinFrameCount      int     `yaml:"min_frame_count" json:"min_frame_count"`
	MinFPS             float64 `yaml:"min_fps" json:"min_fps"`
	MaxFPS             float64 `yaml:"max_fps" json:"max_fps"`

	// LoadingGapMS flags single frames longer than this as loading screens.
	LoadingGapMS float64 `yaml:"loading_gap_ms" json:"loading_gap_ms"`
}

// DefaultConfig returns the default validation thresholds.
func DefaultConfig() Config {
	return Config{
		MinDurationSeconds: 30,
		MinFrameCount:      1000,
		MinFPS:             1,
		MaxFPS:             1000,
		LoadingGapMS:       5000,
	}
}

// Check validates a frametime sequence against the configured thresholds.
func Check(frametimes []float64, cfg Config) *Result {
	result := &Result{Valid: true}

	if len(frametimes) == 0 {
		result.add(Issue{
			Code:     "NO_DATA",
			Message:  "no frametime data",
			Severity: SeverityError,
		})
		return result
	}

	totalMS := 0.0
	for _, ft := range frametimes {
		totalMS += ft
	}
	result.FrameCount = len(frametimes)
	result.DurationSeconds = totalMS / 1000.0

	if result.DurationSeconds < cfg.MinDurationSeconds {
		result.add(Issue{
			Code: "DURATION_TOO_SHORT",
			Message: fmt.Sprintf("recording too short: %.1fs (minimum %.0fs)",
				result.DurationSeconds, cfg.MinDurationSeconds),
			Severity: SeverityError,
		})
	}

	if result.FrameCount < cfg.MinFrameCount {
		result.add(Issue{
			Code: "TOO_FEW_FRAMES",
			Message: fmt.Sprintf("too few frames: %d (minimum %d)",
				result.FrameCount, cfg.MinFrameCount),
			Severity: SeverityError,
		})
	}

	avgFPS := 1000.0 / (totalMS / float64(result.FrameCount))
	if avgFPS < cfg.MinFPS {
		result.add(Issue{
			Code:     "FPS_OUT_OF_RANGE",
			Message:  fmt.Sprintf("average FPS implausibly low: %.1f", avgFPS),
			Severity: SeverityWarning,
		})
	} else if avgFPS > cfg.MaxFPS {
		result.add(Issue{
			Code:     "FPS_OUT_OF_RANGE",
			Message:  fmt.Sprintf("average FPS implausibly high: %.1f", avgFPS),
			Severity: SeverityWarning,
		})
	}

	gaps := 0
	gapMS := 0.0
	for _, ft := range frametimes {
		if ft > cfg.LoadingGapMS {
			gaps++
			gapMS += ft
		}
	}
	if gaps > 0 {
		result.add(Issue{
			Code: "LOADING_SCREENS_DETECTED",
			Message: fmt.Sprintf("%d loading screen(s) detected (%.1fs total)",
				gaps, gapMS/1000.0),
			Severity: SeverityInfo,
		})
	}

	return result
}
