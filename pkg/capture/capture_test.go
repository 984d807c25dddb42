package capture

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/linuxgamebench/lgb-core/pkg/testdata"
)

func TestParse_GeneratedCapture(t *testing.T) {
	spec := testdata.SteadyCapture(500, 100)
	spec.Host = &testdata.HostSpec{
		OS:         "CachyOS Linux",
		CPU:        "AMD Ryzen 7 9700X",
		GPU:        "AMD Radeon RX 7900 XTX",
		Kernel:     "6.18.5",
		Resolution: "2560x1440",
	}

	c, err := Parse(strings.NewReader(testdata.Render(spec)))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(c.Frametimes) != 500 {
		t.Errorf("len(Frametimes) = %d, want 500", len(c.Frametimes))
	}
	if c.SkippedLines != 0 {
		t.Errorf("SkippedLines = %d, want 0", c.SkippedLines)
	}
	if c.Host == nil {
		t.Fatal("Host = nil, want system info hint")
	}
	if c.Host.GPU != "AMD Radeon RX 7900 XTX" {
		t.Errorf("Host.GPU = %v", c.Host.GPU)
	}
	if c.Host.OS != "CachyOS Linux" {
		t.Errorf("Host.OS = %v", c.Host.OS)
	}
	if c.Resolution != "2560x1440" {
		t.Errorf("Resolution = %v, want 2560x1440", c.Resolution)
	}
}

func TestParse_SkipsMalformedLines(t *testing.T) {
	var b strings.Builder
	b.WriteString("fps,frametime\n")
	for i := 0; i < 500; i++ {
		b.WriteString("60.0,16.6670\n")
	}
	b.WriteString("not,numeric\n")
	b.WriteString(",\n")         // empty fields
	b.WriteString("60.0,-5.0\n") // negative duration

	c, err := Parse(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(c.Frametimes) != 500 {
		t.Errorf("len(Frametimes) = %d, want 500", len(c.Frametimes))
	}
	if c.SkippedLines != 3 {
		t.Errorf("SkippedLines = %d, want 3", c.SkippedLines)
	}
}

func TestParse_TruncatedTrailingLine(t *testing.T) {
	// A stream cut off mid-write ends in a partial record. Everything before
	// it must survive.
	input := "frametime\n16.7\n16.8\n16.9\n17"

	c, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	// "17" still parses as a number, so all four frames survive.
	if len(c.Frametimes) != 4 {
		t.Errorf("len(Frametimes) = %d, want 4", len(c.Frametimes))
	}

	input = "frametime,fps\n16.7,59.9\n16.8,59.5\n16.9,\"59"
	c, err = Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(c.Frametimes) != 3 {
		t.Errorf("len(Frametimes) = %d, want 3 (frametime column is intact)", len(c.Frametimes))
	}
}

func TestParse_NoValidSamples(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no header", "hello\nworld\n"},
		{"header only", "fps,frametime\n"},
		{"all malformed", "fps,frametime\nx,y\na,b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if !errors.Is(err, ErrMalformedCapture) {
				t.Errorf("Parse error = %v, want ErrMalformedCapture", err)
			}
		})
	}
}

func TestParse_FPSOnlyColumn(t *testing.T) {
	// Older logs carry only an fps column; durations are derived by
	// inverting it.
	input := "fps\n50.0\n100.0\n0.0\n"

	c, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(c.Frametimes) != 2 {
		t.Fatalf("len(Frametimes) = %d, want 2", len(c.Frametimes))
	}
	if c.Frametimes[0] != 20.0 {
		t.Errorf("Frametimes[0] = %v, want 20.0", c.Frametimes[0])
	}
	if c.Frametimes[1] != 10.0 {
		t.Errorf("Frametimes[1] = %v, want 10.0", c.Frametimes[1])
	}
	if c.SkippedLines != 1 {
		t.Errorf("SkippedLines = %d, want 1 (fps of zero)", c.SkippedLines)
	}
}

func TestParse_CPUNameInGPUField(t *testing.T) {
	// Some logs misplace the CPU model in the gpu field. Such a hint must be
	// discarded rather than fingerprinting the wrong device.
	input := "--- SYSTEM INFO ---\n" +
		"os,cpu,gpu\n" +
		"Arch Linux,AMD Ryzen 9 7950X,AMD Ryzen 9 7950X\n" +
		"\n" +
		"frametime\n16.7\n16.8\n"

	c, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.Host == nil {
		t.Fatal("Host = nil, want hint with GPU cleared")
	}
	if c.Host.GPU != "" {
		t.Errorf("Host.GPU = %q, want empty (CPU name is not a GPU)", c.Host.GPU)
	}
	if c.Host.CPU != "AMD Ryzen 9 7950X" {
		t.Errorf("Host.CPU = %v", c.Host.CPU)
	}
}

func TestParse_HostHintFieldMismatch(t *testing.T) {
	// Header and data row with different field counts cannot be trusted.
	input := "--- SYSTEM INFO ---\n" +
		"os,cpu,gpu\n" +
		"Arch Linux,AMD Ryzen 9 7950X\n" +
		"\n" +
		"frametime\n16.7\n"

	c, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.Host != nil {
		t.Errorf("Host = %+v, want nil for mismatched system info", c.Host)
	}
}

func TestParse_FrameMetricsMarker(t *testing.T) {
	input := "--- FRAME METRICS ---\n" +
		"fps,frametime,cpu_load\n" +
		"60.0,16.6670,20.0\n" +
		"59.0,16.9492,21.0\n"

	c, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(c.Frametimes) != 2 {
		t.Errorf("len(Frametimes) = %d, want 2", len(c.Frametimes))
	}
	if c.Frametimes[0] != 16.667 {
		t.Errorf("Frametimes[0] = %v, want 16.667 (frametime preferred over fps)", c.Frametimes[0])
	}
}

func TestParseFile(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "capture_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	path := filepath.Join(tempDir, "run.csv")
	if err := os.WriteFile(path, []byte(testdata.Render(testdata.SteadyCapture(100, 0))), 0644); err != nil {
		t.Fatalf("Failed to write capture: %v", err)
	}

	c, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(c.Frametimes) != 100 {
		t.Errorf("len(Frametimes) = %d, want 100", len(c.Frametimes))
	}

	if _, err := ParseFile(filepath.Join(tempDir, "missing.csv")); err == nil {
		t.Error("ParseFile succeeded on missing file, want error")
	}
}
