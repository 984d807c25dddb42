package capture

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedCapture is returned when no valid frame samples can be
// extracted from a capture stream.
var ErrMalformedCapture = errors.New("no valid frame samples in capture")

// HostHint is the system identification embedded in a capture stream.
// MangoHud writes a SYSTEM INFO section before the frame data; on multi-GPU
// hosts its gpu field identifies the device that actually rendered.
type HostHint struct {
	OS         string
	CPU        string
	GPU        string
	Kernel     string
	Resolution string
}

// Capture is one parsed recording window: an ordered sequence of frame
// durations plus whatever metadata the stream carried.
type Capture struct {
	// Frametimes holds one duration in milliseconds per valid frame,
	// in stream order. Always positive and finite.
	Frametimes []float64

	// SkippedLines counts data lines that were dropped: non-numeric fields,
	// missing columns, comments, values that are non-finite or non-positive,
	// and a truncated trailing line.
	SkippedLines int

	// Resolution is the render resolution reported in the stream (for
	// example "1920x1080"), or empty when the stream does not report one.
	Resolution string

	// Host is the SYSTEM INFO section when present, nil otherwise.
	Host *HostHint
}

// ParseFile parses a capture log from disk.
func ParseFile(path string) (*Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse reads a line-oriented capture stream and extracts the frame samples.
// Individual malformed lines are skipped and counted; the parse only fails
// with ErrMalformedCapture when zero valid samples remain. A stream cut off
// mid-write loses at most its final partial line.
func Parse(r io.Reader) (*Capture, error) {
	c := &Capture{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read capture stream: %w", err)
	}

	// SYSTEM INFO section: marker line, then a header line and a data line.
	for i, line := range lines {
		if strings.Contains(line, "SYSTEM INFO") && i+2 < len(lines) {
			c.Host = parseHostHint(lines[i+1], lines[i+2])
			break
		}
	}

	// Find the frame-data header. Newer logs mark it with FRAME METRICS,
	// older ones start directly with the column header.
	cols, dataStart := findFrameHeader(lines)
	if cols == nil {
		return nil, ErrMalformedCapture
	}

	for _, line := range lines[dataStart:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		fields, err := splitRecord(trimmed)
		if err != nil {
			c.SkippedLines++
			continue
		}
		ft, ok := frameDuration(fields, cols)
		if !ok {
			c.SkippedLines++
			continue
		}
		c.Frametimes = append(c.Frametimes, ft)

		if c.Resolution == "" && cols.resolution >= 0 && cols.resolution < len(fields) {
			c.Resolution = strings.TrimSpace(fields[cols.resolution])
		}
	}

	if len(c.Frametimes) == 0 {
		return nil, ErrMalformedCapture
	}
	if c.Resolution == "" && c.Host != nil {
		c.Resolution = c.Host.Resolution
	}
	return c, nil
}

// columns maps the capture's header to the field indexes we care about.
// An index of -1 means the column is absent.
type columns struct {
	frametime  int
	fps        int
	resolution int
}

func findFrameHeader(lines []string) (*columns, int) {
	for i, line := range lines {
		if strings.Contains(line, "FRAME METRICS") {
			if i+1 < len(lines) {
				if cols := parseHeader(lines[i+1]); cols != nil {
					return cols, i + 2
				}
			}
			return nil, 0
		}
		if cols := parseHeader(line); cols != nil {
			return cols, i + 1
		}
	}
	return nil, 0
}

// parseHeader returns the column mapping if the line is a frame-data header,
// which requires at least a frametime or fps column.
func parseHeader(line string) *columns {
	fields, err := splitRecord(line)
	if err != nil {
		return nil
	}
	cols := &columns{frametime: -1, fps: -1, resolution: -1}
	for i, f := range fields {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "frametime", "frame time", "frame_time":
			if cols.frametime < 0 {
				cols.frametime = i
			}
		case "fps":
			if cols.fps < 0 {
				cols.fps = i
			}
		case "resolution":
			if cols.resolution < 0 {
				cols.resolution = i
			}
		}
	}
	if cols.frametime < 0 && cols.fps < 0 {
		return nil
	}
	return cols
}

// frameDuration extracts one frame duration in milliseconds from a data row.
// The frametime column is preferred; otherwise the duration is derived by
// inverting the fps column. Values that are non-positive or non-finite are
// rejected.
func frameDuration(fields []string, cols *columns) (float64, bool) {
	if cols.frametime >= 0 && cols.frametime < len(fields) {
		if ft, err := strconv.ParseFloat(strings.TrimSpace(fields[cols.frametime]), 64); err == nil {
			if validDuration(ft) {
				return ft, true
			}
			return 0, false
		}
	}
	if cols.fps >= 0 && cols.fps < len(fields) {
		if fps, err := strconv.ParseFloat(strings.TrimSpace(fields[cols.fps]), 64); err == nil {
			if fps > 0 && !math.IsInf(fps, 0) && !math.IsNaN(fps) {
				ft := 1000.0 / fps
				if validDuration(ft) {
					return ft, true
				}
			}
			return 0, false
		}
	}
	return 0, false
}

func validDuration(ft float64) bool {
	return ft > 0 && !math.IsInf(ft, 0) && !math.IsNaN(ft)
}

func parseHostHint(headerLine, dataLine string) *HostHint {
	header, err := splitRecord(headerLine)
	if err != nil {
		return nil
	}
	data, err := splitRecord(dataLine)
	if err != nil {
		return nil
	}
	if len(header) != len(data) {
		return nil
	}

	hint := &HostHint{}
	for i, h := range header {
		v := strings.TrimSpace(data[i])
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "os":
			hint.OS = v
		case "cpu":
			hint.CPU = v
		case "gpu":
			hint.GPU = v
		case "kernel":
			hint.Kernel = v
		case "resolution":
			hint.Resolution = v
		}
	}

	// Some logs misplace the CPU name in the gpu field; a hint like that is
	// worse than none.
	if looksLikeCPU(hint.GPU) {
		hint.GPU = ""
	}
	if hint.OS == "" && hint.CPU == "" && hint.GPU == "" && hint.Kernel == "" && hint.Resolution == "" {
		return nil
	}
	return hint
}

var cpuKeywords = []string{"ryzen", "intel core", "i5-", "i7-", "i9-", "threadripper", "xeon"}

func looksLikeCPU(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range cpuKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// splitRecord parses a single CSV line, handling quoted fields.
func splitRecord(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.Read()
}
