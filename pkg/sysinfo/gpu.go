package sysinfo

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAmbiguousGPU is returned when the rendering GPU cannot be determined
// automatically. The caller (the capture front-end) must ask the user and
// pass the answer back, typically as the saved default.
var ErrAmbiguousGPU = errors.New("cannot determine rendering GPU")

// GPU describes one detected graphics device.
type GPU struct {
	Vendor     string `json:"vendor"`
	Model      string `json:"model"`
	PCIAddress string `json:"pci_address,omitempty"`
	Integrated bool   `json:"integrated"`
	VRAMMB     int    `json:"vram_mb,omitempty"`
}

// ResolveGPU decides which GPU a run should be recorded against.
// Priority: the GPU named in the capture stream, then the saved default
// (a PCI address chosen earlier by the user), then the only GPU, then the
// only discrete GPU. Anything still ambiguous is the caller's decision.
func ResolveGPU(detected []GPU, captureHint, savedDefault string) (*GPU, error) {
	if captureHint != "" {
		for i := range detected {
			if gpuNameMatches(detected[i].Model, captureHint) {
				return &detected[i], nil
			}
		}
		// The capture names a device we did not detect, e.g. the card has
		// since been removed. The capture is still authoritative.
		return &GPU{
			Vendor: VendorFromName(captureHint),
			Model:  captureHint,
		}, nil
	}

	if savedDefault != "" {
		for i := range detected {
			if detected[i].PCIAddress == savedDefault {
				return &detected[i], nil
			}
		}
	}

	switch len(detected) {
	case 0:
		return nil, fmt.Errorf("no GPUs detected: %w", ErrAmbiguousGPU)
	case 1:
		return &detected[0], nil
	}

	var discrete *GPU
	for i := range detected {
		if detected[i].Integrated {
			continue
		}
		if discrete != nil {
			return nil, fmt.Errorf("%d discrete GPUs present: %w", countDiscrete(detected), ErrAmbiguousGPU)
		}
		discrete = &detected[i]
	}
	if discrete != nil {
		return discrete, nil
	}
	return nil, fmt.Errorf("%d GPUs present, none discrete: %w", len(detected), ErrAmbiguousGPU)
}

func countDiscrete(gpus []GPU) int {
	n := 0
	for _, g := range gpus {
		if !g.Integrated {
			n++
		}
	}
	return n
}

// gpuNameMatches reports whether a detected model and a capture hint refer
// to the same device. Capture hints are often shortened ("RX 7900 XTX"
// versus "AMD Radeon RX 7900 XTX"), so containment either way counts.
func gpuNameMatches(model, hint string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	h := strings.ToLower(strings.TrimSpace(hint))
	if m == "" || h == "" {
		return false
	}
	return strings.Contains(m, h) || strings.Contains(h, m)
}

// VendorFromName guesses the vendor from a device name.
func VendorFromName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "nvidia") || strings.Contains(lower, "geforce") || strings.Contains(lower, "rtx") || strings.Contains(lower, "gtx"):
		return "NVIDIA"
	case strings.Contains(lower, "amd") || strings.Contains(lower, "radeon") || strings.Contains(lower, "ati"):
		return "AMD"
	case strings.Contains(lower, "intel") || strings.Contains(lower, "arc ") || strings.Contains(lower, "iris"):
		return "Intel"
	}
	return "Unknown"
}
