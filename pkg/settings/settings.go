// Package settings defines the closed, versioned value sets for declared
// game settings. Runs are only comparable when their settings are drawn from
// the same fixed vocabulary, so free-text values are rejected.
package settings

import (
	"fmt"
	"strings"
)

// Settings are the graphics options declared for a benchmark run. Every
// field is either empty (not declared) or one of the values listed in
// ValidOptions for that field.
type Settings struct {
	Preset           string `json:"preset,omitempty" yaml:"preset,omitempty"`
	Raytracing       string `json:"raytracing,omitempty" yaml:"raytracing,omitempty"`
	Upscaling        string `json:"upscaling,omitempty" yaml:"upscaling,omitempty"`
	UpscalingQuality string `json:"upscaling_quality,omitempty" yaml:"upscaling_quality,omitempty"`
	FrameGen         string `json:"framegen,omitempty" yaml:"framegen,omitempty"`
	AntiAliasing     string `json:"aa,omitempty" yaml:"aa,omitempty"`
	HDR              string `json:"hdr,omitempty" yaml:"hdr,omitempty"`
	VSync            string `json:"vsync,omitempty" yaml:"vsync,omitempty"`
	FrameLimit       string `json:"framelimit,omitempty" yaml:"framelimit,omitempty"`
	CPUOverclock     string `json:"cpu_oc,omitempty" yaml:"cpu_oc,omitempty"`
	GPUOverclock     string `json:"gpu_oc,omitempty" yaml:"gpu_oc,omitempty"`
}

// ValidOptions is the versioned vocabulary per settings field.
var ValidOptions = map[string][]string{
	"preset":            {"none", "low", "medium", "high", "ultra", "custom"},
	"raytracing":        {"none", "low", "medium", "high", "ultra", "pathtracing"},
	"upscaling":         {"none", "fsr1", "fsr2", "fsr3", "fsr4", "dlss", "dlss2", "dlss3", "dlss3.5", "dlss4", "dlss4.5", "xess", "xess1", "xess2", "tsr"},
	"upscaling_quality": {"none", "performance", "balanced", "quality", "ultra-quality"},
	"framegen":          {"none", "fsr3-fg", "dlss3-fg", "dlss4-fg", "dlss4-mfg", "xess-fg", "afmf", "afmf2", "afmf3", "smooth-motion"},
	"aa":                {"none", "fxaa", "smaa", "taa", "dlaa", "msaa"},
	"hdr":               {"on", "off"},
	"vsync":             {"on", "off"},
	"framelimit":        {"none", "30", "60", "120", "144", "165", "180", "240", "360"},
	"cpu_oc":            {"yes", "no"},
	"gpu_oc":            {"yes", "no"},
}

// Normalize lower-cases and trims every field.
func (s Settings) Normalize() Settings {
	norm := func(v string) string { return strings.ToLower(strings.TrimSpace(v)) }
	return Settings{
		Preset:           norm(s.Preset),
		Raytracing:       norm(s.Raytracing),
		Upscaling:        norm(s.Upscaling),
		UpscalingQuality: norm(s.UpscalingQuality),
		FrameGen:         norm(s.FrameGen),
		AntiAliasing:     norm(s.AntiAliasing),
		HDR:              norm(s.HDR),
		VSync:            norm(s.VSync),
		FrameLimit:       norm(s.FrameLimit),
		CPUOverclock:     norm(s.CPUOverclock),
		GPUOverclock:     norm(s.GPUOverclock),
	}
}

// Validate checks every declared field against its value set. Empty fields
// mean "not declared" and are allowed.
func (s Settings) Validate() error {
	checks := []struct {
		field string
		value string
	}{
		{"preset", s.Preset},
		{"raytracing", s.Raytracing},
		{"upscaling", s.Upscaling},
		{"upscaling_quality", s.UpscalingQuality},
		{"framegen", s.FrameGen},
		{"aa", s.AntiAliasing},
		{"hdr", s.HDR},
		{"vsync", s.VSync},
		{"framelimit", s.FrameLimit},
		{"cpu_oc", s.CPUOverclock},
		{"gpu_oc", s.GPUOverclock},
	}

	for _, c := range checks {
		if c.value == "" {
			continue
		}
		if !contains(ValidOptions[c.field], c.value) {
			return fmt.Errorf("settings: invalid %s %q (valid: %s)",
				c.field, c.value, strings.Join(ValidOptions[c.field], ", "))
		}
	}
	return nil
}

// Equal reports whether two settings records declare the same values.
func (s Settings) Equal(other Settings) bool {
	return s.Normalize() == other.Normalize()
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
