package sysinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// SystemInfo is everything the prober gathers about the host. The capture
// front-end records it next to the fingerprint so a run stays interpretable
// even after the hardware is gone.
type SystemInfo struct {
	OS   OSInfo  `json:"os"`
	CPU  CPUInfo `json:"cpu"`
	GPUs []GPU   `json:"gpus"`
	RAM  RAMInfo `json:"ram"`
}

type OSInfo struct {
	Name   string `json:"name"`
	Kernel string `json:"kernel"`
}

type CPUInfo struct {
	Model   string `json:"model"`
	Vendor  string `json:"vendor"`
	Cores   int    `json:"cores"`
	Threads int    `json:"threads"`
}

type RAMInfo struct {
	TotalMB int `json:"total_mb"`
}

// FingerprintFor builds the partition fingerprint for a host and the GPU
// that rendered the session.
func FingerprintFor(info *SystemInfo, gpu *GPU) Fingerprint {
	return Fingerprint{
		OS:        info.OS.Name,
		Kernel:    info.OS.Kernel,
		CPUModel:  info.CPU.Model,
		GPUModel:  gpu.Model,
		GPUVendor: gpu.Vendor,
	}
}

// Probe gathers system information from /proc, /sys and /etc. Missing
// sources degrade to "Unknown" fields rather than failing; benchmarking on
// a stripped-down host is still valid.
func Probe() *SystemInfo {
	info := &SystemInfo{}
	info.OS = probeOS()
	info.CPU = probeCPU()
	info.RAM = probeRAM()
	info.GPUs = probeGPUs()
	return info
}

func probeOS() OSInfo {
	info := OSInfo{Name: "Unknown", Kernel: "Unknown"}
	if data, err := os.ReadFile("/etc/os-release"); err == nil {
		if name := ParseOSRelease(string(data)); name != "" {
			info.Name = name
		}
	}
	if data, err := os.ReadFile("/proc/sys/kernel/osrelease"); err == nil {
		info.Kernel = strings.TrimSpace(string(data))
	}
	return info
}

func probeCPU() CPUInfo {
	data, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return CPUInfo{Model: "Unknown", Vendor: "Unknown"}
	}
	return ParseCPUInfo(string(data))
}

func probeRAM() RAMInfo {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return RAMInfo{}
	}
	return ParseMemInfo(string(data))
}

var prettyNameRe = regexp.MustCompile(`(?m)^PRETTY_NAME="?([^"\n]+)"?`)

// ParseOSRelease extracts PRETTY_NAME from /etc/os-release content.
func ParseOSRelease(content string) string {
	if m := prettyNameRe.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ParseCPUInfo extracts the CPU model, vendor and core/thread counts from
// /proc/cpuinfo content.
func ParseCPUInfo(content string) CPUInfo {
	info := CPUInfo{Model: "Unknown", Vendor: "Unknown"}

	physicalIDs := make(map[string]bool)
	coreIDs := make(map[string]bool)

	for _, line := range strings.Split(content, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "model name":
			if info.Model == "Unknown" {
				info.Model = value
			}
		case "vendor_id":
			switch {
			case strings.Contains(value, "AMD"):
				info.Vendor = "AMD"
			case strings.Contains(value, "Intel"):
				info.Vendor = "Intel"
			}
		case "processor":
			info.Threads++
		case "physical id":
			physicalIDs[value] = true
		case "core id":
			coreIDs[value] = true
		}
	}

	packages := len(physicalIDs)
	if packages == 0 {
		packages = 1
	}
	info.Cores = len(coreIDs) * packages
	if info.Cores == 0 {
		info.Cores = info.Threads
	}
	return info
}

var memTotalRe = regexp.MustCompile(`MemTotal:\s+(\d+)\s+kB`)

// ParseMemInfo extracts the total RAM from /proc/meminfo content.
func ParseMemInfo(content string) RAMInfo {
	if m := memTotalRe.FindStringSubmatch(content); m != nil {
		if kb, err := strconv.Atoi(m[1]); err == nil {
			return RAMInfo{TotalMB: kb / 1024}
		}
	}
	return RAMInfo{}
}

// PCI vendor ids for display controllers.
const (
	pciVendorNVIDIA = "0x10de"
	pciVendorAMD    = "0x1002"
	pciVendorIntel  = "0x8086"
)

// probeGPUs enumerates GPUs from /sys/class/drm. Sysfs has no marketing
// names, so the model falls back to "<vendor> <device-id>" unless a capture
// hint or the user supplies a better one.
func probeGPUs() []GPU {
	cards, err := filepath.Glob("/sys/class/drm/card[0-9]")
	if err != nil {
		return nil
	}

	var gpus []GPU
	for _, card := range cards {
		device := filepath.Join(card, "device")
		vendorID := readSysfs(filepath.Join(device, "vendor"))
		if vendorID == "" {
			continue
		}

		gpu := GPU{Vendor: vendorName(vendorID)}

		deviceID := readSysfs(filepath.Join(device, "device"))
		gpu.Model = strings.TrimSpace(gpu.Vendor + " " + strings.TrimPrefix(deviceID, "0x"))

		if uevent := readSysfs(filepath.Join(device, "uevent")); uevent != "" {
			gpu.PCIAddress = parsePCISlot(uevent)
		}

		if vram := readSysfs(filepath.Join(device, "mem_info_vram_total")); vram != "" {
			if bytes, err := strconv.ParseInt(vram, 10, 64); err == nil {
				gpu.VRAMMB = int(bytes / (1024 * 1024))
			}
		}

		gpu.Integrated = isIntegrated(gpu)
		gpus = append(gpus, gpu)
	}
	return gpus
}

func vendorName(vendorID string) string {
	switch strings.TrimSpace(vendorID) {
	case pciVendorNVIDIA:
		return "NVIDIA"
	case pciVendorAMD:
		return "AMD"
	case pciVendorIntel:
		return "Intel"
	}
	return fmt.Sprintf("Unknown (%s)", strings.TrimSpace(vendorID))
}

func parsePCISlot(uevent string) string {
	for _, line := range strings.Split(uevent, "\n") {
		if addr, ok := strings.CutPrefix(line, "PCI_SLOT_NAME="); ok {
			return strings.TrimSpace(addr)
		}
	}
	return ""
}

// isIntegrated is a heuristic: Intel display controllers are integrated in
// practice, and AMD APU graphics report no dedicated VRAM pool.
func isIntegrated(gpu GPU) bool {
	if gpu.Vendor == "Intel" {
		return !strings.Contains(strings.ToLower(gpu.Model), "arc")
	}
	if gpu.Vendor == "AMD" {
		return gpu.VRAMMB == 0
	}
	return false
}

func readSysfs(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
