package sysinfo

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Fingerprint identifies the hardware configuration a run was recorded on.
// It is the partition key for the result store: two captures on identical
// hardware resolve to the same fingerprint, different hardware to different
// ones (up to the hash width).
type Fingerprint struct {
	OS        string `json:"os_name"`
	Kernel    string `json:"kernel"`
	CPUModel  string `json:"cpu_model"`
	GPUModel  string `json:"gpu_model"`
	GPUVendor string `json:"gpu_vendor"`
}

// hashInput is the subset of fields the hash is derived from. The kernel
// version is deliberately excluded so routine kernel updates do not split a
// machine's history across partitions.
type hashInput struct {
	OS        string `json:"os_name"`
	CPUModel  string `json:"cpu_model"`
	GPUModel  string `json:"gpu_model"`
	GPUVendor string `json:"gpu_vendor"`
}

// Hash returns a stable 12-hex-digit identifier derived from the
// (OS, CPU, GPU) triple.
func (fp Fingerprint) Hash() string {
	data, _ := json.Marshal(hashInput{
		OS:        fp.OS,
		CPUModel:  fp.CPUModel,
		GPUModel:  fp.GPUModel,
		GPUVendor: fp.GPUVendor,
	})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:12]
}

// SystemID returns the readable directory name for this fingerprint,
// for example "CachyOS_c21b11a6f0d2".
func (fp Fingerprint) SystemID() string {
	return sanitizeOSName(fp.OS) + "_" + fp.Hash()
}

func sanitizeOSName(name string) string {
	if name == "" {
		return "Unknown"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '/':
			// dropped: keeps directory names clean
		default:
			b.WriteRune('-')
		}
		if b.Len() >= 20 {
			break
		}
	}
	if b.Len() == 0 {
		return "Unknown"
	}
	return b.String()
}
