package settings

// resolutionFolders maps pixel resolutions to the short folder names the
// result store partitions by.
var resolutionFolders = map[string]string{
	"1280x720":  "HD",
	"1920x1080": "FHD",
	"2560x1440": "WQHD",
	"3440x1440": "UWQHD",
	"3840x2160": "UHD",
}

var resolutionDisplay = map[string]string{
	"HD":    "1280x720",
	"FHD":   "1920x1080",
	"WQHD":  "2560x1440",
	"UWQHD": "3440x1440",
	"UHD":   "3840x2160",
}

// ResolutionFolder returns the partition folder name for a resolution
// string, or "OTHER" for resolutions outside the known table. A value that
// already is a folder name passes through unchanged.
func ResolutionFolder(resolution string) string {
	if folder, ok := resolutionFolders[resolution]; ok {
		return folder
	}
	if _, ok := resolutionDisplay[resolution]; ok {
		return resolution
	}
	return "OTHER"
}

// ResolutionDisplay returns the pixel dimensions for a folder name, or the
// input unchanged when unknown.
func ResolutionDisplay(folder string) string {
	if res, ok := resolutionDisplay[folder]; ok {
		return res
	}
	return folder
}

// KnownResolutions lists the supported pixel resolutions.
func KnownResolutions() []string {
	return []string{"1280x720", "1920x1080", "2560x1440", "3440x1440", "3840x2160"}
}
