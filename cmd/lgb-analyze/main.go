package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/linuxgamebench/lgb-core/pkg/capture"
	"github.com/linuxgamebench/lgb-core/pkg/config"
	"github.com/linuxgamebench/lgb-core/pkg/games"
	"github.com/linuxgamebench/lgb-core/pkg/index"
	"github.com/linuxgamebench/lgb-core/pkg/metrics"
	"github.com/linuxgamebench/lgb-core/pkg/settings"
	"github.com/linuxgamebench/lgb-core/pkg/store"
	"github.com/linuxgamebench/lgb-core/pkg/sysinfo"
	"github.com/linuxgamebench/lgb-core/pkg/validate"
	"github.com/spf13/pflag"
)

var version = "dev" // Set by -ldflags during build

func main() {
	// Define flags
	var (
		showVersion bool
		showHelp    bool
		debug       bool
		configPath  string
		resultsDir  string
		appID       int
		gameName    string
		resolution  string
		gpuOverride string
		force       bool
		skipIndex   bool
	)
	var declared settings.Settings

	pflag.BoolVarP(&showVersion, "version", "V", false, "Show version and exit")
	pflag.BoolVarP(&showHelp, "help", "h", false, "Show this help message")
	pflag.BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	pflag.BoolVarP(&debug, "verbose", "v", false, "Enable verbose output (alias for --debug)")
	pflag.StringVar(&configPath, "config", "", "Path to YAML config file")
	pflag.StringVar(&resultsDir, "results-dir", "", "Results directory (default from config)")
	pflag.IntVar(&appID, "app-id", 0, "Steam app id of the game (required)")
	pflag.StringVar(&gameName, "name", "", "Display name for a game not yet registered")
	pflag.StringVar(&resolution, "resolution", "", "Render resolution, e.g. 1920x1080 (default from capture)")
	pflag.StringVar(&gpuOverride, "gpu", "", "GPU that rendered the session (overrides the capture hint)")
	pflag.BoolVar(&force, "force", false, "Commit the run even when validation reports errors")
	pflag.BoolVar(&skipIndex, "no-index", false, "Skip updating the SQLite index")

	pflag.StringVar(&declared.Preset, "preset", "", "Graphics preset (low, medium, high, ultra, custom)")
	pflag.StringVar(&declared.Raytracing, "raytracing", "", "Raytracing level")
	pflag.StringVar(&declared.Upscaling, "upscaling", "", "Upscaler in use (fsr3, dlss4, xess2, ...)")
	pflag.StringVar(&declared.UpscalingQuality, "upscaling-quality", "", "Upscaler quality mode")
	pflag.StringVar(&declared.FrameGen, "framegen", "", "Frame generation in use")
	pflag.StringVar(&declared.AntiAliasing, "aa", "", "Anti-aliasing method")
	pflag.StringVar(&declared.HDR, "hdr", "", "HDR on/off")
	pflag.StringVar(&declared.VSync, "vsync", "", "VSync on/off")
	pflag.StringVar(&declared.FrameLimit, "framelimit", "", "Frame limit, e.g. 60 or none")
	pflag.StringVar(&declared.CPUOverclock, "cpu-oc", "", "CPU overclocked yes/no")
	pflag.StringVar(&declared.GPUOverclock, "gpu-oc", "", "GPU overclocked yes/no")

	pflag.Parse()

	// Handle version
	if showVersion {
		fmt.Printf("lgb-analyze version %s\n", version)
		os.Exit(0)
	}

	args := pflag.Args()
	if showHelp || len(args) == 0 {
		printHelp()
		if showHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	capturePath := args[0]

	if appID == 0 {
		fmt.Fprintf(os.Stderr, "Error: --app-id is required\n")
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if resultsDir == "" {
		resultsDir = cfg.ResolveResultsDir()
	}

	// Parse the capture
	rec, err := capture.ParseFile(capturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing capture: %v\n", err)
		os.Exit(1)
	}
	if debug && rec.SkippedLines > 0 {
		fmt.Printf("Skipped %d malformed line(s)\n", rec.SkippedLines)
	}

	if resolution == "" {
		resolution = rec.Resolution
	}
	if resolution == "" {
		fmt.Fprintf(os.Stderr, "Error: capture carries no resolution; pass --resolution\n")
		os.Exit(1)
	}

	// Validate the recording
	result := validate.Check(rec.Frametimes, cfg.Validation)
	for _, issue := range result.Issues {
		fmt.Fprintf(os.Stderr, "%s: %s\n", issue.Severity, issue.Message)
	}
	if !result.Valid && !force {
		fmt.Fprintf(os.Stderr, "Error: capture failed validation (use --force to commit anyway)\n")
		os.Exit(1)
	}

	// Compute metrics
	m, err := metrics.Compute(rec.Frametimes, cfg.MetricsConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing metrics: %v\n", err)
		os.Exit(1)
	}

	// Identify the system
	info := sysinfo.Probe()
	hint := gpuOverride
	if hint == "" && rec.Host != nil {
		hint = rec.Host.GPU
	}
	gpu, err := sysinfo.ResolveGPU(info.GPUs, hint, cfg.DefaultGPU)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving GPU: %v\n", err)
		if err == sysinfo.ErrAmbiguousGPU {
			fmt.Fprintf(os.Stderr, "Pass --gpu or set default_gpu in the config file\n")
		}
		os.Exit(1)
	}
	fp := sysinfo.FingerprintFor(info, gpu)
	systemID := fp.SystemID()

	// Register the game
	registry, err := games.Load(resultsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading game registry: %v\n", err)
		os.Exit(1)
	}
	game, err := registry.GetOrCreate(appID, gameName, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error registering game: %v\n", err)
		os.Exit(1)
	}

	// Commit the run
	st, err := store.Open(resultsDir, cfg.StoreConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening results store: %v\n", err)
		os.Exit(1)
	}
	if err := st.SaveSystemInfo(game.CanonicalID(), fp, info); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving system info: %v\n", err)
		os.Exit(1)
	}

	run := &store.Run{
		Game:       game.CanonicalID(),
		SystemID:   systemID,
		Resolution: resolution,
		Settings:   declared,
		Metrics:    *m,
		Frametimes: rec.Frametimes,
	}
	put, err := st.Put(run)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error committing run: %v\n", err)
		os.Exit(1)
	}

	// Mirror into the index
	if !skipIndex {
		committed, err := st.Get(put.ID)
		if err == nil {
			if db, ierr := index.Open(indexPath(resultsDir)); ierr == nil {
				if err := db.Insert(committed); err != nil && debug {
					fmt.Fprintf(os.Stderr, "Warning: failed to index run: %v\n", err)
				}
				db.Close()
			} else if debug {
				fmt.Fprintf(os.Stderr, "Warning: failed to open index: %v\n", ierr)
			}
		}
	}

	printSummary(game.DisplayName, put, m, result)
}

func indexPath(resultsDir string) string {
	return filepath.Join(resultsDir, "index.db")
}

func printSummary(gameName string, put *store.PutResult, m *metrics.Metrics, result *validate.Result) {
	fmt.Printf("Committed %s (%s)\n\n", put.ID, gameName)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Average FPS\t%.1f\n", m.AverageFPS)
	fmt.Fprintf(w, "1%% low\t%.1f\n", m.Low1FPS)
	if m.LowConfidence {
		fmt.Fprintf(w, "0.1%% low\t%.1f (low confidence, min FPS)\n", m.Low01FPS)
	} else {
		fmt.Fprintf(w, "0.1%% low\t%.1f\n", m.Low01FPS)
	}
	fmt.Fprintf(w, "Median FPS\t%.1f\n", m.MedianFPS)
	fmt.Fprintf(w, "Stutter\t%.2f%% (%s)\n", m.StutterPercent, m.StutterTier)
	fmt.Fprintf(w, "Consistency\t%.2f\n", m.ConsistencyScore)
	fmt.Fprintf(w, "Frames\t%d (%.1fs)\n", m.FrameCount, m.DurationSeconds)
	w.Flush()

	if put.Duplicate {
		fmt.Printf("\nNote: metrics match %s within tolerance; possible duplicate recording\n", put.DuplicateOf)
	}
	if warnings := result.Warnings(); len(warnings) > 0 {
		fmt.Printf("\nRecorded with %d warning(s)\n", len(warnings))
	}
}

func printHelp() {
	fmt.Println(`lgb-analyze - analyze a frametime capture and commit it to the results store

Usage:
  lgb-analyze [flags] <capture-file>

Flags:
  --app-id <id>           Steam app id of the game (required)
  --name <name>           Display name for a game not yet registered
  --resolution <WxH>      Render resolution, e.g. 1920x1080 (default from capture)
  --gpu <name>            GPU that rendered the session (overrides the capture hint)
  --results-dir <dir>     Results directory (default from config)
  --config <path>         Path to YAML config file
  --force                 Commit the run even when validation reports errors
  --no-index              Skip updating the SQLite index
  -d, --debug             Enable debug output
  -V, --version           Show version and exit
  -h, --help              Show this help message

Settings flags (all optional, validated against a fixed vocabulary):
  --preset, --raytracing, --upscaling, --upscaling-quality, --framegen,
  --aa, --hdr, --vsync, --framelimit, --cpu-oc, --gpu-oc

Examples:
  lgb-analyze --app-id 1086940 --name "Baldur's Gate 3" --preset ultra bg3.csv
  lgb-analyze --app-id 1086940 --resolution 2560x1440 --upscaling fsr3 bg3.csv`)
}
