package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/linuxgamebench/lgb-core/pkg/aggregate"
	"github.com/linuxgamebench/lgb-core/pkg/config"
	"github.com/linuxgamebench/lgb-core/pkg/games"
	"github.com/linuxgamebench/lgb-core/pkg/index"
	"github.com/linuxgamebench/lgb-core/pkg/settings"
	"github.com/linuxgamebench/lgb-core/pkg/store"
	"github.com/spf13/pflag"
)

var version = "dev" // Set by -ldflags during build

func main() {
	// Define global flags
	var (
		showVersion bool
		showHelp    bool
		debug       bool
		configPath  string
		resultsDir  string
	)

	pflag.BoolVarP(&showVersion, "version", "V", false, "Show version and exit")
	pflag.BoolVarP(&showHelp, "help", "h", false, "Show this help message")
	pflag.BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	pflag.BoolVarP(&debug, "verbose", "v", false, "Enable verbose output (alias for --debug)")
	pflag.StringVar(&configPath, "config", "", "Path to YAML config file")
	pflag.StringVar(&resultsDir, "results-dir", "", "Results directory (default from config)")

	// Stop parsing at first non-flag argument (the subcommand)
	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	// Handle version
	if showVersion {
		fmt.Printf("lgb-report version %s\n", version)
		os.Exit(0)
	}

	// Get subcommand
	args := pflag.Args()
	if len(args) == 0 || showHelp {
		printHelp()
		os.Exit(0)
	}

	subcommand := args[0]

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if resultsDir == "" {
		resultsDir = cfg.ResolveResultsDir()
	}

	st, err := store.Open(resultsDir, cfg.StoreConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening results store: %v\n", err)
		os.Exit(1)
	}

	// Execute subcommand
	switch subcommand {
	case "list":
		handleList(st, resultsDir, args[1:])
	case "compare":
		handleCompare(st, resultsDir, args[1:])
	case "games":
		handleGames(st, resultsDir)
	case "reindex":
		handleReindex(st, resultsDir)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown subcommand '%s'\n\n", subcommand)
		printHelp()
		os.Exit(1)
	}
}

// resolveGame maps a bare Steam app id or canonical id to the store's game
// identifier.
func resolveGame(resultsDir, arg string) string {
	registry, err := games.Load(resultsDir)
	if err != nil {
		return arg
	}
	var appID int
	if _, err := fmt.Sscanf(arg, "%d", &appID); err == nil {
		if entry, ok := registry.Get(appID); ok {
			return entry.CanonicalID()
		}
		return fmt.Sprintf("steam_%d", appID)
	}
	return arg
}

func handleList(st *store.Store, resultsDir string, args []string) {
	fs := pflag.NewFlagSet("list", pflag.ExitOnError)
	system := fs.String("system", "", "Only runs from this system id")
	resolution := fs.String("resolution", "", "Only runs at this resolution (pixels or folder name)")

	fs.Parse(args)

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: list requires a game (app id or canonical id)\n")
		os.Exit(1)
	}
	game := resolveGame(resultsDir, fs.Arg(0))

	runs, err := st.List(game, store.Filter{SystemID: *system, Resolution: *resolution})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing runs: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Printf("No runs recorded for %s\n", game)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Run\tSystem\tRes\tPreset\tAvg\t1% low\t0.1% low\tStutter\tTier\tDate")
	fmt.Fprintln(w, "---\t------\t---\t------\t---\t------\t--------\t-------\t----\t----")
	for _, run := range runs {
		low01 := fmt.Sprintf("%.1f", run.Metrics.Low01FPS)
		if run.Metrics.LowConfidence {
			low01 += "*"
		}
		fmt.Fprintf(w, "%03d\t%s\t%s\t%s\t%.1f\t%.1f\t%s\t%.2f%%\t%s\t%s\n",
			run.RunNumber, run.SystemID,
			settings.ResolutionFolder(run.Resolution),
			orDash(run.Settings.Preset),
			run.Metrics.AverageFPS, run.Metrics.Low1FPS, low01,
			run.Metrics.StutterPercent, run.Metrics.StutterTier,
			run.Timestamp.Format("2006-01-02"),
		)
	}
	w.Flush()
	fmt.Println("\n* = low confidence (fewer samples than required for 0.1% low)")
}

func handleCompare(st *store.Store, resultsDir string, args []string) {
	fs := pflag.NewFlagSet("compare", pflag.ExitOnError)
	resolution := fs.String("resolution", "", "Only combinations at this resolution")

	fs.Parse(args)

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: compare requires a game (app id or canonical id)\n")
		os.Exit(1)
	}
	game := resolveGame(resultsDir, fs.Arg(0))

	set, err := aggregate.Compare(st, game, store.Filter{Resolution: *resolution})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building comparison: %v\n", err)
		os.Exit(1)
	}
	if len(set.Entries) == 0 {
		fmt.Printf("No runs recorded for %s\n", game)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "System\tRes\tPreset\tUpscaling\tAvg\t1% low\tStutter\tTier\tRuns")
	fmt.Fprintln(w, "------\t---\t------\t---------\t---\t------\t-------\t----\t----")
	for _, e := range set.Entries {
		rep := e.Representative
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\t%.1f\t%.2f%%\t%s\t%d\n",
			e.SystemID, e.Resolution,
			orDash(e.Settings.Preset), orDash(e.Settings.Upscaling),
			rep.Metrics.AverageFPS, rep.Metrics.Low1FPS,
			rep.Metrics.StutterPercent, rep.Metrics.StutterTier,
			len(e.History),
		)
	}
	w.Flush()
}

func handleGames(st *store.Store, resultsDir string) {
	registry, err := games.Load(resultsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading game registry: %v\n", err)
		os.Exit(1)
	}

	recorded, err := st.Games()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing games: %v\n", err)
		os.Exit(1)
	}
	if len(recorded) == 0 {
		fmt.Println("No games recorded")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game\tName\tSystems")
	fmt.Fprintln(w, "----\t----\t-------")
	for _, game := range recorded {
		systems, err := st.Systems(game)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing systems for %s: %v\n", game, err)
			os.Exit(1)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", game, registry.DisplayName(game), len(systems))
	}
	w.Flush()
}

func handleReindex(st *store.Store, resultsDir string) {
	db, err := index.Open(filepath.Join(resultsDir, "index.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	n, err := db.Rebuild(st)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rebuilding index: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Indexed %d run(s)\n", n)
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func printHelp() {
	fmt.Println(`lgb-report - query and compare recorded benchmark runs

Usage:
  lgb-report [flags] <subcommand> [subcommand flags]

Subcommands:
  list <game>       List all runs for a game
  compare <game>    Compare distinct system/resolution/settings combinations
  games             List recorded games
  reindex           Rebuild the SQLite index from the run files

Global flags:
  --results-dir <dir>   Results directory (default from config)
  --config <path>       Path to YAML config file
  -d, --debug           Enable debug output
  -V, --version         Show version and exit
  -h, --help            Show this help message

Examples:
  lgb-report list 1086940
  lgb-report compare 1086940 --resolution 2560x1440
  lgb-report games`)
}
