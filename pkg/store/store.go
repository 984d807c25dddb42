// Package store is the append-only repository of benchmark runs.
//
// Runs are kept as one JSON file each, partitioned game → system →
// resolution, and are never rewritten or deleted once committed. Data from
// every system that ever recorded a run stays retrievable.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/linuxgamebench/lgb-core/pkg/metrics"
	"github.com/linuxgamebench/lgb-core/pkg/settings"
	"github.com/linuxgamebench/lgb-core/pkg/sysinfo"
)

var (
	// ErrRunNotFound is returned by Get for an id with no committed run.
	ErrRunNotFound = errors.New("run not found")

	// ErrStoreCorruption is returned when a committed run file fails to
	// deserialize. The store never repairs or removes such a file.
	ErrStoreCorruption = errors.New("committed run failed to deserialize")
)

// Config holds the store's explicit policy knobs.
type Config struct {
	// DuplicateToleranceFPS is the maximum FPS difference, applied to the
	// average and both lows, under which two runs count as equal.
	DuplicateToleranceFPS float64 `json:"duplicate_tolerance_fps"`

	// DuplicateWindow is how close together two equal runs must have been
	// captured to be flagged as duplicates.
	DuplicateWindow time.Duration `json:"duplicate_window"`

	// RetainFrametimes controls whether raw samples are persisted with the
	// run. When true, every FrametimeStride-th sample is kept.
	RetainFrametimes bool `json:"retain_frametimes"`
	FrametimeStride  int  `json:"frametime_stride"`
}

// DefaultConfig returns the default store policy.
func DefaultConfig() Config {
	return Config{
		DuplicateToleranceFPS: 0.5,
		DuplicateWindow:       10 * time.Minute,
		RetainFrametimes:      true,
		FrametimeStride:       10,
	}
}

// Run is one immutable benchmark recording.
type Run struct {
	RunNumber  int               `json:"run_number"`
	Game       string            `json:"game"`
	SystemID   string            `json:"system_id"`
	Resolution string            `json:"resolution"`
	Settings   settings.Settings `json:"settings"`
	Timestamp  time.Time         `json:"timestamp"`
	Metrics    metrics.Metrics   `json:"metrics"`

	// Frametimes holds the retained raw samples (possibly strided), or is
	// empty when the retention policy drops them.
	Frametimes      []float64 `json:"frametimes,omitempty"`
	FrametimeStride int       `json:"frametime_stride,omitempty"`
}

// RunID addresses one committed run.
type RunID struct {
	Game       string `json:"game"`
	SystemID   string `json:"system_id"`
	Resolution string `json:"resolution"` // partition folder name, e.g. "FHD"
	Number     int    `json:"number"`
}

func (id RunID) String() string {
	return fmt.Sprintf("%s/%s/%s/run_%03d", id.Game, id.SystemID, id.Resolution, id.Number)
}

// PutResult reports where a run was committed and whether it duplicates an
// earlier one. Duplicates are flagged, never rejected or merged.
type PutResult struct {
	ID          RunID
	Duplicate   bool
	DuplicateOf *RunID
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	SystemID   string
	Resolution string // pixel string or folder name
	Settings   *settings.Settings
}

// Store manages the on-disk run tree rooted at a single directory.
type Store struct {
	root string
	cfg  Config

	mu         sync.Mutex
	partitions map[string]*sync.Mutex
}

// Open creates the results root if needed and returns a store over it.
func Open(root string, cfg Config) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("store: results root must not be empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results root: %w", err)
	}
	if cfg.FrametimeStride < 1 {
		cfg.FrametimeStride = 1
	}
	return &Store{
		root:       root,
		cfg:        cfg,
		partitions: make(map[string]*sync.Mutex),
	}, nil
}

// Root returns the results root directory.
func (s *Store) Root() string {
	return s.root
}

var runFileRe = regexp.MustCompile(`^run_(\d+)\.json$`)

// Put commits a run to its partition and returns its id. Index allocation
// is serialized per partition so concurrent writers never claim the same
// run number. The write is atomic: a crash mid-write leaves at most a stale
// temp file, never a truncated run.
func (s *Store) Put(run *Run) (*PutResult, error) {
	if run.Game == "" || run.SystemID == "" || run.Resolution == "" {
		return nil, fmt.Errorf("store: run must carry game, system id and resolution")
	}
	if err := run.Settings.Validate(); err != nil {
		return nil, err
	}

	folder := settings.ResolutionFolder(run.Resolution)
	dir := filepath.Join(s.root, run.Game, run.SystemID, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create partition %s: %w", dir, err)
	}

	lock := s.partitionLock(filepath.Join(run.Game, run.SystemID, folder))
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.readPartition(dir)
	if err != nil {
		return nil, err
	}

	next := 1
	for _, e := range existing {
		if e.run.RunNumber >= next {
			next = e.run.RunNumber + 1
		}
	}

	committed := *run
	committed.RunNumber = next
	committed.Resolution = run.Resolution
	if committed.Timestamp.IsZero() {
		committed.Timestamp = time.Now()
	}
	committed.Settings = run.Settings.Normalize()
	committed.Frametimes, committed.FrametimeStride = s.retainedSamples(run.Frametimes)

	result := &PutResult{
		ID: RunID{Game: run.Game, SystemID: run.SystemID, Resolution: folder, Number: next},
	}
	if dup := findDuplicate(&committed, existing, s.cfg); dup != nil {
		result.Duplicate = true
		result.DuplicateOf = &RunID{Game: run.Game, SystemID: run.SystemID, Resolution: folder, Number: dup.RunNumber}
	}

	path := filepath.Join(dir, fmt.Sprintf("run_%03d.json", next))
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("store: refusing to overwrite committed run %s", path)
	}
	if err := writeAtomic(path, &committed); err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns one committed run.
func (s *Store) Get(id RunID) (*Run, error) {
	path := filepath.Join(s.root, id.Game, id.SystemID, id.Resolution,
		fmt.Sprintf("run_%03d.json", id.Number))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", id, ErrRunNotFound)
		}
		return nil, fmt.Errorf("failed to read run %s: %w", id, err)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", id, err, ErrStoreCorruption)
	}
	return &run, nil
}

// List returns all committed runs for a game matching the filter, ordered by
// system, resolution and run number. An empty partition yields an empty
// slice, not an error.
func (s *Store) List(game string, filter Filter) ([]*Run, error) {
	gameDir := filepath.Join(s.root, game)
	systems, err := subdirs(gameDir)
	if err != nil {
		return nil, err
	}

	wantFolder := ""
	if filter.Resolution != "" {
		wantFolder = settings.ResolutionFolder(filter.Resolution)
	}

	var runs []*Run
	for _, system := range systems {
		if filter.SystemID != "" && system != filter.SystemID {
			continue
		}
		resolutions, err := subdirs(filepath.Join(gameDir, system))
		if err != nil {
			return nil, err
		}
		for _, folder := range resolutions {
			if wantFolder != "" && folder != wantFolder {
				continue
			}
			entries, err := s.readPartition(filepath.Join(gameDir, system, folder))
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				if filter.Settings != nil && !e.run.Settings.Equal(*filter.Settings) {
					continue
				}
				runs = append(runs, e.run)
			}
		}
	}
	return runs, nil
}

// Games lists the game directories that contain at least one run partition.
func (s *Store) Games() ([]string, error) {
	return subdirs(s.root)
}

// Systems lists the system partitions recorded for a game, including systems
// whose hardware no longer exists on this host.
func (s *Store) Systems(game string) ([]string, error) {
	return subdirs(filepath.Join(s.root, game))
}

// SaveSystemInfo records the fingerprint and full system description for a
// (game, system) partition, the way runs stay interpretable after a hardware
// change. Both files are written atomically.
func (s *Store) SaveSystemInfo(game string, fp sysinfo.Fingerprint, info *sysinfo.SystemInfo) error {
	dir := filepath.Join(s.root, game, fp.SystemID())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create system dir: %w", err)
	}

	fpRecord := struct {
		sysinfo.Fingerprint
		Hash     string    `json:"hash"`
		SystemID string    `json:"system_id"`
		SavedAt  time.Time `json:"saved_at"`
	}{fp, fp.Hash(), fp.SystemID(), time.Now()}

	if err := writeAtomic(filepath.Join(dir, "fingerprint.json"), &fpRecord); err != nil {
		return err
	}
	if info != nil {
		if err := writeAtomic(filepath.Join(dir, "system_info.json"), info); err != nil {
			return err
		}
	}
	return nil
}

// Fingerprint reads back the saved fingerprint for a (game, system)
// partition, or ErrRunNotFound when none was saved.
func (s *Store) Fingerprint(game, systemID string) (*sysinfo.Fingerprint, error) {
	path := filepath.Join(s.root, game, systemID, "fingerprint.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("fingerprint for %s/%s: %w", game, systemID, ErrRunNotFound)
		}
		return nil, fmt.Errorf("failed to read fingerprint: %w", err)
	}
	var fp sysinfo.Fingerprint
	if err := json.Unmarshal(data, &fp); err != nil {
		return nil, fmt.Errorf("fingerprint for %s/%s: %v: %w", game, systemID, err, ErrStoreCorruption)
	}
	return &fp, nil
}

type partitionEntry struct {
	run  *Run
	file string
}

// readPartition loads all runs in one resolution directory, sorted by run
// number. A file that fails to deserialize surfaces ErrStoreCorruption; the
// store never skips or repairs it silently.
func (s *Store) readPartition(dir string) ([]partitionEntry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read partition %s: %w", dir, err)
	}

	var entries []partitionEntry
	for _, de := range dirEntries {
		m := runFileRe.FindStringSubmatch(de.Name())
		if m == nil {
			continue
		}
		path := filepath.Join(dir, de.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read run %s: %w", path, err)
		}
		var run Run
		if err := json.Unmarshal(data, &run); err != nil {
			return nil, fmt.Errorf("%s: %v: %w", path, err, ErrStoreCorruption)
		}
		if run.RunNumber == 0 {
			run.RunNumber, _ = strconv.Atoi(m[1])
		}
		entries = append(entries, partitionEntry{run: &run, file: path})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].run.RunNumber < entries[j].run.RunNumber
	})
	return entries, nil
}

func (s *Store) partitionLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.partitions[key]
	if !ok {
		lock = &sync.Mutex{}
		s.partitions[key] = lock
	}
	return lock
}

func (s *Store) retainedSamples(frametimes []float64) ([]float64, int) {
	if !s.cfg.RetainFrametimes || len(frametimes) == 0 {
		return nil, 0
	}
	stride := s.cfg.FrametimeStride
	if stride <= 1 {
		return append([]float64(nil), frametimes...), 1
	}
	sampled := make([]float64, 0, len(frametimes)/stride+1)
	for i := 0; i < len(frametimes); i += stride {
		sampled = append(sampled, frametimes[i])
	}
	return sampled, stride
}

// writeAtomic marshals v to a temp file in the target directory and renames
// it into place, so readers only ever observe fully committed files.
func writeAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit %s: %w", path, err)
	}
	return nil
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
