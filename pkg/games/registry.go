// Package games manages the game registry. Games are identified by Steam
// App ID, not display name, so typos and name variations cannot split one
// game's results across folders.
package games

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Entry is one registered game.
type Entry struct {
	SteamAppID  int       `json:"steam_app_id"`
	DisplayName string    `json:"display_name"`
	CoverURL    string    `json:"cover_url,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

// CanonicalID returns the folder name runs for this game are stored under.
func (e Entry) CanonicalID() string {
	return fmt.Sprintf("steam_%d", e.SteamAppID)
}

// Registry is the games.json file at the results root.
type Registry struct {
	path string

	mu      sync.Mutex
	entries map[int]Entry
}

// Load reads the registry from <baseDir>/games.json. A missing or corrupted
// file starts an empty registry; committed run data is never touched.
func Load(baseDir string) (*Registry, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results root: %w", err)
	}

	r := &Registry{
		path:    filepath.Join(baseDir, "games.json"),
		entries: make(map[int]Entry),
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to read game registry: %w", err)
	}

	var raw map[string]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		// Corrupted registry: start fresh rather than blocking new runs.
		return r, nil
	}
	for idStr, entry := range raw {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		r.entries[id] = entry
	}
	return r, nil
}

// Get returns the entry for a Steam App ID.
func (r *Registry) Get(appID int) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[appID]
	return e, ok
}

// GetOrCreate returns the existing entry or registers a new one.
func (r *Registry) GetOrCreate(appID int, displayName, coverURL string) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[appID]; ok {
		return e, nil
	}

	e := Entry{
		SteamAppID:  appID,
		DisplayName: displayName,
		CoverURL:    coverURL,
		AddedAt:     time.Now(),
	}
	r.entries[appID] = e
	if err := r.save(); err != nil {
		delete(r.entries, appID)
		return Entry{}, err
	}
	return e, nil
}

// All returns every registered game, sorted by display name.
func (r *Registry) All() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].DisplayName < all[j].DisplayName
	})
	return all
}

// DisplayName resolves a canonical folder id ("steam_1091500") to the
// registered display name, falling back to a readable placeholder.
func (r *Registry) DisplayName(canonicalID string) string {
	if idStr, ok := strings.CutPrefix(canonicalID, "steam_"); ok {
		if id, err := strconv.Atoi(idStr); err == nil {
			r.mu.Lock()
			e, found := r.entries[id]
			r.mu.Unlock()
			if found {
				return e.DisplayName
			}
			return "Steam App " + idStr
		}
	}
	return strings.ReplaceAll(canonicalID, "_", " ")
}

func (r *Registry) save() error {
	raw := make(map[string]Entry, len(r.entries))
	for id, e := range r.entries {
		raw[strconv.Itoa(id)] = e
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal game registry: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write game registry: %w", err)
	}
	return nil
}
