// Package aggregate builds comparison views over committed runs. It only
// reads; the store owns the on-disk representation.
package aggregate

import (
	"sort"

	"github.com/linuxgamebench/lgb-core/pkg/settings"
	"github.com/linuxgamebench/lgb-core/pkg/store"
)

// Entry is one distinct (system, resolution, settings) combination with a
// representative run for headline comparison and the full history for
// drill-down.
type Entry struct {
	SystemID   string            `json:"system_id"`
	Resolution string            `json:"resolution"`
	Settings   settings.Settings `json:"settings"`

	// Representative is the most recent run of the combination. Most recent
	// rather than best-by-metric: the latest run reflects current drivers
	// and game patches, and cherry-picking the best would overstate results.
	Representative *store.Run `json:"representative"`

	History []*store.Run `json:"history"`
}

// ComparisonSet is the aggregated view of one game across all recorded
// systems, resolutions and settings.
type ComparisonSet struct {
	Game    string  `json:"game"`
	Entries []Entry `json:"entries"`
}

type comparisonKey struct {
	systemID   string
	resolution string
	settings   settings.Settings
}

// Compare aggregates a game's runs into a comparison set. A game or filter
// that matches no runs yields an empty set, not an error. Systems whose
// hardware no longer exists on the current host appear like any other.
func Compare(s *store.Store, game string, filter store.Filter) (*ComparisonSet, error) {
	runs, err := s.List(game, filter)
	if err != nil {
		return nil, err
	}

	groups := make(map[comparisonKey][]*store.Run)
	for _, run := range runs {
		key := comparisonKey{
			systemID:   run.SystemID,
			resolution: settings.ResolutionFolder(run.Resolution),
			settings:   run.Settings.Normalize(),
		}
		groups[key] = append(groups[key], run)
	}

	set := &ComparisonSet{Game: game}
	for key, history := range groups {
		sort.Slice(history, func(i, j int) bool {
			if !history[i].Timestamp.Equal(history[j].Timestamp) {
				return history[i].Timestamp.Before(history[j].Timestamp)
			}
			return history[i].RunNumber < history[j].RunNumber
		})
		set.Entries = append(set.Entries, Entry{
			SystemID:       key.systemID,
			Resolution:     key.resolution,
			Settings:       key.settings,
			Representative: history[len(history)-1],
			History:        history,
		})
	}

	sort.Slice(set.Entries, func(i, j int) bool {
		a, b := set.Entries[i], set.Entries[j]
		if a.SystemID != b.SystemID {
			return a.SystemID < b.SystemID
		}
		if a.Resolution != b.Resolution {
			return a.Resolution < b.Resolution
		}
		return a.Settings.Preset < b.Settings.Preset
	})
	return set, nil
}
