// Package plan builds the pre-generation build plan: which asset files the
// shot list references and which of them are missing on disk.
package plan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/ivlev/showrunner/internal/assets"
	"github.com/ivlev/showrunner/internal/cache"
	"github.com/ivlev/showrunner/internal/schema"
)

// AssetRefs groups referenced or missing asset paths by kind.
type AssetRefs struct {
	BGs     []string `json:"bgs"`
	Cutouts []string `json:"cutouts"`
}

// Plan is the JSON-serializable build plan written to logs/plan.json.
type Plan struct {
	EpisodeID    string    `json:"episode_id"`
	EpisodeTitle string    `json:"episode_title"`
	Referenced   AssetRefs `json:"referenced"`
	Missing      AssetRefs `json:"missing"`
	Hash         string    `json:"hash,omitempty"`
}

// Build derives the plan for one episode.
func Build(episodeYAML string) (*Plan, error) {
	ep, err := schema.LoadEpisode(episodeYAML)
	if err != nil {
		return nil, err
	}
	episodeDir := filepath.Dir(episodeYAML)
	sl, err := schema.LoadShotList(filepath.Join(episodeDir, "shotlist.yaml"))
	if err != nil {
		return nil, err
	}

	assetsDir := assets.Dir(episodeDir)
	var refBGs, refCutouts, missBGs, missCutouts []string

	for _, sh := range sl.Shots {
		bgFile := assets.BGPath(assetsDir, sh.BG)
		refBGs = append(refBGs, bgFile)
		if !fileExists(bgFile) {
			missBGs = append(missBGs, bgFile)
		}
		for _, a := range sh.Actors {
			chFile := assets.CutoutPath(assetsDir, a.Character, a.Pose, a.Expression)
			refCutouts = append(refCutouts, chFile)
			if !fileExists(chFile) && !fileExists(assets.CutoutFallbackPath(assetsDir, a.Character, a.Pose)) {
				missCutouts = append(missCutouts, chFile)
			}
		}
	}

	p := &Plan{
		EpisodeID:    ep.ID,
		EpisodeTitle: ep.Title,
		Referenced:   AssetRefs{BGs: sortedUnique(refBGs), Cutouts: sortedUnique(refCutouts)},
		Missing:      AssetRefs{BGs: sortedUnique(missBGs), Cutouts: sortedUnique(missCutouts)},
	}

	// Хэш считается по плану без самого поля hash.
	h, err := cache.HashValue(p)
	if err != nil {
		return nil, err
	}
	p.Hash = h.Value
	return p, nil
}

// Write builds the plan and persists it as indented JSON.
func Write(episodeYAML, outPath string) (*Plan, error) {
	p, err := Build(episodeYAML)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return nil, err
	}
	return p, nil
}

func sortedUnique(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
