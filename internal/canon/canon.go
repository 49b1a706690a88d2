// Package canon loads the show bible: the registries of characters, biomes,
// overlays and fx tags that episode descriptions are validated against.
package canon

import (
	"os"
	"path/filepath"

	"github.com/ivlev/showrunner/internal/schema"
)

// Entry is one canon record. Only the id is required; the rest is free-form
// metadata used by prompt templates.
type Entry struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	Role  string `yaml:"role"`
}

// Canon holds the id-indexed registries.
type Canon struct {
	Characters map[string]Entry
	Biomes     map[string]Entry
	Overlays   map[string]Entry
	FX         map[string]Entry
}

func byID(entries []Entry) map[string]Entry {
	out := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if e.ID != "" {
			out[e.ID] = e
		}
	}
	return out
}

func loadList(path, key string) []Entry {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	var doc map[string][]Entry
	if err := schema.ReadYAML(path, &doc); err != nil {
		return nil
	}
	return doc[key]
}

// Load reads show/canon/*.yaml under repoRoot. Missing files yield empty
// registries rather than errors: a sparse canon is a validation concern,
// not a loading one.
func Load(repoRoot string) *Canon {
	dir := filepath.Join(repoRoot, "show", "canon")
	return &Canon{
		Characters: byID(loadList(filepath.Join(dir, "characters.yaml"), "characters")),
		Biomes:     byID(loadList(filepath.Join(dir, "biomes.yaml"), "biomes")),
		Overlays:   byID(loadList(filepath.Join(dir, "overlays.yaml"), "overlays")),
		FX:         byID(loadList(filepath.Join(dir, "fx.yaml"), "fx")),
	}
}

// RepoRootFrom walks up from path looking for a go.mod or show/ directory,
// mirroring how episodes live inside the show repository.
func RepoRootFrom(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		p = path
	}
	for dir := p; ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "show")); err == nil {
			return dir
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}
	return filepath.Dir(p)
}
