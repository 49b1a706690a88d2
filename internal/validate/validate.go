// Package validate performs semantic validation of an episode description
// against the show canon and the on-disk asset set.
package validate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ivlev/showrunner/internal/assets"
	"github.com/ivlev/showrunner/internal/canon"
	"github.com/ivlev/showrunner/internal/schema"
)

// Result is the outcome of one validation pass. Errors are semantic problems
// that block a build; MissingFiles are asset gaps that generation can fill.
type Result struct {
	OK           bool
	Errors       []string
	MissingFiles []string
}

// Episode validates episode.yaml plus its sibling shotlist.yaml.
// With allowMissingAssets, missing asset files are reported but do not fail
// the result (the generate stage runs after validation and fills them in).
func Episode(episodeYAML string, allowMissingAssets bool) Result {
	var errs, missing []string

	root := canon.RepoRootFrom(episodeYAML)
	cn := canon.Load(root)

	ep, err := schema.LoadEpisode(episodeYAML)
	if err != nil {
		return Result{OK: false, Errors: []string{fmt.Sprintf("failed reading episode.yaml: %v", err)}}
	}

	episodeDir := filepath.Dir(episodeYAML)
	sl, err := schema.LoadShotList(filepath.Join(episodeDir, "shotlist.yaml"))
	if err != nil {
		return Result{OK: false, Errors: []string{fmt.Sprintf("failed reading shotlist.yaml: %v", err)}}
	}

	for _, c := range ep.Cast {
		if _, ok := cn.Characters[c]; !ok {
			errs = append(errs, fmt.Sprintf("unknown character id in episode.cast: %s", c))
		}
	}
	if _, ok := cn.Biomes[ep.Biome]; !ok {
		errs = append(errs, fmt.Sprintf("unknown biome id: %s", ep.Biome))
	}

	for _, sh := range sl.Shots {
		for _, a := range sh.Actors {
			if _, ok := cn.Characters[a.Character]; !ok {
				errs = append(errs, fmt.Sprintf("%s: unknown actor character %q", sh.ID, a.Character))
			}
		}
		for _, ov := range sh.Overlays {
			if _, ok := cn.Overlays[ov.ID]; !ok {
				errs = append(errs, fmt.Sprintf("%s: unknown overlay %q", sh.ID, ov.ID))
			}
		}
		for _, fx := range sh.FX {
			if _, ok := cn.FX[fx]; !ok {
				errs = append(errs, fmt.Sprintf("%s: unknown fx %q", sh.ID, fx))
			}
		}
	}

	assetsDir := assets.Dir(episodeDir)
	for _, sh := range sl.Shots {
		bgFile := assets.BGPath(assetsDir, sh.BG)
		if !fileExists(bgFile) {
			missing = append(missing, bgFile)
		}
		for _, a := range sh.Actors {
			chFile := assets.CutoutPath(assetsDir, a.Character, a.Pose, a.Expression)
			fallback := assets.CutoutFallbackPath(assetsDir, a.Character, a.Pose)
			if !fileExists(chFile) && !fileExists(fallback) {
				missing = append(missing, chFile)
			}
		}
	}

	if allowMissingAssets {
		return Result{OK: len(errs) == 0, Errors: errs, MissingFiles: missing}
	}
	return Result{OK: len(errs) == 0 && len(missing) == 0, Errors: errs, MissingFiles: missing}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
