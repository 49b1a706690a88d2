package gen

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivlev/showrunner/internal/cache"
	"github.com/ivlev/showrunner/internal/canon"
	"github.com/ivlev/showrunner/internal/config"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"placeholder", false},
		{"", false}, // default
		{"storyboard", true},
		{"comfyui", true},
		{"invalid", true},
	}

	cfg := config.Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(tt.name, cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider: %v", err)
			}
			if provider.ProviderID() != "placeholder" {
				t.Errorf("provider id: %s", provider.ProviderID())
			}
		})
	}
}

func TestPlaceholderGenerate(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "bg", "bg_dunes.png")

	provider := NewPlaceholderProvider()
	generated, err := provider.Generate(ImageGenRequest{
		AssetType:      AssetBackground,
		AssetID:        "bg_dunes",
		TemplateName:   "background.tmpl",
		ResolvedPrompt: "wide shot of crystal dunes\n",
		Width:          320,
		Height:         180,
		OutPath:        outPath,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if generated.ProviderID != "placeholder" {
		t.Errorf("provider id: %s", generated.ProviderID)
	}
	if len(generated.OutputHash) != 16 {
		t.Errorf("output hash: %q", generated.OutputHash)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 180 {
		t.Errorf("size: %v", img.Bounds())
	}
}

func TestPlaceholderCutoutHasTransparentEdges(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "cutouts", "juno_idle.png")

	provider := NewPlaceholderProvider()
	_, err := provider.Generate(ImageGenRequest{
		AssetType: AssetCutout,
		AssetID:   "juno_idle",
		Width:     160,
		Height:    160,
		OutPath:   outPath,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}

	_, _, _, a := img.At(1, 1).RGBA()
	if a != 0 {
		t.Errorf("corner should be transparent, alpha %d", a)
	}
	_, _, _, a = img.At(80, 80).RGBA()
	if a == 0 {
		t.Error("center should be opaque")
	}
}

const genEpisodeYAML = `id: s01e01
title: The Glass Dunes
runtime_target_sec: 300
biome: crystal_desert
cast: [juno, pax]
render:
  fps: 24
  resolution: [320, 180]
`

const genShotlistYAML = `version: 1
shots:
  - id: sh010
    dur_sec: 2.0
    bg: bg_dunes_wide
    actors:
      - character: juno
  - id: sh020
    dur_sec: 2.0
    bg: bg_dunes_wide
    actors:
      - character: juno
      - character: pax
        pose: wave
`

func scaffoldRepo(t *testing.T) (repoRoot, episodeYAML string) {
	t.Helper()
	repoRoot = t.TempDir()

	promptsDir := filepath.Join(repoRoot, "show", "prompts")
	if err := os.MkdirAll(promptsDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile := func(path, content string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	writeFile(filepath.Join(promptsDir, "background.tmpl"),
		"{{.BiomeLabel}} background {{.BGID}}, style {{.StyleProfile}}\n")
	writeFile(filepath.Join(promptsDir, "cutout.tmpl"),
		"{{.CharacterLabel}} in pose {{.PoseID}}, style {{.StyleProfile}}\n")
	writeFile(filepath.Join(repoRoot, "show", "canon", "characters.yaml"),
		"characters:\n  - id: juno\n    label: Juno\n  - id: pax\n    label: Pax\n")
	writeFile(filepath.Join(repoRoot, "show", "canon", "biomes.yaml"),
		"biomes:\n  - id: crystal_desert\n    label: Crystal Desert\n")

	episodeDir := filepath.Join(repoRoot, "episodes", "s01e01")
	episodeYAML = filepath.Join(episodeDir, "episode.yaml")
	writeFile(episodeYAML, genEpisodeYAML)
	writeFile(filepath.Join(episodeDir, "shotlist.yaml"), genShotlistYAML)
	return repoRoot, episodeYAML
}

func TestDiscoverAssetsDeduplicates(t *testing.T) {
	repoRoot, episodeYAML := scaffoldRepo(t)

	specs, err := DiscoverAssets(episodeYAML, canon.Load(repoRoot))
	if err != nil {
		t.Fatalf("DiscoverAssets: %v", err)
	}

	// bg_dunes_wide referenced twice counts once; juno_idle twice counts once
	var bgs, cutouts int
	ids := make(map[string]bool)
	for _, s := range specs {
		ids[s.AssetID] = true
		switch s.AssetType {
		case AssetBackground:
			bgs++
		case AssetCutout:
			cutouts++
		}
	}
	if bgs != 1 || cutouts != 2 {
		t.Errorf("got %d backgrounds, %d cutouts: %v", bgs, cutouts, ids)
	}
	for _, want := range []string{"bg_dunes_wide", "juno_idle", "pax_wave"} {
		if !ids[want] {
			t.Errorf("missing asset %s in %v", want, ids)
		}
	}
}

func TestGenerateEpisodeAssetsCaching(t *testing.T) {
	_, episodeYAML := scaffoldRepo(t)
	ctx := context.Background()

	first := GenerateEpisodeAssets(ctx, episodeYAML, Options{Workers: 2})
	if len(first.Errors) != 0 {
		t.Fatalf("errors: %v", first.Errors)
	}
	if len(first.Generated) != 3 || len(first.Skipped) != 0 {
		t.Fatalf("first run: %s", first.Summary())
	}

	episodeDir := filepath.Dir(episodeYAML)
	bgPath := filepath.Join(episodeDir, "assets", "bg", "bg_dunes_wide.png")
	if _, err := os.Stat(bgPath); err != nil {
		t.Fatalf("background not written: %v", err)
	}
	if key := cache.ReadSidecarCacheKey(bgPath); key == "" {
		t.Error("sidecar cache key missing")
	}
	if _, err := os.Stat(filepath.Join(episodeDir, "logs", "gen.jsonl")); err != nil {
		t.Errorf("gen log not written: %v", err)
	}

	// Unchanged inputs hit the cache
	second := GenerateEpisodeAssets(ctx, episodeYAML, Options{Workers: 2})
	if len(second.Generated) != 0 || len(second.Skipped) != 3 {
		t.Fatalf("second run: %s", second.Summary())
	}

	// Force regenerates everything
	forced := GenerateEpisodeAssets(ctx, episodeYAML, Options{Force: true, Workers: 2})
	if len(forced.Generated) != 3 {
		t.Fatalf("forced run: %s", forced.Summary())
	}
}

func TestGenerateCancelledContextReported(t *testing.T) {
	_, episodeYAML := scaffoldRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := GenerateEpisodeAssets(ctx, episodeYAML, Options{Workers: 2})
	if len(result.Generated) != 0 {
		t.Errorf("cancelled run generated assets: %v", result.Generated)
	}
	if len(result.Errors) == 0 {
		t.Fatal("cancellation must surface in the result")
	}
	found := false
	for _, e := range result.Errors {
		if e.AssetID == "generation" && strings.Contains(e.Message, "context canceled") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors: %v", result.Errors)
	}
}

func TestGenerateLeavesHandMadeAssetsAlone(t *testing.T) {
	_, episodeYAML := scaffoldRepo(t)
	episodeDir := filepath.Dir(episodeYAML)

	// A plate on disk with no sidecar is someone's manual work
	bgPath := filepath.Join(episodeDir, "assets", "bg", "bg_dunes_wide.png")
	if err := os.MkdirAll(filepath.Dir(bgPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bgPath, []byte("hand-painted"), 0644); err != nil {
		t.Fatal(err)
	}

	result := GenerateEpisodeAssets(context.Background(), episodeYAML, Options{ChangedOnly: true, Workers: 1})
	if len(result.Errors) != 0 {
		t.Fatalf("errors: %v", result.Errors)
	}
	data, err := os.ReadFile(bgPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hand-painted" {
		t.Error("changed-only run overwrote a hand-made asset")
	}

	// Without changed-only the sidecar-less plate is fair game
	result = GenerateEpisodeAssets(context.Background(), episodeYAML, Options{Workers: 1})
	if len(result.Errors) != 0 {
		t.Fatalf("errors: %v", result.Errors)
	}
	data, _ = os.ReadFile(bgPath)
	if string(data) == "hand-painted" {
		t.Error("default run should regenerate a sidecar-less asset")
	}
}
