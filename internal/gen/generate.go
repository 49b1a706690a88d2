// Package gen turns the asset references of a shotlist into image files on
// disk, through pluggable image providers with content-addressed caching.
package gen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/showrunner/internal/assets"
	"github.com/ivlev/showrunner/internal/cache"
	"github.com/ivlev/showrunner/internal/canon"
	"github.com/ivlev/showrunner/internal/config"
	"github.com/ivlev/showrunner/internal/provenance"
	"github.com/ivlev/showrunner/internal/schema"
)

// Options controls one generation run.
type Options struct {
	Force       bool   // regenerate everything, cache keys ignored
	ChangedOnly bool   // leave assets without a sidecar alone (hand-made plates)
	Provider    string // overrides the configured default_provider
	Workers     int
}

// DiscoverAssets walks the shotlist and lists every unique background and
// cutout the episode needs, with the prompt template params for each.
func DiscoverAssets(episodeYAML string, cn *canon.Canon) ([]AssetSpec, error) {
	episodeDir := filepath.Dir(episodeYAML)

	ep, err := schema.LoadEpisode(episodeYAML)
	if err != nil {
		return nil, err
	}
	sl, err := schema.LoadShotList(filepath.Join(episodeDir, "shotlist.yaml"))
	if err != nil {
		return nil, err
	}

	assetsDir := assets.Dir(episodeDir)
	var specs []AssetSpec
	seenBG := make(map[string]bool)
	seenCutout := make(map[string]bool)

	for _, shot := range sl.Shots {
		if shot.BG != "" && !seenBG[shot.BG] {
			seenBG[shot.BG] = true
			specs = append(specs, AssetSpec{
				AssetType:    AssetBackground,
				AssetID:      shot.BG,
				TemplateName: "background.tmpl",
				Params: map[string]string{
					"BGID":         shot.BG,
					"BiomeID":      ep.Biome,
					"BiomeLabel":   cn.Biomes[ep.Biome].Label,
					"StyleProfile": ep.StyleProfile,
				},
				Width:   ep.Render.Resolution.W(),
				Height:  ep.Render.Resolution.H(),
				OutPath: assets.BGPath(assetsDir, shot.BG),
			})
		}

		for _, actor := range shot.Actors {
			if actor.Character == "" {
				continue
			}
			// Вырезки генерируются по паре персонаж+поза, выражение
			// лица подставляет композитор через fallback
			cutoutID := assets.CutoutFallbackID(actor.Character, actor.Pose)
			if seenCutout[cutoutID] {
				continue
			}
			seenCutout[cutoutID] = true
			specs = append(specs, AssetSpec{
				AssetType:    AssetCutout,
				AssetID:      cutoutID,
				TemplateName: "cutout.tmpl",
				Params: map[string]string{
					"CharacterID":    actor.Character,
					"CharacterLabel": cn.Characters[actor.Character].Label,
					"CharacterRole":  cn.Characters[actor.Character].Role,
					"PoseID":         actor.Pose,
					"ExpressionID":   actor.Expression,
					"StyleProfile":   ep.StyleProfile,
				},
				Width:   1536,
				Height:  1536,
				OutPath: assets.CutoutFallbackPath(assetsDir, actor.Character, actor.Pose),
			})
		}
	}
	return specs, nil
}

// GenerateEpisodeAssets resolves prompts, checks caches and runs the provider
// over every discovered asset in parallel.
func GenerateEpisodeAssets(ctx context.Context, episodeYAML string, opts Options) Result {
	var result Result
	episodeDir := filepath.Dir(episodeYAML)
	repoRoot := canon.RepoRootFrom(episodeDir)

	cfg, err := config.FindAndLoad(episodeDir)
	if err != nil {
		result.Errors = append(result.Errors, AssetError{AssetID: "config", Message: err.Error()})
		return result
	}

	providerName := opts.Provider
	if providerName == "" {
		providerName = cfg.DefaultProvider
	}
	provider, err := NewProvider(providerName, cfg)
	if err != nil {
		result.Errors = append(result.Errors, AssetError{AssetID: "provider", Message: err.Error()})
		return result
	}

	resolver, err := NewPromptResolver(filepath.Join(repoRoot, "show", "prompts"))
	if err != nil {
		result.Errors = append(result.Errors, AssetError{AssetID: "prompts", Message: err.Error()})
		return result
	}

	specs, err := DiscoverAssets(episodeYAML, canon.Load(repoRoot))
	if err != nil {
		result.Errors = append(result.Errors, AssetError{AssetID: "shotlist", Message: err.Error()})
		return result
	}

	genLogPath := filepath.Join(assets.LogsDir(episodeDir), "gen.jsonl")

	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	var mu sync.Mutex

	for _, spec := range specs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcome := generateOne(episodeDir, genLogPath, provider, resolver, spec, opts)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case outcome.err != nil:
				result.Errors = append(result.Errors, AssetError{AssetID: spec.AssetID, Message: outcome.err.Error()})
			case outcome.skipped:
				result.Skipped = append(result.Skipped, spec.AssetID)
			default:
				result.Generated = append(result.Generated, spec.AssetID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Отмена контекста: часть ассетов так и не была обработана
		result.Errors = append(result.Errors, AssetError{AssetID: "generation", Message: err.Error()})
	}

	sort.Strings(result.Generated)
	sort.Strings(result.Skipped)
	return result
}

type genOutcome struct {
	skipped bool
	err     error
}

func generateOne(episodeDir, genLogPath string, provider ImageProvider, resolver *PromptResolver, spec AssetSpec, opts Options) genOutcome {
	resolved, err := resolver.Resolve(spec.TemplateName, spec.Params)
	if err != nil {
		return genOutcome{err: err}
	}

	cacheKey := cache.AssetCacheKey(spec.AssetType, spec.AssetID, resolved.Text, spec.Width, spec.Height, provider.ProviderID())

	if !opts.Force {
		if _, err := os.Stat(spec.OutPath); err == nil {
			existing := cache.ReadSidecarCacheKey(spec.OutPath)
			if existing == cacheKey {
				return genOutcome{skipped: true}
			}
			if existing == "" && opts.ChangedOnly {
				// Плита без сайдкара сделана вручную, не трогаем
				return genOutcome{skipped: true}
			}
		}
	}

	generated, err := provider.Generate(ImageGenRequest{
		AssetType:      spec.AssetType,
		AssetID:        spec.AssetID,
		TemplateName:   spec.TemplateName,
		ResolvedPrompt: resolved.Text,
		Width:          spec.Width,
		Height:         spec.Height,
		OutPath:        spec.OutPath,
	})
	if err != nil {
		return genOutcome{err: err}
	}

	if err := LogResolvedPrompt(episodeDir, spec.AssetID, resolved); err != nil {
		return genOutcome{err: err}
	}

	sidecar := map[string]any{
		"asset_id":        spec.AssetID,
		"asset_type":      spec.AssetType,
		"cache_key":       cacheKey,
		"output_hash":     generated.OutputHash,
		"provider_id":     generated.ProviderID,
		"model_id":        generated.ModelID,
		"template_name":   spec.TemplateName,
		"params":          spec.Params,
		"resolved_prompt": resolved.Text,
		"timestamp":       provenance.NowUTC(),
	}
	if err := provenance.WriteSidecar(spec.OutPath, sidecar); err != nil {
		return genOutcome{err: err}
	}

	logEntry := map[string]any{
		"event":       "asset_generated",
		"asset_id":    spec.AssetID,
		"asset_type":  spec.AssetType,
		"provider_id": generated.ProviderID,
		"cache_key":   cacheKey,
		"output_hash": generated.OutputHash,
		"out_path":    spec.OutPath,
		"timestamp":   provenance.NowUTC(),
	}
	if err := provenance.AppendJSONL(genLogPath, logEntry); err != nil {
		return genOutcome{err: err}
	}
	return genOutcome{}
}

// Summary renders a short human line for console output.
func (r Result) Summary() string {
	return fmt.Sprintf("generated %d, skipped %d, errors %d", len(r.Generated), len(r.Skipped), len(r.Errors))
}
