// Package build sequences the full episode pipeline: a fixed, fail-fast
// chain of stages from validation through provenance bundling.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivlev/showrunner/internal/assets"
	"github.com/ivlev/showrunner/internal/gen"
	"github.com/ivlev/showrunner/internal/plan"
	"github.com/ivlev/showrunner/internal/provenance"
	"github.com/ivlev/showrunner/internal/qc"
	"github.com/ivlev/showrunner/internal/render/audio"
	"github.com/ivlev/showrunner/internal/render/frames"
	"github.com/ivlev/showrunner/internal/render/timeline"
	"github.com/ivlev/showrunner/internal/render/video"
	"github.com/ivlev/showrunner/internal/schema"
	"github.com/ivlev/showrunner/internal/validate"
)

// Options selects which stages run and how collaborators behave.
type Options struct {
	Force          bool
	ChangedOnly    bool
	SkipValidation bool
	SkipQC         bool
	DryRun         bool
	Provider       string
	OutputPath     string
	Workers        int
}

// StageResult records one stage invocation.
type StageResult struct {
	Name        string
	Success     bool
	DurationSec float64
	Message     string
}

// BuildResult aggregates one pipeline run. StagesCompleted is always a prefix
// of the enabled stage order: nothing after the first failure appears.
type BuildResult struct {
	Success         bool
	StagesCompleted []string
	OutputPath      string
	Errors          []string
	Warnings        []string
	StageResults    []StageResult
}

type stageFunc func() (bool, string)

// stage bundles name, enabled flag and execution closure so the order and
// the lookup can never drift apart.
type stage struct {
	name    string
	enabled bool
	run     stageFunc
}

// Orchestrator drives one build of one episode. The collaborator fields are
// function values so stage semantics stay testable without real rendering.
type Orchestrator struct {
	episodeYAML string
	episodeDir  string
	logsDir     string
	opts        Options

	validateEpisode func() validate.Result
	writePlan       func() error
	generateAssets  func(ctx context.Context) gen.Result
	writeTimeline   func() (string, error)
	imagingReady    func() bool
	renderFrames    func() (int, error)
	mixAudio        func(ctx context.Context) audio.MixResult
	encoderReady    func() bool
	assembleVideo   func(ctx context.Context) (string, error)
	runQC           func() (qc.Result, error)
	writeBundle     func() (string, error)
}

// NewOrchestrator wires the production collaborators.
func NewOrchestrator(episodeYAML string, opts Options) *Orchestrator {
	episodeDir := filepath.Dir(episodeYAML)
	logsDir := assets.LogsDir(episodeDir)

	o := &Orchestrator{
		episodeYAML: episodeYAML,
		episodeDir:  episodeDir,
		logsDir:     logsDir,
		opts:        opts,
	}

	o.validateEpisode = func() validate.Result {
		return validate.Episode(episodeYAML, true)
	}
	o.writePlan = func() error {
		_, err := plan.Write(episodeYAML, filepath.Join(logsDir, "plan.json"))
		return err
	}
	o.generateAssets = func(ctx context.Context) gen.Result {
		return gen.GenerateEpisodeAssets(ctx, episodeYAML, gen.Options{
			Force:       opts.Force,
			ChangedOnly: opts.ChangedOnly,
			Provider:    opts.Provider,
			Workers:     opts.Workers,
		})
	}
	o.writeTimeline = func() (string, error) {
		return timeline.Write(episodeYAML)
	}
	o.imagingReady = func() bool { return true }
	o.renderFrames = func() (int, error) {
		paths, err := frames.RenderEpisode(episodeYAML)
		return len(paths), err
	}
	o.mixAudio = func(ctx context.Context) audio.MixResult {
		return audio.MixEpisode(ctx, episodeYAML)
	}
	o.encoderReady = video.FFmpegExists
	o.assembleVideo = func(ctx context.Context) (string, error) {
		ep, err := schema.LoadEpisode(episodeYAML)
		if err != nil {
			return "", err
		}
		outputPath := opts.OutputPath
		if outputPath == "" {
			outputPath = filepath.Join(assets.RendersDir(episodeDir), ep.ID+".mp4")
		}
		audioPath := filepath.Join(assets.RendersDir(episodeDir), "audio_mix.wav")
		if _, err := os.Stat(audioPath); err != nil {
			audioPath = ""
		}
		err = video.Assemble(ctx, assets.FramesDir(episodeDir), outputPath, video.AssembleOptions{
			FPS:       ep.Render.FPS,
			AudioPath: audioPath,
		})
		return outputPath, err
	}
	o.runQC = func() (qc.Result, error) {
		checker := qc.NewChecker()
		result := checker.Run(episodeYAML)
		_, err := qc.WriteReport(result, logsDir, filepath.Base(episodeDir))
		return result, err
	}
	o.writeBundle = func() (string, error) {
		return provenance.CreateBundle(episodeYAML, "")
	}
	return o
}

// Run executes the pipeline. Dry-run walks the stage list without invoking
// any collaborator and always succeeds.
func (o *Orchestrator) Run(ctx context.Context) *BuildResult {
	result := &BuildResult{}
	os.MkdirAll(o.logsDir, 0755)

	stages := o.stages(ctx, result)

	if o.opts.DryRun {
		for _, s := range stages {
			if s.enabled {
				result.StagesCompleted = append(result.StagesCompleted, s.name)
			} else {
				result.Warnings = append(result.Warnings, s.name+": skipped (disabled)")
			}
		}
		if !o.encoderReady() {
			result.Warnings = append(result.Warnings, "assemble_video: ffmpeg not available, would skip")
		}
		result.Success = true
		return result
	}

	for _, s := range stages {
		if !s.enabled {
			result.Warnings = append(result.Warnings, s.name+": skipped (disabled)")
			continue
		}
		if !runStage(s, result) {
			o.writeBuildLog(result)
			return result
		}
	}

	result.Success = true
	o.writeBuildLog(result)
	return result
}

// Build runs the full pipeline over one episode with production wiring.
func Build(ctx context.Context, episodeYAML string, opts Options) *BuildResult {
	return NewOrchestrator(episodeYAML, opts).Run(ctx)
}

func (o *Orchestrator) stages(ctx context.Context, result *BuildResult) []stage {
	return []stage{
		{"validate", !o.opts.SkipValidation, func() (bool, string) {
			res := o.validateEpisode()
			if !res.OK {
				return false, strings.Join(res.Errors, "; ")
			}
			return true, fmt.Sprintf("valid (%d missing assets)", len(res.MissingFiles))
		}},
		{"plan", true, func() (bool, string) {
			if err := o.writePlan(); err != nil {
				return false, err.Error()
			}
			return true, "plan written"
		}},
		{"generate", true, func() (bool, string) {
			genResult := o.generateAssets(ctx)
			if len(genResult.Errors) > 0 {
				msgs := make([]string, len(genResult.Errors))
				for i, e := range genResult.Errors {
					msgs[i] = fmt.Sprintf("%s: %s", e.AssetID, e.Message)
				}
				return false, strings.Join(msgs, "; ")
			}
			return true, fmt.Sprintf("%d generated, %d cached", len(genResult.Generated), len(genResult.Skipped))
		}},
		{"timeline", true, func() (bool, string) {
			out, err := o.writeTimeline()
			if err != nil {
				return false, err.Error()
			}
			return true, "timeline written to " + out
		}},
		{"render_frames", true, func() (bool, string) {
			if !o.imagingReady() {
				result.Warnings = append(result.Warnings, "render_frames: imaging not available, skipping")
				return true, "skipped (imaging not available)"
			}
			n, err := o.renderFrames()
			if err != nil {
				return false, err.Error()
			}
			return true, fmt.Sprintf("%d frames rendered", n)
		}},
		{"audio_mix", true, func() (bool, string) {
			mix := o.mixAudio(ctx)
			if !mix.Success {
				if mix.Message == audio.NoTracksMessage {
					result.Warnings = append(result.Warnings, "audio_mix: no audio tracks available")
					return true, "skipped (no audio tracks)"
				}
				return false, mix.Message
			}
			if len(mix.TracksMissing) > 0 {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("audio_mix: %d referenced tracks missing", len(mix.TracksMissing)))
			}
			return true, mix.Message
		}},
		{"assemble_video", true, func() (bool, string) {
			if !o.encoderReady() {
				result.Warnings = append(result.Warnings, "assemble_video: ffmpeg not available, skipping")
				return true, "skipped (ffmpeg not available)"
			}
			out, err := o.assembleVideo(ctx)
			if err != nil {
				return false, err.Error()
			}
			result.OutputPath = out
			return true, "video written to " + out
		}},
		{"qc_check", !o.opts.SkipQC, func() (bool, string) {
			res, reportErr := o.runQC()
			if reportErr != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("qc_check: report not written: %v", reportErr))
			}
			if !res.Passed {
				return false, summarizeQCErrors(res.Errors)
			}
			return true, fmt.Sprintf("passed (%d warnings)", len(res.Warnings))
		}},
		{"provenance_bundle", true, func() (bool, string) {
			out, err := o.writeBundle()
			if err != nil {
				return false, err.Error()
			}
			return true, "bundle written to " + out
		}},
	}
}

// summarizeQCErrors keeps failure messages readable: at most three errors,
// then a count of the rest.
func summarizeQCErrors(errs []string) string {
	const maxShown = 3
	if len(errs) <= maxShown {
		return strings.Join(errs, "; ")
	}
	return fmt.Sprintf("%s; +%d more", strings.Join(errs[:maxShown], "; "), len(errs)-maxShown)
}

// runStage times one stage and converts panics from collaborators into
// ordinary stage failures.
func runStage(s stage, result *BuildResult) bool {
	start := time.Now()
	success, msg := func() (ok bool, msg string) {
		defer func() {
			if r := recover(); r != nil {
				ok = false
				msg = fmt.Sprint(r)
			}
		}()
		return s.run()
	}()
	duration := time.Since(start).Seconds()

	result.StageResults = append(result.StageResults, StageResult{
		Name:        s.name,
		Success:     success,
		DurationSec: duration,
		Message:     msg,
	})
	if success {
		result.StagesCompleted = append(result.StagesCompleted, s.name)
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", s.name, msg))
	}
	return success
}
