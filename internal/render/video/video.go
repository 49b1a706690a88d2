// Package video assembles numbered frame files into an MP4 through the
// system ffmpeg binary.
package video

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FFmpegExists reports whether ffmpeg is available on PATH.
func FFmpegExists() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// FFprobeExists reports whether ffprobe is available on PATH.
func FFprobeExists() bool {
	_, err := exec.LookPath("ffprobe")
	return err == nil
}

// AudioDuration returns an audio file's duration in seconds via ffprobe.
func AudioDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return dur, nil
}

// AssembleOptions parameterize the frames → MP4 encode.
type AssembleOptions struct {
	FPS       int
	AudioPath string // optional mixed audio track
	CRF       int    // 0 means default 23
	Codec     string // "" means libx264
}

// Assemble encodes frames_*.png in framesDir into outputPath.
// Frame files must already be numbered in final order.
func Assemble(ctx context.Context, framesDir, outputPath string, opts AssembleOptions) error {
	if !FFmpegExists() {
		return fmt.Errorf("ffmpeg not found on PATH")
	}

	matches, err := filepath.Glob(filepath.Join(framesDir, "frame_*.png"))
	if err != nil {
		return err
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		return fmt.Errorf("no frames found in %s", framesDir)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return err
	}

	crf := opts.CRF
	if crf == 0 {
		crf = 23
	}
	codec := opts.Codec
	if codec == "" {
		codec = "libx264"
	}

	args := []string{
		"-y",
		"-framerate", strconv.Itoa(opts.FPS),
		"-i", filepath.Join(framesDir, "frame_%06d.png"),
	}
	if opts.AudioPath != "" {
		args = append(args, "-i", opts.AudioPath)
	}
	args = append(args,
		"-c:v", codec,
		"-pix_fmt", "yuv420p",
		"-crf", strconv.Itoa(crf),
	)
	if opts.AudioPath != "" {
		args = append(args, "-c:a", "aac", "-shortest")
	}
	args = append(args, outputPath)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg assemble error: %v, output: %s", err, out.String())
	}
	return nil
}
