// Package frames walks the Timeline IR shot by shot, frame by frame, invoking
// the compositor and persisting numbered frame files. Frame numbering uses a
// single global counter across all shots, so lexicographic filename order is
// final video order.
package frames

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/ivlev/showrunner/internal/assets"
	"github.com/ivlev/showrunner/internal/render/compositor"
	"github.com/ivlev/showrunner/internal/render/ir"
	"github.com/ivlev/showrunner/internal/render/timeline"
)

// FrameName formats the file name of the num-th frame (1-based).
func FrameName(num int) string {
	return fmt.Sprintf("frame_%06d.png", num)
}

// RenderTimeline renders every frame of a timeline into outputDir.
// Rendering is strictly sequential; the first compositing error aborts the
// whole assembly.
func RenderTimeline(tl *ir.TimelineIR, assetsDir, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	comp := compositor.New(assetsDir, tl.Resolution)

	var framePaths []string
	frameNum := 1

	for si := range tl.Shots {
		shot := &tl.Shots[si]
		for frameInShot := 0; frameInShot < shot.FrameCount; frameInShot++ {
			img, err := comp.RenderFrame(shot, frameInShot)
			if err != nil {
				return nil, fmt.Errorf("shot %s frame %d: %w", shot.ID, frameInShot, err)
			}

			framePath := filepath.Join(outputDir, FrameName(frameNum))
			if err := savePNG(framePath, img); err != nil {
				comp.Release(img)
				return nil, err
			}
			comp.Release(img)

			framePaths = append(framePaths, framePath)
			frameNum++
		}
	}

	return framePaths, nil
}

// RenderEpisode loads the persisted timeline of an episode and renders all
// frames into renders/frames.
func RenderEpisode(episodeYAML string) ([]string, error) {
	episodeDir := filepath.Dir(episodeYAML)
	timelinePath := timeline.DefaultPath(episodeDir)

	tl, err := ir.Read(timelinePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("timeline not found: %s (run the timeline stage first)", timelinePath)
		}
		return nil, err
	}

	return RenderTimeline(tl, assets.Dir(episodeDir), assets.FramesDir(episodeDir))
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
