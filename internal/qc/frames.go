package qc

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"os"

	"github.com/ivlev/showrunner/internal/assets"
)

// BlankFrameCheck samples rendered frames and flags near-uniform ones: a
// frame with almost no luminance variance usually means a compositing miss.
type BlankFrameCheck struct {
	SampleCount       int
	VarianceThreshold float64
}

func NewBlankFrameCheck() *BlankFrameCheck {
	return &BlankFrameCheck{
		SampleCount:       12,
		VarianceThreshold: 4.0,
	}
}

func (c *BlankFrameCheck) Name() string { return "blank_frames" }

func (c *BlankFrameCheck) Check(ctx *Context) RuleResult {
	result := RuleResult{RuleName: c.Name(), Passed: true}

	paths := sampleFramePaths(assets.FramesDir(ctx.EpisodeDir), c.SampleCount)
	if len(paths) == 0 {
		result.Warnings = append(result.Warnings, "No rendered frames available for blank frame check")
		return result
	}

	for _, path := range paths {
		variance, err := luminanceVariance(path)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Frame %s: %v", path, err))
			continue
		}
		if variance < c.VarianceThreshold {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Frame %s looks blank (luminance variance %.2f)", path, variance))
		}
	}
	return result
}

// luminanceVariance computes grayscale variance over a subsampled grid.
// Full-resolution scans are wasteful here, every 8th pixel is plenty.
func luminanceVariance(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return 0, err
	}

	bounds := img.Bounds()
	var sum, sumSq float64
	var count int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 8 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 8 {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			v := float64(g.Y)
			sum += v
			sumSq += v * v
			count++
		}
	}
	if count == 0 {
		return 0, fmt.Errorf("empty image")
	}
	mean := sum / float64(count)
	return sumSq/float64(count) - mean*mean, nil
}
