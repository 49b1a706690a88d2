package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/ivlev/showrunner/internal/render/ir"
	"github.com/ivlev/showrunner/internal/schema"
)

// InterpolationT returns the camera interpolation parameter for a frame:
// 0 at the first frame, 1 at the last, 0 for single-frame shots.
func InterpolationT(frameInShot, frameCount int) float64 {
	if frameCount <= 1 {
		return 0.0
	}
	return float64(frameInShot) / float64(frameCount-1)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// CameraState is the resolved pan/zoom for one frame.
type CameraState struct {
	PanX float64
	PanY float64
	Zoom float64
}

// ResolveCamera interpolates the camera between its endpoints for a frame and
// adds the shake jitter when the move is shake. Jitter depends only on the
// frame index, so re-rendering a frame is pixel-identical.
func ResolveCamera(cam ir.CameraMoveIR, frameInShot, frameCount int) CameraState {
	t := InterpolationT(frameInShot, frameCount)

	state := CameraState{
		PanX: lerp(cam.X0, cam.X1, t),
		PanY: lerp(cam.Y0, cam.Y1, t),
		Zoom: lerp(cam.Z0, cam.Z1, t),
	}

	if cam.Move == schema.CameraShake && cam.Strength > 0 {
		state.PanX += cam.Strength * 0.01 * math.Sin(float64(frameInShot)*0.5)
		state.PanY += cam.Strength * 0.01 * math.Cos(float64(frameInShot)*0.7)
	}
	return state
}

// applyCamera zooms the canvas about its center and offsets it by the pan,
// compositing onto an opaque black canvas of the target resolution.
func (c *Compositor) applyCamera(src *image.RGBA, cam ir.CameraMoveIR, frameInShot, frameCount int) *image.RGBA {
	w, h := c.resolution.W(), c.resolution.H()
	state := ResolveCamera(cam, frameInShot, frameCount)

	img := src
	if state.Zoom != 1.0 {
		newW := int(float64(src.Bounds().Dx()) * state.Zoom)
		newH := int(float64(src.Bounds().Dy()) * state.Zoom)
		if newW < 1 {
			newW = 1
		}
		if newH < 1 {
			newH = 1
		}
		img = scaleRGBA(src, newW, newH)
	}

	offsetX := int(state.PanX * float64(w))
	offsetY := int(state.PanY * float64(h))

	result := c.pool.Get(image.Rect(0, 0, w, h))
	draw.Draw(result, result.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)

	pasteX := (w-img.Bounds().Dx())/2 - offsetX
	pasteY := (h-img.Bounds().Dy())/2 - offsetY
	dst := image.Rect(pasteX, pasteY, pasteX+img.Bounds().Dx(), pasteY+img.Bounds().Dy())
	draw.Draw(result, dst, img, img.Bounds().Min, draw.Src)

	return result
}
