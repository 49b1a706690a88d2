// Package compositor renders single video frames from Timeline IR shots.
// A Compositor instance owns lazy caches of decoded background and cutout
// images; the caches live for one build run and are never shared.
package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/showrunner/internal/assets"
	"github.com/ivlev/showrunner/internal/render/ir"
	"github.com/ivlev/showrunner/internal/schema"
)

// Defaults applied when a placement leaves position or scale unset.
const (
	defaultActorY     = 0.7
	defaultActorScale = 0.5
	defaultOverlayX   = 0.5
	defaultOverlayY   = 0.9
)

// MissingAssetError identifies a background or cutout that could not be
// resolved on disk, including the path where it was expected.
type MissingAssetError struct {
	AssetType string
	AssetID   string
	Path      string
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("missing %s asset: %s (expected at %s)", e.AssetType, e.AssetID, e.Path)
}

// Compositor renders frames at a fixed target resolution.
type Compositor struct {
	assetsDir  string
	resolution schema.Resolution

	bgCache     map[string]*image.RGBA
	cutoutCache map[string]*image.RGBA
	pool        *canvasPool
}

// New creates a Compositor for one build run.
func New(assetsDir string, resolution schema.Resolution) *Compositor {
	return &Compositor{
		assetsDir:   assetsDir,
		resolution:  resolution,
		bgCache:     make(map[string]*image.RGBA),
		cutoutCache: make(map[string]*image.RGBA),
		pool:        newCanvasPool(),
	}
}

// RenderFrame renders one frame of a shot. frameInShot counts from 0 within
// the shot. The returned canvas may be recycled via Release once persisted.
func (c *Compositor) RenderFrame(shot *ir.ShotIR, frameInShot int) (*image.RGBA, error) {
	w, h := c.resolution.W(), c.resolution.H()

	bg, err := c.loadBG(shot.BG)
	if err != nil {
		return nil, err
	}

	canvas := c.pool.Get(image.Rect(0, 0, w, h))
	copy(canvas.Pix, bg.Pix)

	if shot.Camera.Move != schema.CameraNone {
		transformed := c.applyCamera(canvas, shot.Camera, frameInShot, shot.FrameCount)
		c.pool.Put(canvas)
		canvas = transformed
	}

	// Порядок в списке — это z-order: первый актер рисуется нижним.
	for idx, actor := range shot.Actors {
		cutout, err := c.loadCutout(actor.Character, actor.Pose, actor.Expression)
		if err != nil {
			return nil, err
		}
		x, y, scale := resolvePlacement(actor, idx, len(shot.Actors))
		scaled := c.scaleCutout(cutout, scale)
		compositeCutout(canvas, scaled, x, y)
	}

	for _, overlay := range shot.Overlays {
		c.applyOverlay(canvas, overlay)
	}

	return canvas, nil
}

// Release returns a canvas produced by RenderFrame to the internal pool.
func (c *Compositor) Release(img *image.RGBA) {
	c.pool.Put(img)
}

func (c *Compositor) loadBG(bgID string) (*image.RGBA, error) {
	if img, ok := c.bgCache[bgID]; ok {
		return img, nil
	}

	path := assets.BGPath(c.assetsDir, bgID)
	img, err := decodeRGBA(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingAssetError{AssetType: "background", AssetID: bgID, Path: path}
		}
		return nil, fmt.Errorf("background %s: %w", bgID, err)
	}

	if img.Bounds().Dx() != c.resolution.W() || img.Bounds().Dy() != c.resolution.H() {
		img = scaleRGBA(img, c.resolution.W(), c.resolution.H())
	}
	c.bgCache[bgID] = img
	return img, nil
}

func (c *Compositor) loadCutout(character, pose, expression string) (*image.RGBA, error) {
	cutoutID := assets.CutoutID(character, pose, expression)
	if img, ok := c.cutoutCache[cutoutID]; ok {
		return img, nil
	}

	path := assets.CutoutPath(c.assetsDir, character, pose, expression)
	if _, err := os.Stat(path); err != nil {
		// Фолбэк на вариант без выражения.
		fallback := assets.CutoutFallbackPath(c.assetsDir, character, pose)
		if _, err := os.Stat(fallback); err != nil {
			return nil, &MissingAssetError{AssetType: "cutout", AssetID: cutoutID, Path: fallback}
		}
		path = fallback
	}

	img, err := decodeRGBA(path)
	if err != nil {
		return nil, fmt.Errorf("cutout %s: %w", cutoutID, err)
	}
	c.cutoutCache[cutoutID] = img
	return img, nil
}

// resolvePlacement computes the normalized position and scale for one actor.
// A single unplaced actor centers at x=0.5; several spread evenly across the
// 0.2..0.8 band. y anchors the cutout's bottom edge.
func resolvePlacement(actor ir.ActorIR, idx, totalActors int) (x, y, scale float64) {
	if actor.X != nil {
		x = *actor.X
	} else if totalActors == 1 {
		x = 0.5
	} else {
		spacing := 0.6 / float64(totalActors-1)
		x = 0.2 + float64(idx)*spacing
	}

	y = defaultActorY
	if actor.Y != nil {
		y = *actor.Y
	}

	scale = defaultActorScale
	if actor.Scale != nil {
		scale = *actor.Scale
	}
	return x, y, scale
}

func (c *Compositor) scaleCutout(cutout *image.RGBA, scale float64) *image.RGBA {
	targetH := int(float64(c.resolution.H()) * scale)
	if targetH < 1 {
		targetH = 1
	}
	aspect := float64(cutout.Bounds().Dx()) / float64(cutout.Bounds().Dy())
	targetW := int(float64(targetH) * aspect)
	if targetW < 1 {
		targetW = 1
	}
	if targetW == cutout.Bounds().Dx() && targetH == cutout.Bounds().Dy() {
		return cutout
	}
	return scaleRGBA(cutout, targetW, targetH)
}

// compositeCutout draws the cutout with its own alpha so that its horizontal
// center lands on x*width and its bottom edge on y*height.
func compositeCutout(canvas, cutout *image.RGBA, x, y float64) {
	w := canvas.Bounds().Dx()
	h := canvas.Bounds().Dy()
	cw := cutout.Bounds().Dx()
	ch := cutout.Bounds().Dy()

	cx := int(x*float64(w)) - cw/2
	cy := int(y*float64(h)) - ch

	dst := image.Rect(cx, cy, cx+cw, cy+ch)
	draw.Draw(canvas, dst, cutout, cutout.Bounds().Min, draw.Over)
}

func (c *Compositor) applyOverlay(canvas *image.RGBA, overlay ir.OverlayIR) {
	if overlay.Text == "" {
		// Нетекстовые оверлеи зарезервированы под будущие виды.
		return
	}

	x := defaultOverlayX
	if overlay.X != nil {
		x = *overlay.X
	}
	y := defaultOverlayY
	if overlay.Y != nil {
		y = *overlay.Y
	}

	tx := int(x * float64(c.resolution.W()))
	ty := int(y * float64(c.resolution.H()))

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.RGBA{0, 0, 0, 255}),
		Face: face,
	}
	width := d.MeasureString(overlay.Text)
	d.Dot = fixed.Point26_6{
		X: fixed.I(tx) - width/2,
		Y: fixed.I(ty + face.Ascent - face.Height/2),
	}
	d.DrawString(overlay.Text)
}

func decodeRGBA(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return nil, err
	}
	if rgba, ok := src.(*image.RGBA); ok && rgba.Rect.Min == image.Pt(0, 0) {
		return rgba, nil
	}
	rgba := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, src.Bounds().Min, draw.Src)
	return rgba, nil
}

// scaleRGBA resamples src to w×h with Catmull-Rom, preserving alpha.
func scaleRGBA(src *image.RGBA, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
