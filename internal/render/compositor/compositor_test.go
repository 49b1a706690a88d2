package compositor

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivlev/showrunner/internal/render/ir"
	"github.com/ivlev/showrunner/internal/schema"
)

func writePNG(t *testing.T, path string, w, h int, c color.RGBA) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func testAssetsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "bg", "bg_dunes.png"), 320, 180, color.RGBA{40, 90, 150, 255})
	writePNG(t, filepath.Join(dir, "cutouts", "juno_idle_neutral.png"), 60, 120, color.RGBA{255, 0, 0, 255})
	writePNG(t, filepath.Join(dir, "cutouts", "pax_idle.png"), 60, 120, color.RGBA{0, 255, 0, 255})
	return dir
}

func TestRenderFrameBasic(t *testing.T) {
	comp := New(testAssetsDir(t), schema.Resolution{320, 180})

	shot := &ir.ShotIR{
		ID:         "sh010",
		FrameCount: 48,
		BG:         "bg_dunes",
		Camera:     ir.CameraMoveIR{Move: schema.CameraNone, Z0: 1, Z1: 1},
		Actors: []ir.ActorIR{
			{Character: "juno", Pose: "idle", Expression: "neutral"},
		},
	}

	frame, err := comp.RenderFrame(shot, 0)
	if err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	defer comp.Release(frame)

	if frame.Bounds().Dx() != 320 || frame.Bounds().Dy() != 180 {
		t.Fatalf("frame size: %v", frame.Bounds())
	}

	// Single actor lands centered: bottom at y=0.7, red pixels above it
	px := frame.RGBAAt(160, int(0.7*180)-5)
	if px.R != 255 || px.G != 0 {
		t.Errorf("expected actor pixel at center, got %+v", px)
	}
	// Corner stays background
	corner := frame.RGBAAt(2, 2)
	if corner.B != 150 {
		t.Errorf("expected background pixel in corner, got %+v", corner)
	}
}

func TestCutoutExpressionFallback(t *testing.T) {
	comp := New(testAssetsDir(t), schema.Resolution{320, 180})

	// pax has no pax_idle_neutral.png, only pax_idle.png
	shot := &ir.ShotIR{
		ID:         "sh020",
		FrameCount: 1,
		BG:         "bg_dunes",
		Camera:     ir.CameraMoveIR{Move: schema.CameraNone, Z0: 1, Z1: 1},
		Actors: []ir.ActorIR{
			{Character: "pax", Pose: "idle", Expression: "neutral"},
		},
	}

	frame, err := comp.RenderFrame(shot, 0)
	if err != nil {
		t.Fatalf("RenderFrame with fallback: %v", err)
	}
	comp.Release(frame)
}

func TestMissingBackgroundError(t *testing.T) {
	comp := New(testAssetsDir(t), schema.Resolution{320, 180})

	shot := &ir.ShotIR{
		ID: "sh030", FrameCount: 1, BG: "bg_void",
		Camera: ir.CameraMoveIR{Move: schema.CameraNone, Z0: 1, Z1: 1},
	}

	_, err := comp.RenderFrame(shot, 0)
	var missing *MissingAssetError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingAssetError, got %v", err)
	}
	if missing.AssetType != "background" || missing.AssetID != "bg_void" {
		t.Errorf("error fields: %+v", missing)
	}
	if missing.Path == "" {
		t.Error("error must carry the expected path")
	}
}

func TestMissingCutoutError(t *testing.T) {
	comp := New(testAssetsDir(t), schema.Resolution{320, 180})

	shot := &ir.ShotIR{
		ID: "sh040", FrameCount: 1, BG: "bg_dunes",
		Camera: ir.CameraMoveIR{Move: schema.CameraNone, Z0: 1, Z1: 1},
		Actors: []ir.ActorIR{{Character: "nyx", Pose: "run", Expression: "angry"}},
	}

	_, err := comp.RenderFrame(shot, 0)
	var missing *MissingAssetError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingAssetError, got %v", err)
	}
	if missing.AssetType != "cutout" || missing.AssetID != "nyx_run_angry" {
		t.Errorf("error fields: %+v", missing)
	}
}

func TestResolvePlacement(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name      string
		actor     ir.ActorIR
		idx       int
		total     int
		wantX     float64
		wantY     float64
		wantScale float64
	}{
		{"single actor centers", ir.ActorIR{}, 0, 1, 0.5, 0.7, 0.5},
		{"first of three", ir.ActorIR{}, 0, 3, 0.2, 0.7, 0.5},
		{"second of three", ir.ActorIR{}, 1, 3, 0.5, 0.7, 0.5},
		{"third of three", ir.ActorIR{}, 2, 3, 0.8, 0.7, 0.5},
		{"first of two", ir.ActorIR{}, 0, 2, 0.2, 0.7, 0.5},
		{"second of two", ir.ActorIR{}, 1, 2, 0.8, 0.7, 0.5},
		{"explicit position wins", ir.ActorIR{X: f(0.33), Y: f(0.9), Scale: f(0.25)}, 0, 3, 0.33, 0.9, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, scale := resolvePlacement(tt.actor, tt.idx, tt.total)
			if math.Abs(x-tt.wantX) > 1e-9 || math.Abs(y-tt.wantY) > 1e-9 || math.Abs(scale-tt.wantScale) > 1e-9 {
				t.Errorf("got (%v, %v, %v), want (%v, %v, %v)", x, y, scale, tt.wantX, tt.wantY, tt.wantScale)
			}
		})
	}
}

func TestRenderFrameDeterministic(t *testing.T) {
	assetsDir := testAssetsDir(t)

	shot := &ir.ShotIR{
		ID: "sh050", FrameCount: 48, BG: "bg_dunes",
		Camera: ir.CameraMoveIR{Move: schema.CameraShake, Z0: 1, Z1: 1, Strength: 2},
		Actors: []ir.ActorIR{{Character: "juno", Pose: "idle", Expression: "neutral"}},
	}

	render := func() *image.RGBA {
		comp := New(assetsDir, schema.Resolution{320, 180})
		frame, err := comp.RenderFrame(shot, 17)
		if err != nil {
			t.Fatalf("RenderFrame: %v", err)
		}
		out := image.NewRGBA(frame.Bounds())
		copy(out.Pix, frame.Pix)
		comp.Release(frame)
		return out
	}

	a, b := render(), render()
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("frames differ at byte %d", i)
		}
	}
}

func TestOverlayTextAtDefaultAnchor(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "bg", "bg_white.png"), 320, 180, color.RGBA{255, 255, 255, 255})

	comp := New(dir, schema.Resolution{320, 180})
	shot := &ir.ShotIR{
		ID: "sh070", FrameCount: 1, BG: "bg_white",
		Camera:   ir.CameraMoveIR{Move: schema.CameraNone, Z0: 1, Z1: 1},
		Overlays: []ir.OverlayIR{{ID: "caption", Text: "HELLO"}},
	}

	frame, err := comp.RenderFrame(shot, 0)
	if err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	defer comp.Release(frame)

	// Текст центрируется на (0.5, 0.9): тёмные глифы возле (160, 162)
	dark := 0
	for y := 150; y < 175; y++ {
		for x := 130; x < 190; x++ {
			px := frame.RGBAAt(x, y)
			if px.R < 128 && px.G < 128 && px.B < 128 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Fatal("no glyph pixels near the default overlay anchor")
	}

	// Nothing above the caption band gets touched
	for y := 0; y < 140; y++ {
		for x := 0; x < 320; x++ {
			if px := frame.RGBAAt(x, y); px.R != 255 {
				t.Fatalf("pixel (%d,%d) outside the caption band changed: %+v", x, y, px)
			}
		}
	}
}

func TestOverlayExplicitPositionWins(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "bg", "bg_white.png"), 320, 180, color.RGBA{255, 255, 255, 255})

	comp := New(dir, schema.Resolution{320, 180})
	f := func(v float64) *float64 { return &v }
	shot := &ir.ShotIR{
		ID: "sh071", FrameCount: 1, BG: "bg_white",
		Camera:   ir.CameraMoveIR{Move: schema.CameraNone, Z0: 1, Z1: 1},
		Overlays: []ir.OverlayIR{{ID: "title", Text: "HELLO", X: f(0.5), Y: f(0.2)}},
	}

	frame, err := comp.RenderFrame(shot, 0)
	if err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	defer comp.Release(frame)

	dark := 0
	for y := 25; y < 50; y++ {
		for x := 130; x < 190; x++ {
			px := frame.RGBAAt(x, y)
			if px.R < 128 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Fatal("no glyph pixels at the explicit overlay position")
	}
}

func TestOverlayWithoutTextIsInert(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "bg", "bg_white.png"), 320, 180, color.RGBA{255, 255, 255, 255})

	render := func(overlays []ir.OverlayIR) *image.RGBA {
		comp := New(dir, schema.Resolution{320, 180})
		shot := &ir.ShotIR{
			ID: "sh072", FrameCount: 1, BG: "bg_white",
			Camera:   ir.CameraMoveIR{Move: schema.CameraNone, Z0: 1, Z1: 1},
			Overlays: overlays,
		}
		frame, err := comp.RenderFrame(shot, 0)
		if err != nil {
			t.Fatalf("RenderFrame: %v", err)
		}
		out := image.NewRGBA(frame.Bounds())
		copy(out.Pix, frame.Pix)
		comp.Release(frame)
		return out
	}

	plain := render(nil)
	withOverlay := render([]ir.OverlayIR{{ID: "lower_third"}})

	for i := range plain.Pix {
		if plain.Pix[i] != withOverlay.Pix[i] {
			t.Fatalf("text-less overlay changed the frame at byte %d", i)
		}
	}
}

func TestZOrderLaterActorOnTop(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "bg", "bg_flat.png"), 100, 100, color.RGBA{0, 0, 0, 255})
	writePNG(t, filepath.Join(dir, "cutouts", "a_idle_neutral.png"), 40, 40, color.RGBA{255, 0, 0, 255})
	writePNG(t, filepath.Join(dir, "cutouts", "b_idle_neutral.png"), 40, 40, color.RGBA{0, 0, 255, 255})

	comp := New(dir, schema.Resolution{100, 100})
	f := func(v float64) *float64 { return &v }

	// Both actors at the same spot; the later one must win
	shot := &ir.ShotIR{
		ID: "sh060", FrameCount: 1, BG: "bg_flat",
		Camera: ir.CameraMoveIR{Move: schema.CameraNone, Z0: 1, Z1: 1},
		Actors: []ir.ActorIR{
			{Character: "a", Pose: "idle", Expression: "neutral", X: f(0.5), Y: f(0.9), Scale: f(0.4)},
			{Character: "b", Pose: "idle", Expression: "neutral", X: f(0.5), Y: f(0.9), Scale: f(0.4)},
		},
	}

	frame, err := comp.RenderFrame(shot, 0)
	if err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	defer comp.Release(frame)

	px := frame.RGBAAt(50, 80)
	if px.B != 255 || px.R != 0 {
		t.Errorf("expected later actor on top, got %+v", px)
	}
}
