package compositor

import (
	"math"
	"testing"

	"github.com/ivlev/showrunner/internal/render/ir"
	"github.com/ivlev/showrunner/internal/schema"
)

func TestInterpolationT(t *testing.T) {
	tests := []struct {
		name        string
		frameInShot int
		frameCount  int
		want        float64
	}{
		{"first frame", 0, 96, 0.0},
		{"last frame", 95, 96, 1.0},
		{"midpoint", 12, 25, 0.5},
		{"single frame shot", 0, 1, 0.0},
		{"zero frame count", 0, 0, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InterpolationT(tt.frameInShot, tt.frameCount)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("InterpolationT(%d, %d) = %v, want %v", tt.frameInShot, tt.frameCount, got, tt.want)
			}
		})
	}
}

func TestResolveCameraLerp(t *testing.T) {
	cam := ir.CameraMoveIR{
		Move: schema.CameraPan,
		X0:   0.0, X1: 0.2,
		Y0: 0.1, Y1: 0.3,
		Z0: 1.0, Z1: 1.5,
	}

	start := ResolveCamera(cam, 0, 100)
	if start.PanX != 0.0 || start.PanY != 0.1 || start.Zoom != 1.0 {
		t.Errorf("start state: %+v", start)
	}

	end := ResolveCamera(cam, 99, 100)
	if math.Abs(end.PanX-0.2) > 1e-9 || math.Abs(end.PanY-0.3) > 1e-9 || math.Abs(end.Zoom-1.5) > 1e-9 {
		t.Errorf("end state: %+v", end)
	}

	mid := ResolveCamera(cam, 49, 99)
	if math.Abs(mid.PanX-0.1) > 1e-9 || math.Abs(mid.Zoom-1.25) > 1e-9 {
		t.Errorf("mid state: %+v", mid)
	}
}

func TestResolveCameraShakeDeterministic(t *testing.T) {
	cam := ir.CameraMoveIR{
		Move: schema.CameraShake,
		Z0:   1.0, Z1: 1.0,
		Strength: 1.0,
	}

	a := ResolveCamera(cam, 7, 48)
	b := ResolveCamera(cam, 7, 48)
	if a != b {
		t.Errorf("shake is not deterministic: %+v vs %+v", a, b)
	}

	wantX := 1.0 * 0.01 * math.Sin(7*0.5)
	wantY := 1.0 * 0.01 * math.Cos(7*0.7)
	if math.Abs(a.PanX-wantX) > 1e-9 || math.Abs(a.PanY-wantY) > 1e-9 {
		t.Errorf("jitter: got (%v, %v), want (%v, %v)", a.PanX, a.PanY, wantX, wantY)
	}

	// Different frames jitter differently
	c := ResolveCamera(cam, 8, 48)
	if a.PanX == c.PanX && a.PanY == c.PanY {
		t.Error("consecutive frames have identical jitter")
	}
}

func TestResolveCameraNoShakeWithoutStrength(t *testing.T) {
	cam := ir.CameraMoveIR{Move: schema.CameraShake, Z0: 1.0, Z1: 1.0}
	state := ResolveCamera(cam, 5, 48)
	if state.PanX != 0.0 || state.PanY != 0.0 {
		t.Errorf("zero strength must not jitter: %+v", state)
	}
}
