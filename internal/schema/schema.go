package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// Resolution is a [width, height] pair, serialized as a two-element sequence.
type Resolution [2]int

func (r Resolution) W() int { return r[0] }
func (r Resolution) H() int { return r[1] }

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r[0], r[1])
}

// RenderSettings holds per-episode render parameters.
type RenderSettings struct {
	FPS        int        `yaml:"fps" json:"fps"`
	Resolution Resolution `yaml:"resolution" json:"resolution"`
}

func DefaultRenderSettings() RenderSettings {
	return RenderSettings{FPS: 24, Resolution: Resolution{1920, 1080}}
}

// EpisodeAssets names the asset packs an episode draws from.
type EpisodeAssets struct {
	PosePacks   []string `yaml:"pose_packs" json:"pose_packs"`
	BGPack      string   `yaml:"bg_pack" json:"bg_pack"`
	OverlayPack string   `yaml:"overlay_pack" json:"overlay_pack"`
}

// EpisodeNotes carries the writers-room metadata for one installment.
type EpisodeNotes struct {
	RuleOfDay string `yaml:"rule_of_day" json:"rule_of_day"`
	Logline   string `yaml:"logline" json:"logline"`
}

// Episode is the top-level declarative description of one show installment.
type Episode struct {
	ID               string         `yaml:"id" json:"id"`
	Title            string         `yaml:"title" json:"title"`
	RuntimeTargetSec int            `yaml:"runtime_target_sec" json:"runtime_target_sec"`
	Biome            string         `yaml:"biome" json:"biome"`
	Cast             []string       `yaml:"cast" json:"cast"`
	StyleProfile     string         `yaml:"style_profile" json:"style_profile"`
	Render           RenderSettings `yaml:"render" json:"render"`
	Assets           EpisodeAssets  `yaml:"assets" json:"assets"`
	Notes            EpisodeNotes   `yaml:"notes" json:"notes"`
}

var episodeIDPattern = regexp.MustCompile(`^s\d{2}e\d{2}$`)

// Validate checks the structural constraints pydantic enforced upstream:
// id pattern, runtime bounds, non-empty cast.
func (e *Episode) Validate() error {
	var problems []string
	if !episodeIDPattern.MatchString(e.ID) {
		problems = append(problems, fmt.Sprintf("id %q does not match sNNeNN", e.ID))
	}
	if e.RuntimeTargetSec < 60 || e.RuntimeTargetSec > 3600 {
		problems = append(problems, fmt.Sprintf("runtime_target_sec %d outside [60, 3600]", e.RuntimeTargetSec))
	}
	if len(e.Cast) == 0 {
		problems = append(problems, "cast must not be empty")
	}
	if len(problems) > 0 {
		return fmt.Errorf("episode %s: %s", e.ID, strings.Join(problems, "; "))
	}
	return nil
}

// CameraMoveType enumerates the supported camera moves.
type CameraMoveType string

const (
	CameraNone     CameraMoveType = "none"
	CameraPan      CameraMoveType = "pan"
	CameraSlowpush CameraMoveType = "slowpush"
	CameraShake    CameraMoveType = "shake"
)

func (m CameraMoveType) Valid() bool {
	switch m {
	case CameraNone, CameraPan, CameraSlowpush, CameraShake:
		return true
	}
	return false
}

// CameraMove describes one shot's camera path: position endpoints (x0,y0)→(x1,y1)
// and zoom endpoints z0→z1, linearly interpolated over the shot, plus shake strength.
type CameraMove struct {
	Move     CameraMoveType `yaml:"move" json:"move"`
	X0       float64        `yaml:"x0" json:"x0"`
	X1       float64        `yaml:"x1" json:"x1"`
	Y0       float64        `yaml:"y0" json:"y0"`
	Y1       float64        `yaml:"y1" json:"y1"`
	Z0       float64        `yaml:"z0" json:"z0"`
	Z1       float64        `yaml:"z1" json:"z1"`
	Strength float64        `yaml:"strength" json:"strength"`
}

func DefaultCameraMove() CameraMove {
	return CameraMove{Move: CameraNone, Z0: 1.0, Z1: 1.0}
}

// ActorRef places one character in a shot. Position and scale are normalized
// and optional; nil means auto-derived at composite time.
type ActorRef struct {
	Character  string   `yaml:"character" json:"character"`
	Pose       string   `yaml:"pose" json:"pose"`
	Expression string   `yaml:"expression" json:"expression"`
	MouthTrack string   `yaml:"mouth_track,omitempty" json:"mouth_track,omitempty"`
	X          *float64 `yaml:"x,omitempty" json:"x,omitempty"`
	Y          *float64 `yaml:"y,omitempty" json:"y,omitempty"`
	Scale      *float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
}

// OverlayRef references an overlay asset, optionally carrying text.
type OverlayRef struct {
	ID   string   `yaml:"id" json:"id"`
	Text string   `yaml:"text,omitempty" json:"text,omitempty"`
	X    *float64 `yaml:"x,omitempty" json:"x,omitempty"`
	Y    *float64 `yaml:"y,omitempty" json:"y,omitempty"`
}

// AudioLevels are per-category volume multipliers in [0,1].
type AudioLevels struct {
	Dialogue float64 `yaml:"dialogue" json:"dialogue"`
	SFX      float64 `yaml:"sfx" json:"sfx"`
	Music    float64 `yaml:"music" json:"music"`
}

func DefaultAudioLevels() AudioLevels {
	return AudioLevels{Dialogue: 1.0, SFX: 0.8, Music: 0.3}
}

// AudioRef lists the audio cues for one shot.
type AudioRef struct {
	Dialogue []string     `yaml:"dialogue" json:"dialogue"`
	SFX      []string     `yaml:"sfx" json:"sfx"`
	MusicBed string       `yaml:"music_bed,omitempty" json:"music_bed,omitempty"`
	Levels   *AudioLevels `yaml:"levels,omitempty" json:"levels,omitempty"`
}

// Shot is one continuous camera take.
type Shot struct {
	ID       string       `yaml:"id" json:"id"`
	DurSec   float64      `yaml:"dur_sec" json:"dur_sec"`
	BG       string       `yaml:"bg" json:"bg"`
	Camera   CameraMove   `yaml:"camera" json:"camera"`
	Actors   []ActorRef   `yaml:"actors" json:"actors"`
	Overlays []OverlayRef `yaml:"overlays" json:"overlays"`
	FX       []string     `yaml:"fx" json:"fx"`
	Audio    AudioRef     `yaml:"audio" json:"audio"`
}

// Validate enforces duration bounds and the no-duplicate-character invariant.
func (s *Shot) Validate() error {
	var problems []string
	if s.DurSec <= 0 || s.DurSec > 60 {
		problems = append(problems, fmt.Sprintf("dur_sec %.3f outside (0, 60]", s.DurSec))
	}
	if s.BG == "" {
		problems = append(problems, "bg must not be empty")
	}
	if !s.Camera.Move.Valid() {
		problems = append(problems, fmt.Sprintf("unknown camera move %q", s.Camera.Move))
	}
	seen := make(map[string]bool, len(s.Actors))
	for _, a := range s.Actors {
		if seen[a.Character] {
			problems = append(problems, fmt.Sprintf("duplicate character %q", a.Character))
		}
		seen[a.Character] = true
	}
	if len(problems) > 0 {
		return fmt.Errorf("shot %s: %s", s.ID, strings.Join(problems, "; "))
	}
	return nil
}

// ShotList is the ordered sequence of takes within an episode.
// Shot order is presentation order and is preserved end-to-end.
type ShotList struct {
	Version int    `yaml:"version" json:"version"`
	Shots   []Shot `yaml:"shots" json:"shots"`
}

func (sl *ShotList) Validate() error {
	var problems []string
	for i := range sl.Shots {
		if err := sl.Shots[i].Validate(); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("shotlist: %s", strings.Join(problems, "; "))
	}
	return nil
}
