package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ReadYAML decodes a YAML document from disk into out.
func ReadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadEpisode reads episode.yaml, fills defaults and validates.
func LoadEpisode(path string) (*Episode, error) {
	ep := &Episode{
		StyleProfile: "comic_low_fps_v1",
		Render:       DefaultRenderSettings(),
	}
	if err := ReadYAML(path, ep); err != nil {
		return nil, err
	}
	if ep.Render.FPS == 0 {
		ep.Render.FPS = 24
	}
	if ep.Render.Resolution == (Resolution{}) {
		ep.Render.Resolution = Resolution{1920, 1080}
	}
	if err := ep.Validate(); err != nil {
		return nil, err
	}
	return ep, nil
}

// LoadShotList reads shotlist.yaml, fills per-shot defaults and validates.
func LoadShotList(path string) (*ShotList, error) {
	sl := &ShotList{Version: 1}
	if err := ReadYAML(path, sl); err != nil {
		return nil, err
	}
	for i := range sl.Shots {
		applyShotDefaults(&sl.Shots[i])
	}
	if err := sl.Validate(); err != nil {
		return nil, err
	}
	return sl, nil
}

func applyShotDefaults(sh *Shot) {
	if sh.Camera.Move == "" {
		sh.Camera.Move = CameraNone
	}
	// Зум по умолчанию 1:1, иначе линейная интерполяция уводит кадр в ноль.
	if sh.Camera.Z0 == 0 {
		sh.Camera.Z0 = 1.0
	}
	if sh.Camera.Z1 == 0 {
		sh.Camera.Z1 = 1.0
	}
	for j := range sh.Actors {
		if sh.Actors[j].Pose == "" {
			sh.Actors[j].Pose = "idle"
		}
		if sh.Actors[j].Expression == "" {
			sh.Actors[j].Expression = "neutral"
		}
	}
}
