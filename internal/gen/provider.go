package gen

import (
	"fmt"

	"github.com/ivlev/showrunner/internal/config"
)

// ImageProvider renders one requested asset to disk.
type ImageProvider interface {
	ProviderID() string
	Generate(req ImageGenRequest) (GeneratedAsset, error)
}

// NewProvider creates a provider based on the specified variant
func NewProvider(name string, cfg *config.Config) (ImageProvider, error) {
	switch name {
	case "placeholder", "":
		return NewPlaceholderProvider(), nil
	case "storyboard":
		if cfg.Providers.Storyboard == nil {
			return nil, fmt.Errorf("provider 'storyboard' is not configured in showrunner.toml, add [providers.storyboard] section")
		}
		return NewStoryboardProvider(cfg.Providers.Storyboard)
	case "comfyui":
		return nil, fmt.Errorf("ComfyUI provider not yet implemented")
	default:
		return nil, fmt.Errorf("unknown provider: %q, available providers: %v", name, cfg.AvailableProviders())
	}
}
