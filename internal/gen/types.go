package gen

// AssetType classifies what a provider is asked to draw.
const (
	AssetBackground = "background"
	AssetCutout     = "cutout"
)

// AssetSpec describes one asset the episode needs, before prompting.
type AssetSpec struct {
	AssetType    string
	AssetID      string
	TemplateName string
	Params       map[string]string
	Width        int
	Height       int
	OutPath      string
}

// ImageGenRequest is the fully resolved request handed to a provider.
type ImageGenRequest struct {
	AssetType      string
	AssetID        string
	TemplateName   string
	ResolvedPrompt string
	Width          int
	Height         int
	OutPath        string
}

// GeneratedAsset is what a provider reports back after writing the image.
type GeneratedAsset struct {
	OutPath    string
	OutputHash string
	ProviderID string
	ModelID    string
}

// Result summarizes one generation run over an episode.
type Result struct {
	Generated []string
	Skipped   []string
	Errors    []AssetError
}

// AssetError ties a failure to the asset (or stage) it happened on.
type AssetError struct {
	AssetID string
	Message string
}
