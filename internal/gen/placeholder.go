package gen

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/showrunner/internal/cache"
)

var assetTypeColors = map[string]color.RGBA{
	AssetBackground: {240, 240, 240, 255},
	AssetCutout:     {200, 220, 255, 255},
}

// PlaceholderProvider draws flat labeled plates. It needs no external
// services, so it is always available.
type PlaceholderProvider struct{}

func NewPlaceholderProvider() *PlaceholderProvider {
	return &PlaceholderProvider{}
}

func (p *PlaceholderProvider) ProviderID() string {
	return "placeholder"
}

func (p *PlaceholderProvider) Generate(req ImageGenRequest) (GeneratedAsset, error) {
	fill, ok := assetTypeColors[req.AssetType]
	if !ok {
		fill = color.RGBA{230, 230, 230, 255}
	}

	img := image.NewRGBA(image.Rect(0, 0, req.Width, req.Height))
	if req.AssetType == AssetCutout {
		// Вырезка прозрачная по краям, цветная внутри рамки
		margin := min(req.Width, req.Height) / 16
		inner := image.Rect(margin, margin, req.Width-margin, req.Height-margin)
		draw.Draw(img, inner, &image.Uniform{fill}, image.Point{}, draw.Src)
		drawBorder(img, inner, color.RGBA{0, 0, 0, 255}, 4)
	} else {
		draw.Draw(img, img.Bounds(), &image.Uniform{fill}, image.Point{}, draw.Src)
	}

	labelLines := []string{
		"Type: " + req.AssetType,
		"ID: " + req.AssetID,
		"Template: " + req.TemplateName,
		fmt.Sprintf("Size: %dx%d", req.Width, req.Height),
	}
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil() + 4
	for i, line := range labelLines {
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.RGBA{0, 0, 0, 255}),
			Face: face,
			Dot:  fixed.P(24, 24+face.Metrics().Ascent.Ceil()+i*lineHeight),
		}
		d.DrawString(line)
	}

	if err := os.MkdirAll(filepath.Dir(req.OutPath), 0755); err != nil {
		return GeneratedAsset{}, err
	}
	f, err := os.Create(req.OutPath)
	if err != nil {
		return GeneratedAsset{}, err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return GeneratedAsset{}, err
	}
	if err := f.Close(); err != nil {
		return GeneratedAsset{}, err
	}

	outputHash, err := cache.FileSHA256(req.OutPath)
	if err != nil {
		return GeneratedAsset{}, err
	}

	return GeneratedAsset{
		OutPath:    req.OutPath,
		OutputHash: outputHash[:16],
		ProviderID: p.ProviderID(),
	}, nil
}

func drawBorder(img *image.RGBA, rect image.Rectangle, c color.RGBA, width int) {
	src := &image.Uniform{c}
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+width), src, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Max.Y-width, rect.Max.X, rect.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+width, rect.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Max.X-width, rect.Min.Y, rect.Max.X, rect.Max.Y), src, image.Point{}, draw.Src)
}
