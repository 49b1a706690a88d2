package gen

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/gen2brain/go-fitz"
	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/showrunner/internal/cache"
	"github.com/ivlev/showrunner/internal/config"
)

// StoryboardProvider renders pages of a storyboard PDF into asset plates.
// Pages are assigned to assets in request order, wrapping around when the
// document is shorter than the asset list.
type StoryboardProvider struct {
	path string
	dpi  int

	mu       sync.Mutex
	pages    int
	nextPage int
}

func NewStoryboardProvider(cfg *config.StoryboardProviderConfig) (*StoryboardProvider, error) {
	doc, err := fitz.New(cfg.PDFPath)
	if err != nil {
		return nil, fmt.Errorf("storyboard pdf: %w", err)
	}
	pages := doc.NumPage()
	doc.Close()
	if pages == 0 {
		return nil, fmt.Errorf("storyboard pdf has no pages: %s", cfg.PDFPath)
	}

	dpi := cfg.DPI
	if dpi <= 0 {
		dpi = 150
	}
	return &StoryboardProvider{path: cfg.PDFPath, dpi: dpi, pages: pages}, nil
}

func (p *StoryboardProvider) ProviderID() string {
	return "storyboard"
}

func (p *StoryboardProvider) claimPage() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	page := p.nextPage % p.pages
	p.nextPage++
	return page
}

func (p *StoryboardProvider) Generate(req ImageGenRequest) (GeneratedAsset, error) {
	// go-fitz не потокобезопасен, каждый вызов открывает свой документ
	doc, err := fitz.New(p.path)
	if err != nil {
		return GeneratedAsset{}, err
	}
	defer doc.Close()

	page, err := doc.ImageDPI(p.claimPage(), float64(p.dpi))
	if err != nil {
		return GeneratedAsset{}, err
	}

	out := image.NewRGBA(image.Rect(0, 0, req.Width, req.Height))
	draw.Draw(out, out.Bounds(), image.Black, image.Point{}, draw.Src)
	xdraw.CatmullRom.Scale(out, fitRect(page.Bounds(), req.Width, req.Height), page, page.Bounds(), xdraw.Over, nil)

	if err := os.MkdirAll(filepath.Dir(req.OutPath), 0755); err != nil {
		return GeneratedAsset{}, err
	}
	f, err := os.Create(req.OutPath)
	if err != nil {
		return GeneratedAsset{}, err
	}
	if err := png.Encode(f, out); err != nil {
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

// fitRect letterboxes src proportions into a w x h target.
func fitRect(src image.Rectangle, w, h int) image.Rectangle {
	srcW, srcH := src.Dx(), src.Dy()
	if srcW == 0 || srcH == 0 {
		return image.Rect(0, 0, w, h)
	}
	scale := float64(w) / float64(srcW)
	if s := float64(h) / float64(srcH); s < scale {
		scale = s
	}
	fitW := int(float64(srcW) * scale)
	fitH := int(float64(srcH) * scale)
	x0 := (w - fitW) / 2
	y0 := (h - fitH) / 2
	return image.Rect(x0, y0, x0+fitW, y0+fitH)
}
