package compositor

import (
	"image"
	"sync"
)

// canvasPool повторно использует image.RGBA, чтобы снизить нагрузку на GC
// при покадровом рендеринге. Пул принадлежит одному Compositor и живет
// ровно один прогон сборки.
type canvasPool struct {
	pools map[string]*sync.Pool
	mu    sync.RWMutex
}

func newCanvasPool() *canvasPool {
	return &canvasPool{pools: make(map[string]*sync.Pool)}
}

func (p *canvasPool) Get(rect image.Rectangle) *image.RGBA {
	key := rect.String()
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[key]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return image.NewRGBA(rect)
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

func (p *canvasPool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	key := img.Rect.String()
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
