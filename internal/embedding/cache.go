package embedding

import (
	"context"
	"sync"
)

const defaultCacheSize = 4096

// Cache memoizes vectors per text. The same keyword recurs across many
// chunks, so each distinct text is embedded once. When the map outgrows
// its bound it is reset wholesale; entries are tiny and recomputable.
type Cache struct {
	provider Provider
	max      int

	mu   sync.Mutex
	vecs map[string][]float32
}

func NewCache(p Provider, max int) *Cache {
	if max <= 0 {
		max = defaultCacheSize
	}
	return &Cache{provider: p, max: max, vecs: make(map[string][]float32)}
}

func (c *Cache) Name() string { return c.provider.Name() }
func (c *Cache) Dim() int     { return c.provider.Dim() }

func (c *Cache) Embed(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	if v, ok := c.vecs[text]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := c.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if len(c.vecs) >= c.max {
		c.vecs = make(map[string][]float32)
	}
	c.vecs[text] = v
	c.mu.Unlock()
	return v, nil
}
