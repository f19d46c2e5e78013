package audio

import (
	"context"
	"sync"
)

// Cache keeps decoded files in memory so repeated segment reads during
// reconstruction only decode each source file once.
type Cache struct {
	sampleRate int

	mu    sync.Mutex
	files map[string][]float32
}

func NewCache(sampleRate int) *Cache {
	return &Cache{sampleRate: sampleRate, files: make(map[string][]float32)}
}

// File returns the full decoded buffer of path.
func (c *Cache) File(ctx context.Context, path string) ([]float32, error) {
	c.mu.Lock()
	samples, ok := c.files[path]
	c.mu.Unlock()
	if ok {
		return samples, nil
	}
	samples, err := Decode(ctx, path, c.sampleRate)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.files[path] = samples
	c.mu.Unlock()
	return samples, nil
}

// Segment returns n samples starting at start, truncated at file end.
func (c *Cache) Segment(ctx context.Context, path string, start, n int) ([]float32, error) {
	samples, err := c.File(ctx, path)
	if err != nil {
		return nil, err
	}
	if start >= len(samples) || start < 0 {
		return nil, nil
	}
	end := start + n
	if end > len(samples) {
		end = len(samples)
	}
	return samples[start:end], nil
}
