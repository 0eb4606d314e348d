package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"slices"
	"sync"
)

// MemoryPublisher keeps published objects in process memory. It backs
// the memory store driver and tests.
type MemoryPublisher struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
}

func NewMemoryPublisher(baseURL string) *MemoryPublisher {
	return &MemoryPublisher{baseURL: baseURL, objects: make(map[string][]byte)}
}

func (p *MemoryPublisher) Publish(ctx context.Context, key string, contentType string, body []byte) (*PublishResult, error) {
	sum := md5.Sum(body)
	p.mu.Lock()
	p.objects[key] = slices.Clone(body)
	p.mu.Unlock()
	return &PublishResult{Key: key, URL: p.objectURL(key), ETag: hex.EncodeToString(sum[:])}, nil
}

func (p *MemoryPublisher) Delete(ctx context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.objects[key]; !ok {
		return ErrObjectNotFound
	}
	delete(p.objects, key)
	return nil
}

func (p *MemoryPublisher) objectURL(key string) string {
	return publicURL(p.baseURL, key)
}

// Object returns a copy of the stored body.
func (p *MemoryPublisher) Object(key string) ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.objects[key]
	return slices.Clone(b), ok
}
