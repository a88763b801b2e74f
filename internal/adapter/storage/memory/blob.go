package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type BlobStorage struct {
	mu      sync.Mutex
	baseURL string
	objects map[string][]byte
}

func NewBlobStorage(baseURL string) *BlobStorage {
	return &BlobStorage{baseURL: baseURL, objects: make(map[string][]byte)}
}

func (b *BlobStorage) Upload(_ context.Context, name, _ string, r io.Reader) (port.BlobObject, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return port.BlobObject{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.objects[name]; ok {
		return port.BlobObject{}, fmt.Errorf("blob %s already exists: %w", name, domain.ErrConflict)
	}
	b.objects[name] = buf.Bytes()
	return port.BlobObject{Path: name, URL: b.PublicURL(name)}, nil
}

func (b *BlobStorage) Delete(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, path)
	return nil
}

func (b *BlobStorage) PublicURL(path string) string {
	return b.baseURL + "/" + path
}

func (b *BlobStorage) Has(path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[path]
	return ok
}

var _ port.BlobStorage = (*BlobStorage)(nil)
