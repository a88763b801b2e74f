package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const (
	defaultImageBucket = "product-images"
	imageCacheControl  = "public, max-age=3600"
)

// GCSAdapter stores product images in a public Cloud Storage bucket.
type GCSAdapter struct {
	client *storage.Client
	bucket string
}

func NewGCSAdapter(client *storage.Client, bucket string) *GCSAdapter {
	b := strings.TrimSpace(bucket)
	if b == "" {
		b = defaultImageBucket
	}
	return &GCSAdapter{client: client, bucket: b}
}

func (g *GCSAdapter) Upload(ctx context.Context, name, contentType string, r io.Reader) (port.BlobObject, error) {
	path := strings.TrimLeft(strings.TrimSpace(name), "/")
	if path == "" {
		return port.BlobObject{}, fmt.Errorf("gcs upload: empty object name: %w", domain.ErrValidation)
	}

	obj := g.client.Bucket(g.bucket).Object(path).If(storage.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = imageCacheControl

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return port.BlobObject{}, fmt.Errorf("gcs upload %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return port.BlobObject{}, fmt.Errorf("gcs upload %s: object exists: %w", path, domain.ErrConflict)
		}
		return port.BlobObject{}, fmt.Errorf("gcs upload %s: %w", path, err)
	}

	return port.BlobObject{Path: path, URL: g.PublicURL(path)}, nil
}

func (g *GCSAdapter) Delete(ctx context.Context, path string) error {
	err := g.client.Bucket(g.bucket).Object(path).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("gcs delete %s: %w", path, err)
	}
	return nil
}

func (g *GCSAdapter) PublicURL(path string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, (&url.URL{Path: path}).EscapedPath())
}

var _ port.BlobStorage = (*GCSAdapter)(nil)
