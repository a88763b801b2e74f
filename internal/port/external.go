package port

import (
	"context"
	"errors"
	"io"

	"github.com/rl1809/storefront/internal/core/domain"
)

var ErrUnauthenticated = errors.New("unauthenticated")

type BlobObject struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

type BlobStorage interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (BlobObject, error)
	Delete(ctx context.Context, path string) error
	PublicURL(path string) string
}

type RateProvider interface {
	LatestRate(ctx context.Context) (domain.Rate, error)
}

// Authenticator verifies a bearer token issued by the auth provider and
// returns the user id it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}
