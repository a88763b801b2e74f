package auth

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/rl1809/storefront/internal/port"
)

type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseAuthenticator verifies Firebase ID tokens. The token's UID is the
// profile id.
type FirebaseAuthenticator struct {
	verifier tokenVerifier
}

// NewFirebaseAuthenticator falls back to Application Default Credentials
// when credentialsFile is empty.
func NewFirebaseAuthenticator(ctx context.Context, projectID, credentialsFile string) (*FirebaseAuthenticator, error) {
	var opts []option.ClientOption
	if f := strings.TrimSpace(credentialsFile); f != "" {
		opts = append(opts, option.WithCredentialsFile(f))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}
	return &FirebaseAuthenticator{verifier: client}, nil
}

func (a *FirebaseAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	t, err := a.verifier.VerifyIDToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", port.ErrUnauthenticated, err)
	}
	if t.UID == "" {
		return "", fmt.Errorf("%w: token has no uid", port.ErrUnauthenticated)
	}
	return t.UID, nil
}

var _ port.Authenticator = (*FirebaseAuthenticator)(nil)
