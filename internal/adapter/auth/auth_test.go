package auth

import (
	"context"
	"errors"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/port"
)

type fakeVerifier map[string]string

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*fbauth.Token, error) {
	uid, ok := f[idToken]
	if !ok {
		return nil, errors.New("ID token has invalid signature")
	}
	return &fbauth.Token{UID: uid}, nil
}

func TestFirebaseAuthenticator(t *testing.T) {
	a := &FirebaseAuthenticator{verifier: fakeVerifier{"good": "uid-1", "anon": ""}}
	ctx := context.Background()

	uid, err := a.Authenticate(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", uid)

	_, err = a.Authenticate(ctx, "forged")
	assert.ErrorIs(t, err, port.ErrUnauthenticated)

	_, err = a.Authenticate(ctx, "anon")
	assert.ErrorIs(t, err, port.ErrUnauthenticated)
}

func TestParseStaticTokens(t *testing.T) {
	tokens, err := ParseStaticTokens("dev-admin:admin-1, dev-ana:cust-1,")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"dev-admin": "admin-1", "dev-ana": "cust-1"}, tokens)

	_, err = ParseStaticTokens("broken")
	assert.Error(t, err)

	a := NewStaticAuthenticator(tokens)
	uid, err := a.Authenticate(context.Background(), "dev-ana")
	require.NoError(t, err)
	assert.Equal(t, "cust-1", uid)

	_, err = a.Authenticate(context.Background(), "nope")
	assert.ErrorIs(t, err, port.ErrUnauthenticated)
}
