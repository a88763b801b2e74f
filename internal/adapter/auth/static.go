package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/rl1809/storefront/internal/port"
)

// StaticAuthenticator accepts a fixed set of tokens. Local development and
// tests only.
type StaticAuthenticator struct {
	tokens map[string]string
}

func NewStaticAuthenticator(tokens map[string]string) *StaticAuthenticator {
	return &StaticAuthenticator{tokens: tokens}
}

// ParseStaticTokens reads "token:uid" pairs separated by commas.
func ParseStaticTokens(s string) (map[string]string, error) {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, uid, ok := strings.Cut(pair, ":")
		if !ok || token == "" || uid == "" {
			return nil, fmt.Errorf("invalid token pair %q, want token:uid", pair)
		}
		tokens[token] = uid
	}
	return tokens, nil
}

func (a *StaticAuthenticator) Authenticate(_ context.Context, token string) (string, error) {
	uid, ok := a.tokens[token]
	if !ok {
		return "", fmt.Errorf("%w: unknown token", port.ErrUnauthenticated)
	}
	return uid, nil
}

var _ port.Authenticator = (*StaticAuthenticator)(nil)
