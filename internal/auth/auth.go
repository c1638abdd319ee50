// Package auth resolves the caller behind a bearer token and checks the
// permissions an endpoint demands.
//
// The Gate is provider-agnostic: tokens are verified by an IdentityProvider,
// either locally signed JWTs (JWTProvider) or Clerk session tokens
// (ClerkProvider).
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/deppfellow/produto-service/internal/config"
	"github.com/deppfellow/produto-service/internal/errs"
)

// Identity is the authenticated caller of one invocation.
type Identity struct {
	Subject     string
	Role        string
	Permissions []string
}

// HasPermission reports whether p was granted.
func (i *Identity) HasPermission(p string) bool {
	for _, granted := range i.Permissions {
		if granted == p {
			return true
		}
	}
	return false
}

// MissingPermission returns the first required permission not granted.
func (i *Identity) MissingPermission(required []string) (string, bool) {
	for _, p := range required {
		if !i.HasPermission(p) {
			return p, true
		}
	}
	return "", false
}

// IdentityProvider verifies a raw bearer token.
//
// Implementations must be safe for concurrent use; any key material they
// cache is read-only after construction.
type IdentityProvider interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// NewProvider builds the provider selected by cfg.Provider.
func NewProvider(cfg config.AuthConfig) (IdentityProvider, error) {
	switch cfg.Provider {
	case "jwt":
		return NewJWTProvider(cfg)
	case "clerk":
		return NewClerkProvider(cfg.SecretKey), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Provider)
	}
}

// Gate authenticates requests and enforces permission requirements.
type Gate struct {
	provider IdentityProvider
}

func NewGate(provider IdentityProvider) *Gate {
	return &Gate{provider: provider}
}

// Authenticate resolves the caller from the Authorization header and
// checks that every permission in required was granted.
//
//   - no header, bad scheme, invalid or expired token: 401
//   - valid identity lacking a permission: 403 naming it
func (g *Gate) Authenticate(ctx context.Context, headers map[string]string, required []string) (*Identity, error) {
	authHeader := headerValue(headers, "Authorization")
	if authHeader == "" {
		return nil, errs.NewUnauthorizedError("Missing Authorization header", false)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, errs.NewUnauthorizedError("Invalid Authorization header format", false)
	}

	identity, err := g.provider.Verify(ctx, strings.TrimSpace(parts[1]))
	if err != nil {
		if httpErr, ok := err.(*errs.HTTPError); ok {
			return nil, httpErr
		}
		return nil, errs.NewUnauthorizedError("Invalid or expired token", false)
	}

	if missing, ok := identity.MissingPermission(required); ok {
		return nil, errs.NewForbiddenError(fmt.Sprintf("Permission denied: %s", missing), false)
	}

	return identity, nil
}

// headerValue looks up name case-insensitively; API Gateway forwards
// headers with the client's casing.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
