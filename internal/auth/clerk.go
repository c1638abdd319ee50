package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkjwt "github.com/clerk/clerk-sdk-go/v2/jwt"
)

// ClerkProvider verifies Clerk session tokens.
//
// Permissions come from the active organization: Clerk reports them as
// "org:produto:create", which maps to "produto:create".
type ClerkProvider struct {
	mu   sync.RWMutex
	jwks map[string]*clerk.JSONWebKey
}

// NewClerkProvider sets the Clerk API key used to fetch the instance JWKS.
func NewClerkProvider(secretKey string) *ClerkProvider {
	clerk.SetKey(secretKey)
	return &ClerkProvider{jwks: make(map[string]*clerk.JSONWebKey)}
}

func (p *ClerkProvider) Verify(ctx context.Context, token string) (*Identity, error) {
	decoded, err := clerkjwt.Decode(ctx, &clerkjwt.DecodeParams{Token: token})
	if err != nil {
		return nil, err
	}

	jwk, err := p.key(ctx, decoded.KeyID)
	if err != nil {
		return nil, err
	}

	claims, err := clerkjwt.Verify(ctx, &clerkjwt.VerifyParams{Token: token, JWK: jwk})
	if err != nil {
		return nil, err
	}

	return identityFromClerk(claims), nil
}

// key returns the JSON web key for kid, fetching it once.
func (p *ClerkProvider) key(ctx context.Context, kid string) (*clerk.JSONWebKey, error) {
	p.mu.RLock()
	jwk, ok := p.jwks[kid]
	p.mu.RUnlock()
	if ok {
		return jwk, nil
	}

	jwk, err := clerkjwt.GetJSONWebKey(ctx, &clerkjwt.GetJSONWebKeyParams{KeyID: kid})
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.jwks[kid] = jwk
	p.mu.Unlock()

	return jwk, nil
}

func identityFromClerk(claims *clerk.SessionClaims) *Identity {
	permissions := make([]string, 0, len(claims.ActiveOrganizationPermissions))
	for _, p := range claims.ActiveOrganizationPermissions {
		permissions = append(permissions, strings.TrimPrefix(p, "org:"))
	}

	return &Identity{
		Subject:     claims.Subject,
		Role:        claims.ActiveOrganizationRole,
		Permissions: permissions,
	}
}
