package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/deppfellow/produto-service/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims this service understands.
//
// Permissions may come as a "permissions" array or as an OAuth-style
// space separated "scope" string; both are merged.
type Claims struct {
	Permissions []string `json:"permissions,omitempty"`
	Scope       string   `json:"scope,omitempty"`
	Role        string   `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider verifies tokens signed with a shared HS256 secret or an
// RS256 key pair.
type JWTProvider struct {
	key    any
	parser *jwt.Parser
}

// leeway absorbs clock skew between the issuer and Lambda.
const leeway = 30 * time.Second

// NewJWTProvider parses the key material once. A PEM public key takes
// precedence over the shared secret.
func NewJWTProvider(cfg config.AuthConfig) (*JWTProvider, error) {
	var (
		key    any
		method string
	)

	switch {
	case cfg.JWTPublicKey != "":
		publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.JWTPublicKey))
		if err != nil {
			return nil, err
		}
		key, method = publicKey, jwt.SigningMethodRS256.Alg()
	case cfg.JWTSecret != "":
		key, method = []byte(cfg.JWTSecret), jwt.SigningMethodHS256.Alg()
	default:
		return nil, errors.New("jwt provider needs a secret or a public key")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{method}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &JWTProvider{key: key, parser: jwt.NewParser(opts...)}, nil
}

// Verify parses and validates tokenString.
func (p *JWTProvider) Verify(_ context.Context, tokenString string) (*Identity, error) {
	claims := &Claims{}

	token, err := p.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return p.key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.Subject == "" {
		return nil, jwt.ErrTokenRequiredClaimMissing
	}

	return &Identity{
		Subject:     claims.Subject,
		Role:        claims.Role,
		Permissions: mergePermissions(claims.Permissions, strings.Fields(claims.Scope)),
	}, nil
}

func mergePermissions(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, p := range list {
			if _, ok := seen[p]; ok || p == "" {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
