// Package cache is a Redis read-through cache for product lookups.
//
// Cache failures never fail a request: they are logged and treated as a
// miss. A nil *ProdutoCache is valid and caches nothing.
//
// Every entry key has a companion version key. Invalidate replaces the
// version with a fresh nonce; a fill only lands if the version still holds
// the value observed before the database read. A reader that loaded a row
// before a concurrent write committed therefore cannot put that row back
// after the write's invalidation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/deppfellow/produto-service/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "produto:"

// versionTTL bounds how long a version outlives its entry. It only needs
// to cover one invocation between snapshot and fill.
const versionTTL = time.Hour

var errSuperseded = errors.New("cache entry invalidated since snapshot")

func idKey(id uuid.UUID) string    { return keyPrefix + "id:" + id.String() }
func skuKey(sku string) string     { return keyPrefix + "sku:" + sku }
func versionKey(key string) string { return key + ":ver" }

// Token is the version of one entry key observed before a database read.
// The zero Token never fills.
type Token struct {
	key     string
	version string
	valid   bool
}

type ProdutoCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zerolog.Logger
}

// New returns nil when client is nil so callers need no special casing.
func New(client *redis.Client, ttl time.Duration, log *zerolog.Logger) *ProdutoCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProdutoCache{client: client, ttl: ttl, log: log}
}

// GetByID returns the cached product, or a Token to pass to Fill once the
// product has been loaded from the database.
func (c *ProdutoCache) GetByID(ctx context.Context, id uuid.UUID) (*model.Produto, Token, bool) {
	return c.get(ctx, idKey(id))
}

func (c *ProdutoCache) GetBySKU(ctx context.Context, sku string) (*model.Produto, Token, bool) {
	return c.get(ctx, skuKey(sku))
}

// Reserve snapshots the id and sku entries of a product that is not yet
// visible to other invocations (a create inside its transaction).
func (c *ProdutoCache) Reserve(ctx context.Context, id uuid.UUID, sku string) []Token {
	if c == nil {
		return nil
	}

	keys := []string{idKey(id), skuKey(sku)}
	versions, err := c.client.MGet(ctx, versionKey(keys[0]), versionKey(keys[1])).Result()
	if err != nil {
		c.log.Warn().Err(err).Str("produto_id", id.String()).Msg("produto cache version read failed")
		return nil
	}

	tokens := make([]Token, 0, len(keys))
	for i, key := range keys {
		tokens = append(tokens, newToken(key, versions[i]))
	}
	return tokens
}

// Fill stores p under every token's key, skipping all of them when any
// entry was invalidated after its token was taken.
func (c *ProdutoCache) Fill(ctx context.Context, p *model.Produto, tokens ...Token) {
	if c == nil || p == nil {
		return
	}

	live := make([]Token, 0, len(tokens))
	watch := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.valid {
			live = append(live, t)
			watch = append(watch, versionKey(t.key))
		}
	}
	if len(live) == 0 {
		return
	}

	payload, err := json.Marshal(p)
	if err != nil {
		c.log.Warn().Err(err).Str("produto_id", p.ID.String()).Msg("failed to encode produto for cache")
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		for _, t := range live {
			current, err := tx.Get(ctx, versionKey(t.key)).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if current != t.version {
				return errSuperseded
			}
		}

		// EXEC aborts if a watched version changes before it runs.
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, t := range live {
				pipe.Set(ctx, t.key, payload, c.ttl)
			}
			return nil
		})
		return err
	}, watch...)

	switch {
	case err == nil:
	case errors.Is(err, errSuperseded), errors.Is(err, redis.TxFailedErr):
		c.log.Debug().Str("produto_id", p.ID.String()).Msg("skipped produto cache fill after invalidation")
	default:
		c.log.Warn().Err(err).Str("produto_id", p.ID.String()).Msg("failed to write produto cache")
	}
}

// Invalidate drops the entries for id and every given sku and rotates
// their versions so in-flight fills are discarded.
func (c *ProdutoCache) Invalidate(ctx context.Context, id uuid.UUID, skus ...string) {
	if c == nil {
		return
	}

	keys := []string{idKey(id)}
	for _, sku := range skus {
		if sku != "" {
			keys = append(keys, skuKey(sku))
		}
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, key := range keys {
			pipe.Set(ctx, versionKey(key), uuid.NewString(), versionTTL)
		}
		return nil
	})
	if err != nil {
		c.log.Warn().Err(err).Str("produto_id", id.String()).Msg("failed to invalidate produto cache")
	}
}

// get reads the entry and its version in one round trip, so the Token
// reflects the state before the caller's database read.
func (c *ProdutoCache) get(ctx context.Context, key string) (*model.Produto, Token, bool) {
	if c == nil {
		return nil, Token{}, false
	}

	values, err := c.client.MGet(ctx, key, versionKey(key)).Result()
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("produto cache read failed")
		return nil, Token{}, false
	}

	token := newToken(key, values[1])

	payload, ok := values[0].(string)
	if !ok {
		return nil, token, false
	}

	var p model.Produto
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("discarding corrupt produto cache entry")
		return nil, token, false
	}

	return &p, Token{}, true
}

// newToken accepts a missing version (nil) as the empty version.
func newToken(key string, version any) Token {
	switch v := version.(type) {
	case nil:
		return Token{key: key, valid: true}
	case string:
		return Token{key: key, version: v, valid: true}
	default:
		return Token{}
	}
}
