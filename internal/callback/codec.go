// Package callback encodes the (quality selector, URL) pair behind an
// inline-keyboard button into a token that fits Telegram's 64-byte
// callback data limit, and decodes it back when the button is pressed.
//
// Token shape: "q_{selector}:{payload}". Payload variants, preferred in
// order: "id:{platform_id}" (reversible without server state), a raw
// URL when it happens to fit, and "hash:{12 hex}" backed by a Cache.
package callback

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foxyhq/foxyfetch/internal/platform"
	"github.com/foxyhq/foxyfetch/internal/quality"
)

// MaxTokenBytes is Telegram's hard limit on callback data.
const MaxTokenBytes = 64

const (
	actionPrefix = "q_"
	idPrefix     = "id:"
	hashPrefix   = "hash:"
	hashLen      = 12
)

// Codec builds and parses callback tokens.
type Codec struct {
	resolver *platform.Resolver
	cache    Cache
	logger   *slog.Logger
}

func NewCodec(log *slog.Logger, resolver *platform.Resolver, cache Cache) *Codec {
	if log == nil {
		log = slog.Default()
	}
	return &Codec{
		resolver: resolver,
		cache:    cache,
		logger:   log.With(slog.String("service", "callback")),
	}
}

// Encode produces a token for the URL and selector. Reversible platform
// IDs are preferred; otherwise the raw URL is used when it fits, and a
// cached hash reference when it does not.
func (c *Codec) Encode(ctx context.Context, url string, sel quality.Selector) (string, error) {
	action := actionPrefix + sel.String() + ":"

	if id := c.resolver.ExtractID(url); id != "" {
		token := action + idPrefix + id
		if len(token) <= MaxTokenBytes {
			return token, nil
		}
		c.logger.Warn("platform id does not fit token budget, hashing",
			slog.String("url", url), slog.Int("id_len", len(id)))
	}

	if token := action + url; len(token) <= MaxTokenBytes {
		return token, nil
	}

	key := hashURL(url)
	if err := c.cache.Put(ctx, key, url); err != nil {
		return "", fmt.Errorf("cache url reference: %w", err)
	}
	token := action + hashPrefix + key
	if len(token) > MaxTokenBytes {
		// Only reachable if a selector ever grows past ~44 bytes.
		return "", ErrTokenTooLong
	}
	return token, nil
}

// Decode parses a token back into its selector and original URL.
func (c *Codec) Decode(ctx context.Context, token string) (quality.Selector, string, error) {
	action, payload, ok := strings.Cut(token, ":")
	if !ok || !strings.HasPrefix(action, actionPrefix) {
		return quality.Selector{}, "", fmt.Errorf("%w: %q", ErrMalformedToken, token)
	}
	sel, err := quality.Parse(strings.TrimPrefix(action, actionPrefix))
	if err != nil {
		return quality.Selector{}, "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	switch {
	case strings.HasPrefix(payload, idPrefix):
		id := strings.TrimPrefix(payload, idPrefix)
		url, ok := c.reconstruct(id)
		if !ok {
			return quality.Selector{}, "", fmt.Errorf("%w: no platform reconstructs id %q", ErrUnknownReference, id)
		}
		return sel, url, nil
	case strings.HasPrefix(payload, hashPrefix):
		key := strings.TrimPrefix(payload, hashPrefix)
		url, err := c.cache.Get(ctx, key)
		if err != nil {
			return quality.Selector{}, "", fmt.Errorf("resolve reference %q: %w", key, err)
		}
		return sel, url, nil
	case payload == "":
		return quality.Selector{}, "", fmt.Errorf("%w: empty payload", ErrMalformedToken)
	default:
		// Raw URL payload.
		return sel, payload, nil
	}
}

// reconstruct tries every ID-capable platform in registry order and
// keeps the first whose canonical URL round-trips to the same ID.
func (c *Codec) reconstruct(id string) (string, bool) {
	candidates := []string{
		"https://www.youtube.com/watch?v=" + id,
		"https://twitter.com/i/web/status/" + id,
	}
	for _, url := range candidates {
		p := c.resolver.ForURL(url)
		if p.SupportsIDExtraction() && p.ExtractID(url) == id {
			return p.ReconstructURL(id), true
		}
	}
	return "", false
}

func hashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:hashLen]
}
