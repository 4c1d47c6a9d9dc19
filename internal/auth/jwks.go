package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// JWKSManager fetches and caches JSON Web Key Sets
type JWKSManager struct {
	mu    sync.RWMutex
	cache map[string]cachedSet
	ttl   time.Duration
}

type cachedSet struct {
	keys    jwk.Set
	expires time.Time
}

// NewJWKSManager creates a JWKS manager with a one hour cache
func NewJWKSManager() *JWKSManager {
	return &JWKSManager{
		cache: make(map[string]cachedSet),
		ttl:   1 * time.Hour,
	}
}

// GetJWKS retrieves the key set for a JWKS URL, fetching on cache miss
// or expiry
func (m *JWKSManager) GetJWKS(ctx context.Context, jwksURL string) (jwk.Set, error) {
	m.mu.RLock()
	entry, ok := m.cache[jwksURL]
	m.mu.RUnlock()

	if ok && time.Now().Before(entry.expires) {
		return entry.keys, nil
	}

	keys, err := jwk.Fetch(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	m.mu.Lock()
	m.cache[jwksURL] = cachedSet{
		keys:    keys,
		expires: time.Now().Add(m.ttl),
	}
	m.mu.Unlock()

	return keys, nil
}
