package proof

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/blake2s"
)

// CachingVerifier remembers receipts that verified. Failures are not
// cached.
type CachingVerifier struct {
	inner Verifier
	cache *lru.Cache
}

func NewCachingVerifier(inner Verifier, size int) (*CachingVerifier, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CachingVerifier{inner: inner, cache: cache}, nil
}

func cacheKey(r *Receipt, expected ProgramID) [32]byte {
	d := r.Digest()
	h, _ := blake2s.New256(nil)
	h.Write(expected[:])
	h.Write(d[:])
	h.Write(r.Seal)
	var k [32]byte
	copy(k[:], h.Sum(nil))
	return k
}

func (c *CachingVerifier) Verify(ctx context.Context, r *Receipt, expected ProgramID) error {
	key := cacheKey(r, expected)
	if _, ok := c.cache.Get(key); ok {
		return nil
	}
	if err := c.inner.Verify(ctx, r, expected); err != nil {
		return err
	}
	c.cache.Add(key, struct{}{})
	return nil
}

func (c *CachingVerifier) Len() int {
	return c.cache.Len()
}
