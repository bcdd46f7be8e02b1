/*
Package codecache provides a bounded cache of contract code fetched from the
node. Concurrent requests for the same address are merged into a single
node request.
*/
package codecache

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/thepower/tpgo/pkg/txerr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultSize is the default number of cached contracts.
	DefaultSize = 128
	// LoadTimeout limits a single code request to the node.
	LoadTimeout = 30 * time.Second
)

// Loader fetches contract code by address.
type Loader interface {
	GetCode(ctx context.Context, address []byte) ([]byte, error)
}

// Cache is an LRU cache of contract code.
type Cache struct {
	loader Loader
	cache  *lru.Cache
	group  singleflight.Group
	log    *zap.Logger

	timeout time.Duration
}

// New creates a cache holding up to size contracts (DefaultSize if size is
// not positive).
func New(loader Loader, size int, log *zap.Logger) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	c, _ := lru.New(size) // Never errors for positive size.
	return &Cache{loader: loader, cache: c, log: log, timeout: LoadTimeout}
}

// GetOrLoad returns the code of the contract, loading it from the node if it's
// not cached yet. The result is a copy that can be modified by the caller.
// A shared load doesn't depend on the cancellation of any single caller, it's
// bounded by LoadTimeout instead; ctx only limits the wait of this caller.
func (c *Cache) GetOrLoad(ctx context.Context, address []byte) ([]byte, error) {
	if len(address) == 0 {
		return nil, fmt.Errorf("%w: empty contract address", txerr.ErrConfiguration)
	}
	key := string(address)
	if code, ok := c.cache.Get(key); ok {
		return clone(code.([]byte)), nil
	}
	ch := c.group.DoChan(key, func() (any, error) {
		if code, ok := c.cache.Get(key); ok {
			return code, nil
		}
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		code, err := c.loader.GetCode(lctx, address)
		if err != nil {
			return nil, err
		}
		code = clone(code)
		c.cache.Add(key, code)
		c.log.Debug("contract code loaded",
			zap.String("address", hex.EncodeToString(address)),
			zap.Int("size", len(code)))
		return code, nil
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("can't load code of %x: %w", address, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return nil, fmt.Errorf("can't load code of %x (shared: %t): %w", address, r.Shared, r.Err)
		}
		return clone(r.Val.([]byte)), nil
	}
}

// Invalidate drops the contract from the cache.
func (c *Cache) Invalidate(address []byte) {
	c.cache.Remove(string(address))
}

// Len returns the number of cached contracts.
func (c *Cache) Len() int {
	return c.cache.Len()
}

func clone(b []byte) []byte {
	return append([]byte{}, b...)
}
