package stats

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kestrel-net/kestrel/internal/core"
)

// connTable counts packets per connection. The default table keeps every
// connection seen for the process lifetime; the capped variant evicts the
// least recently updated connection once the limit is reached, trading
// exact history for bounded memory on long-running monitors.
type connTable interface {
	inc(core.ConnectionKey)
	len() int
	each(func(core.ConnectionKey, uint64))
}

func newConnTable(maxConnections int) (connTable, error) {
	if maxConnections < 0 {
		return nil, fmt.Errorf("stats: max connections must not be negative, got %d", maxConnections)
	}
	if maxConnections == 0 {
		return mapTable{}, nil
	}
	return newLRUTable(maxConnections)
}

type mapTable map[core.ConnectionKey]uint64

func (t mapTable) inc(k core.ConnectionKey) { t[k]++ }

func (t mapTable) len() int { return len(t) }

func (t mapTable) each(fn func(core.ConnectionKey, uint64)) {
	for k, n := range t {
		fn(k, n)
	}
}

type lruTable struct {
	cache *lru.Cache[core.ConnectionKey, uint64]
}

func newLRUTable(size int) (*lruTable, error) {
	cache, err := lru.New[core.ConnectionKey, uint64](size)
	if err != nil {
		return nil, fmt.Errorf("stats: connection table: %w", err)
	}
	return &lruTable{cache: cache}, nil
}

func (t *lruTable) inc(k core.ConnectionKey) {
	n, _ := t.cache.Get(k)
	t.cache.Add(k, n+1)
}

func (t *lruTable) len() int { return t.cache.Len() }

func (t *lruTable) each(fn func(core.ConnectionKey, uint64)) {
	for _, k := range t.cache.Keys() {
		if n, ok := t.cache.Peek(k); ok {
			fn(k, n)
		}
	}
}
