// Package capture opens live capture handles on network interfaces and
// runs the per-interface read loop.
//
// Backends register themselves under a name (the pcap backend always,
// AF_PACKET on Linux); the configuration selects one by name. Every
// backend normalizes its read-timeout signal to core.ErrReadTimeout so
// the session loop has a single cancellation check.
package capture

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kestrel-net/kestrel/internal/core"
)

// Handle is one open capture stream on an interface.
type Handle interface {
	// ReadFrame returns the next frame. Timeout expiry surfaces as
	// core.ErrReadTimeout, end of stream as io.EOF.
	ReadFrame() (core.RawFrame, error)

	// Close releases the kernel capture resources. Closing a handle
	// unblocks a pending ReadFrame.
	Close() error
}

// OpenFunc opens a capture handle on the named interface.
type OpenFunc func(iface string, opts Options) (Handle, error)

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]OpenFunc)
)

// Register makes a backend available under the given name. Backends
// register from init; a duplicate name panics.
func Register(name string, open OpenFunc) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if _, dup := backends[name]; dup {
		panic("capture: backend registered twice: " + name)
	}
	backends[name] = open
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens the named interface with the backend selected in opts,
// applying option defaults first.
func Open(iface string, opts Options) (Handle, error) {
	opts = opts.withDefaults()

	backendsMu.RLock()
	open, ok := backends[opts.Backend]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)",
			core.ErrUnknownBackend, opts.Backend, strings.Join(Backends(), ", "))
	}
	return open(iface, opts)
}
