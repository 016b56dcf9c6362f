// Package monitor orchestrates capture sessions. It starts one session
// per interface against a shared sink and joins them on shutdown.
package monitor

import (
	"context"
	"fmt"
	"sync"

	"github.com/kestrel-net/kestrel/internal/capture"
	"github.com/kestrel-net/kestrel/internal/core"
	"github.com/kestrel-net/kestrel/internal/log"
)

// Monitor runs one capture session per interface.
type Monitor struct {
	sessions []*capture.Session
}

// New builds a monitor for the given interfaces. An empty interface set
// is a user error.
func New(ifaces []string, opts capture.Options, sink capture.Sink) (*Monitor, error) {
	if len(ifaces) == 0 {
		return nil, core.ErrNoInterfaces
	}
	sessions := make([]*capture.Session, 0, len(ifaces))
	for _, iface := range ifaces {
		sessions = append(sessions, capture.NewSession(iface, opts, sink))
	}
	return &Monitor{sessions: sessions}, nil
}

// Run starts every session concurrently and blocks until all of them
// return. One session failing never stops its siblings; each failure is
// logged with its interface. Run itself fails only when every session
// failed, and on cancellation it returns nil once all sessions have
// wound down.
func (m *Monitor) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make([]error, len(m.sessions))

	for i, sess := range m.sessions {
		wg.Add(1)
		go func(i int, sess *capture.Session) {
			defer wg.Done()
			if err := sess.Run(ctx); err != nil {
				errs[i] = err
				log.GetLogger().WithField("interface", sess.Interface()).
					WithError(err).Error("capture session failed")
			}
		}(i, sess)
	}
	wg.Wait()

	var first error
	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			if first == nil {
				first = err
			}
		}
	}
	if failed == len(m.sessions) {
		return fmt.Errorf("%w: first failure: %v", core.ErrAllSessionsFailed, first)
	}
	return nil
}

// Statuses reports a point-in-time view of every session, in the order
// the interfaces were given.
func (m *Monitor) Statuses() []capture.Status {
	out := make([]capture.Status, len(m.sessions))
	for i, sess := range m.sessions {
		out[i] = sess.Status()
	}
	return out
}
