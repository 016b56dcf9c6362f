package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/kestrel-net/kestrel/internal/core"
	"github.com/kestrel-net/kestrel/internal/core/decoder"
	"github.com/kestrel-net/kestrel/internal/log"
	"github.com/kestrel-net/kestrel/internal/metrics"
)

// Status is a point-in-time view of one session.
type Status struct {
	Interface      string
	Packets        uint64
	DecodeFailures uint64
	Running        bool
}

// Session pulls frames from one interface, decodes them and forwards
// the records to a sink. One session owns one handle; sessions sharing
// a sink is the multi-interface case.
type Session struct {
	iface string
	sink  Sink
	open  func() (Handle, error)

	// dec carries parser scratch state and is touched only by the
	// Run goroutine.
	dec *decoder.Decoder

	mu       sync.Mutex
	packets  uint64
	failures uint64
	running  bool
}

// NewSession builds a session for the named interface. Nothing is
// opened until Run.
func NewSession(iface string, opts Options, sink Sink) *Session {
	return &Session{
		iface: iface,
		sink:  sink,
		open:  func() (Handle, error) { return Open(iface, opts) },
		dec:   decoder.New(),
	}
}

// Interface returns the interface name the session captures on.
func (s *Session) Interface() string {
	return s.iface
}

// Status reports the session counters.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Interface:      s.iface,
		Packets:        s.packets,
		DecodeFailures: s.failures,
		Running:        s.running,
	}
}

// Run opens the interface and pulls frames until the stream ends or ctx
// is cancelled. Cancellation closes the handle immediately so a read
// blocked in the kernel is released; the handle is closed before Run
// returns in every case. Decode failures are counted, never fatal. An
// open failure is fatal to this session only.
func (s *Session) Run(ctx context.Context) error {
	handle, err := s.open()
	if err != nil {
		metrics.SessionOpenFailuresTotal.WithLabelValues(s.iface).Inc()
		return fmt.Errorf("session %s: %w", s.iface, err)
	}

	var closeOnce sync.Once
	closeHandle := func() {
		closeOnce.Do(func() { handle.Close() })
	}
	defer closeHandle()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeHandle()
		case <-done:
		}
	}()

	s.setRunning(true)
	defer s.setRunning(false)

	logger := log.GetLogger().WithField("interface", s.iface)
	logger.Info("capture session started")
	defer logger.Info("capture session stopped")

	for {
		frame, err := handle.ReadFrame()
		if err != nil {
			switch {
			case errors.Is(err, core.ErrReadTimeout):
				if ctx.Err() != nil {
					return nil
				}
				continue
			case errors.Is(err, io.EOF):
				return nil
			case ctx.Err() != nil:
				// Read failed because cancellation closed the
				// handle underneath it.
				return nil
			default:
				return fmt.Errorf("session %s: read: %w", s.iface, err)
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		s.handleFrame(frame, logger)
	}
}

func (s *Session) handleFrame(frame core.RawFrame, logger log.Logger) {
	rec, err := s.dec.Decode(frame)
	if err != nil {
		s.countFailure()
		metrics.DecodeFailuresTotal.WithLabelValues(s.iface, decodeFailureReason(err)).Inc()
		if logger.IsDebugEnabled() {
			logger.WithError(err).Debug("frame dropped")
		}
		return
	}

	s.countPacket()
	metrics.CapturePacketsTotal.WithLabelValues(s.iface).Inc()
	metrics.CaptureBytesTotal.WithLabelValues(s.iface).Add(float64(rec.Length))
	s.sink.Record(rec)
}

func (s *Session) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

func (s *Session) countPacket() {
	s.mu.Lock()
	s.packets++
	s.mu.Unlock()
}

func (s *Session) countFailure() {
	s.mu.Lock()
	s.failures++
	s.mu.Unlock()
}

// decodeFailureReason maps decode sentinels to stable metric labels.
func decodeFailureReason(err error) string {
	switch {
	case errors.Is(err, core.ErrFrameTooShort):
		return "short_frame"
	case errors.Is(err, core.ErrNonIPFrame):
		return "non_ipv4"
	case errors.Is(err, core.ErrBadHeaderLen):
		return "bad_header"
	default:
		return "other"
	}
}
