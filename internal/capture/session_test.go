package capture

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/kestrel-net/kestrel/internal/core"
)

// udpFrame builds an Ethernet+IPv4+UDP frame from 10.0.0.1:5000 to
// 10.0.0.2:53.
func udpFrame(iface string) core.RawFrame {
	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true},
		&layers.Ethernet{
			DstMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
			SrcMAC:       net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff},
			EthernetType: layers.EthernetTypeIPv4,
		},
		&layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    net.IP{10, 0, 0, 1},
			DstIP:    net.IP{10, 0, 0, 2},
		},
		&layers.UDP{SrcPort: 5000, DstPort: 53},
	)
	if err != nil {
		panic(err)
	}
	b := buf.Bytes()
	return core.RawFrame{
		Data:       b,
		Timestamp:  time.Now(),
		CaptureLen: len(b),
		WireLen:    len(b),
		Interface:  iface,
	}
}

func junkFrame(iface string) core.RawFrame {
	return core.RawFrame{
		Data:       make([]byte, 6), // shorter than an Ethernet header
		CaptureLen: 6,
		WireLen:    6,
		Interface:  iface,
	}
}

// scriptedHandle replays a fixed frame sequence, then keeps returning
// final. Close switches every later read to io.EOF.
type scriptedHandle struct {
	mu     sync.Mutex
	frames []core.RawFrame
	idx    int
	closed bool
	final  error
}

func (h *scriptedHandle) ReadFrame() (core.RawFrame, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return core.RawFrame{}, io.EOF
	}
	if h.idx >= len(h.frames) {
		return core.RawFrame{}, h.final
	}
	f := h.frames[h.idx]
	h.idx++
	return f, nil
}

func (h *scriptedHandle) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return nil
}

func (h *scriptedHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

type recordSink struct {
	mu   sync.Mutex
	recs []core.PacketRecord
}

func (s *recordSink) Record(rec core.PacketRecord) {
	s.mu.Lock()
	s.recs = append(s.recs, rec)
	s.mu.Unlock()
}

func (s *recordSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}

func newTestSession(iface string, h Handle, sink Sink) *Session {
	s := NewSession(iface, Options{}, sink)
	s.open = func() (Handle, error) { return h, nil }
	return s
}

func TestSessionDeliversRecords(t *testing.T) {
	h := &scriptedHandle{
		frames: []core.RawFrame{
			udpFrame("test0"),
			udpFrame("test0"),
			junkFrame("test0"),
			udpFrame("test0"),
		},
		final: io.EOF,
	}
	sink := &recordSink{}
	s := newTestSession("test0", h, sink)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sink.count() != 3 {
		t.Errorf("Expected 3 records at the sink, got %d", sink.count())
	}

	status := s.Status()
	if status.Packets != 3 {
		t.Errorf("Expected 3 packets counted, got %d", status.Packets)
	}
	if status.DecodeFailures != 1 {
		t.Errorf("Expected 1 decode failure, got %d", status.DecodeFailures)
	}
	if status.Running {
		t.Error("Session must not report running after Run returns")
	}
	if !h.isClosed() {
		t.Error("Handle must be closed after Run returns")
	}

	sink.mu.Lock()
	rec := sink.recs[0]
	sink.mu.Unlock()
	if rec.SrcAddr != "10.0.0.1" || rec.SrcPort != 5000 || rec.DstPort != 53 {
		t.Errorf("Decoded record mismatch: %+v", rec)
	}
	if rec.Interface != "test0" {
		t.Errorf("Record must carry the interface name, got %q", rec.Interface)
	}
}

func TestSessionTimeoutKeepsPolling(t *testing.T) {
	// One timeout between two frames; the loop must ride over it.
	h := &timeoutThenFrameHandle{}
	sink := &recordSink{}
	s := newTestSession("test1", h, sink)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sink.count() != 2 {
		t.Errorf("Expected 2 records, got %d", sink.count())
	}
}

// timeoutThenFrameHandle interleaves reads: frame, timeout, frame, EOF.
type timeoutThenFrameHandle struct {
	mu    sync.Mutex
	calls int
}

func (h *timeoutThenFrameHandle) ReadFrame() (core.RawFrame, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	switch h.calls {
	case 1, 3:
		return udpFrame("test1"), nil
	case 2:
		return core.RawFrame{}, core.ErrReadTimeout
	default:
		return core.RawFrame{}, io.EOF
	}
}

func (h *timeoutThenFrameHandle) Close() error { return nil }

func TestSessionCancellationClosesHandle(t *testing.T) {
	h := &scriptedHandle{final: core.ErrReadTimeout}
	s := newTestSession("test2", h, &recordSink{})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	// Let the loop spin on timeouts before cancelling.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Cancelled run must return nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if !h.isClosed() {
		t.Error("Cancellation must close the handle")
	}
}

func TestSessionOpenFailure(t *testing.T) {
	s := NewSession("eth9", Options{}, &recordSink{})
	s.open = func() (Handle, error) {
		return nil, errors.New("permission denied")
	}

	err := s.Run(context.Background())
	if err == nil {
		t.Fatal("Expected open failure to be reported")
	}
	if !strings.Contains(err.Error(), "eth9") {
		t.Errorf("Error must name the interface: %v", err)
	}
	if !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("Error must wrap the cause: %v", err)
	}
}

func TestSessionReadFailure(t *testing.T) {
	h := &scriptedHandle{
		frames: []core.RawFrame{udpFrame("test3")},
		final:  errors.New("link down"),
	}
	s := newTestSession("test3", h, &recordSink{})

	err := s.Run(context.Background())
	if err == nil {
		t.Fatal("Expected read failure to be reported")
	}
	if !strings.Contains(err.Error(), "link down") {
		t.Errorf("Error must wrap the cause: %v", err)
	}
	if !h.isClosed() {
		t.Error("Handle must be closed after a read failure")
	}
}
