package core

import "time"

// RawFrame is one frame as delivered by a capture handle, before decoding.
// Data is a reference to the capture buffer and must not be retained past
// the next read on the same handle.
type RawFrame struct {
	Data       []byte
	Timestamp  time.Time
	CaptureLen int    // bytes actually captured
	WireLen    int    // original length on the wire
	Interface  string // originating interface name
}
