package core

import "errors"

var (
	// Frame decoding errors
	ErrFrameTooShort = errors.New("kestrel: frame too short")
	ErrNonIPFrame    = errors.New("kestrel: not an IPv4 frame")
	ErrBadHeaderLen  = errors.New("kestrel: invalid IP header length")

	// Capture errors
	ErrReadTimeout    = errors.New("kestrel: frame read timed out")
	ErrUnknownBackend = errors.New("kestrel: unknown capture backend")
	ErrNoDevice       = errors.New("kestrel: no suitable capture device found")

	// Orchestration errors
	ErrNoInterfaces      = errors.New("kestrel: no interfaces specified")
	ErrAllSessionsFailed = errors.New("kestrel: all capture sessions failed")

	// User input errors
	ErrInvalidSelection = errors.New("kestrel: invalid interface selection")

	// Configuration errors
	ErrConfigInvalid = errors.New("kestrel: invalid configuration")
)
