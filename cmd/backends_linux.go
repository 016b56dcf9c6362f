//go:build linux

package cmd

import (
	// Registers the AF_PACKET backend on linux builds.
	_ "github.com/kestrel-net/kestrel/internal/capture/afpacket"
)
