package capture

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/google/gopacket/pcap"
	"github.com/mitchellh/mapstructure"

	"github.com/kestrel-net/kestrel/internal/core"
)

// PcapBackend is the name of the default libpcap backend.
const PcapBackend = "pcap"

func init() {
	Register(PcapBackend, openPcap)
}

// pcapOptions are the libpcap-specific knobs under
// capture.backend_options.
type pcapOptions struct {
	BufferSizeMB int `mapstructure:"buffer_size_mb"`
}

type pcapHandle struct {
	iface string
	h     *pcap.Handle
}

func openPcap(iface string, opts Options) (Handle, error) {
	var extra pcapOptions
	if len(opts.BackendOptions) > 0 {
		if err := mapstructure.Decode(opts.BackendOptions, &extra); err != nil {
			return nil, fmt.Errorf("capture: pcap backend options: %w", err)
		}
	}

	var (
		h   *pcap.Handle
		err error
	)
	if extra.BufferSizeMB > 0 {
		h, err = activateWithBuffer(iface, opts, extra.BufferSizeMB)
	} else {
		h, err = pcap.OpenLive(iface, int32(opts.SnapLen), opts.Promiscuous, opts.Timeout())
	}
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", iface, err)
	}
	return &pcapHandle{iface: iface, h: h}, nil
}

// activateWithBuffer takes the inactive-handle path, the only way
// libpcap accepts a kernel buffer size.
func activateWithBuffer(iface string, opts Options, bufferSizeMB int) (*pcap.Handle, error) {
	inactive, err := pcap.NewInactiveHandle(iface)
	if err != nil {
		return nil, err
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(opts.SnapLen); err != nil {
		return nil, err
	}
	if err := inactive.SetPromisc(opts.Promiscuous); err != nil {
		return nil, err
	}
	if err := inactive.SetTimeout(opts.Timeout()); err != nil {
		return nil, err
	}
	if err := inactive.SetBufferSize(bufferSizeMB * 1024 * 1024); err != nil {
		return nil, err
	}
	return inactive.Activate()
}

func (h *pcapHandle) ReadFrame() (core.RawFrame, error) {
	data, ci, err := h.h.ReadPacketData()
	if err != nil {
		return core.RawFrame{}, normalizePcapError(err)
	}
	return core.RawFrame{
		Data:       data,
		Timestamp:  ci.Timestamp,
		CaptureLen: ci.CaptureLength,
		WireLen:    ci.Length,
		Interface:  h.iface,
	}, nil
}

func (h *pcapHandle) Close() error {
	h.h.Close()
	return nil
}

// normalizePcapError folds libpcap timeout signals into
// core.ErrReadTimeout and keeps io.EOF as the end-of-stream marker.
func normalizePcapError(err error) error {
	if errors.Is(err, io.EOF) {
		return err
	}
	if errors.Is(err, pcap.NextErrorTimeoutExpired) ||
		errors.Is(err, syscall.EAGAIN) ||
		strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return core.ErrReadTimeout
	}
	return err
}
