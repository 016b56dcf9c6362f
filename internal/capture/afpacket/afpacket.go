//go:build linux

// Package afpacket provides the AF_PACKET capture backend, selected by
// setting capture.backend to "afpacket". It maps a TPacket v3 ring into
// the process, which keeps per-frame syscall overhead off the hot path.
package afpacket

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/google/gopacket/afpacket"
	"github.com/mitchellh/mapstructure"

	"github.com/kestrel-net/kestrel/internal/capture"
	"github.com/kestrel-net/kestrel/internal/core"
)

const Name = "afpacket"

func init() {
	capture.Register(Name, open)
}

// options are the AF_PACKET-specific knobs under
// capture.backend_options.
type options struct {
	BufferSizeMB int    `mapstructure:"buffer_size_mb"`
	FanoutID     uint16 `mapstructure:"fanout_id"`
}

type handle struct {
	iface string
	tp    *afpacket.TPacket
}

func open(iface string, opts capture.Options) (capture.Handle, error) {
	extra := options{BufferSizeMB: defaultBufferSizeMB}
	if len(opts.BackendOptions) > 0 {
		if err := mapstructure.Decode(opts.BackendOptions, &extra); err != nil {
			return nil, fmt.Errorf("afpacket: backend options: %w", err)
		}
		if extra.BufferSizeMB <= 0 {
			extra.BufferSizeMB = defaultBufferSizeMB
		}
	}

	frameSize, blockSize, numBlocks, err := ringLayout(extra.BufferSizeMB, opts.SnapLen, os.Getpagesize())
	if err != nil {
		return nil, fmt.Errorf("afpacket: %w", err)
	}

	tp, err := afpacket.NewTPacket(
		afpacket.OptInterface(iface),
		afpacket.OptFrameSize(frameSize),
		afpacket.OptBlockSize(blockSize),
		afpacket.OptNumBlocks(numBlocks),
		afpacket.OptPollTimeout(opts.Timeout()),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	)
	if err != nil {
		return nil, fmt.Errorf("afpacket: open %s: %w", iface, err)
	}

	if extra.FanoutID > 0 {
		if err := tp.SetFanout(afpacket.FanoutHashWithDefrag, extra.FanoutID); err != nil {
			tp.Close()
			return nil, fmt.Errorf("afpacket: set fanout %d: %w", extra.FanoutID, err)
		}
	}

	return &handle{iface: iface, tp: tp}, nil
}

func (h *handle) ReadFrame() (core.RawFrame, error) {
	data, ci, err := h.tp.ReadPacketData()
	if err != nil {
		return core.RawFrame{}, normalizeReadError(err)
	}
	return core.RawFrame{
		Data:       data,
		Timestamp:  ci.Timestamp,
		CaptureLen: ci.CaptureLength,
		WireLen:    ci.Length,
		Interface:  h.iface,
	}, nil
}

func (h *handle) Close() error {
	h.tp.Close()
	return nil
}

// normalizeReadError folds the TPacket poll-timeout signals into
// core.ErrReadTimeout.
func normalizeReadError(err error) error {
	if errors.Is(err, afpacket.ErrTimeout) || errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EINTR) {
		return core.ErrReadTimeout
	}
	return err
}
