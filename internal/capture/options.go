package capture

import "time"

const (
	DefaultBackend   = "pcap"
	DefaultSnapLen   = 65535
	DefaultTimeoutMs = 1000

	// MinSnapLen covers the Ethernet header, a maximal IPv4 header and
	// the transport port fields, the smallest snapshot the decoder can
	// fully classify.
	MinSnapLen = 78
)

// Options configure how capture handles are opened. One Options value
// is shared by every session the monitor starts.
//
// BackendOptions carries backend-specific knobs (ring buffer sizing,
// fanout groups) that each backend decodes for itself; unknown keys for
// the selected backend are rejected at open time.
type Options struct {
	Backend        string                 `mapstructure:"backend" yaml:"backend"`
	SnapLen        int                    `mapstructure:"snap_len" yaml:"snap_len"`
	Promiscuous    bool                   `mapstructure:"promiscuous" yaml:"promiscuous"`
	TimeoutMs      int                    `mapstructure:"timeout_ms" yaml:"timeout_ms"`
	BackendOptions map[string]interface{} `mapstructure:"backend_options" yaml:"backend_options,omitempty"`
}

func (o Options) withDefaults() Options {
	if o.Backend == "" {
		o.Backend = DefaultBackend
	}
	if o.SnapLen <= 0 {
		o.SnapLen = DefaultSnapLen
	}
	if o.TimeoutMs <= 0 {
		o.TimeoutMs = DefaultTimeoutMs
	}
	return o
}

// Timeout returns the per-read timeout as a duration.
func (o Options) Timeout() time.Duration {
	return time.Duration(o.TimeoutMs) * time.Millisecond
}
