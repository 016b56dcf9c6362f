package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kestrel-net/kestrel/internal/core"
)

// Snapshot is a point-in-time copy of the aggregate state. All rendering
// derivations (rates, bars, rankings) are computed from a snapshot so the
// renderer never touches live store state.
type Snapshot struct {
	TotalPackets uint64
	TotalBytes   uint64
	ProtoPackets map[core.Protocol]uint64
	ProtoBytes   map[core.Protocol]uint64
	Connections  map[core.ConnectionKey]uint64

	Started    time.Time
	LastUpdate time.Time
	Taken      time.Time
}

// ProtocolStat pairs a protocol tag with its accumulated counters.
type ProtocolStat struct {
	Protocol core.Protocol
	Packets  uint64
	Bytes    uint64
}

// ConnectionCount pairs a connection with its packet count.
type ConnectionCount struct {
	Key   core.ConnectionKey
	Count uint64
}

// Elapsed returns the monitoring duration in whole seconds, floored at
// one so rate derivations never divide by zero.
func (s Snapshot) Elapsed() int64 {
	secs := int64(s.Taken.Sub(s.Started).Seconds())
	if secs < 1 {
		return 1
	}
	return secs
}

// PacketRate returns average packets per second since monitoring started.
func (s Snapshot) PacketRate() float64 {
	return float64(s.TotalPackets) / float64(s.Elapsed())
}

// ByteRate returns average bytes per second since monitoring started.
func (s Snapshot) ByteRate() float64 {
	return float64(s.TotalBytes) / float64(s.Elapsed())
}

// Protocols returns per-protocol statistics ordered by protocol tag, so
// repeated renders list protocols in a stable order.
func (s Snapshot) Protocols() []ProtocolStat {
	out := make([]ProtocolStat, 0, len(s.ProtoPackets))
	for p, n := range s.ProtoPackets {
		out = append(out, ProtocolStat{Protocol: p, Packets: n, Bytes: s.ProtoBytes[p]})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Protocol < out[j].Protocol
	})
	return out
}

// TopConnections returns the n busiest connections by packet count,
// descending. Equal counts order by ascending connection key, so the
// ranking is deterministic across snapshots.
func (s Snapshot) TopConnections(n int) []ConnectionCount {
	out := make([]ConnectionCount, 0, len(s.Connections))
	for k, c := range s.Connections {
		out = append(out, ConnectionCount{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key.Less(out[j].Key)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// byteUnits are binary (1024-based) size units, largest last.
var byteUnits = [...]string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders a byte count using the largest binary unit that
// keeps the scaled value below 1024, with two decimal places.
func FormatBytes(n uint64) string {
	size := float64(n)
	unit := 0
	for size >= 1024.0 && unit < len(byteUnits)-1 {
		size /= 1024.0
		unit++
	}
	return fmt.Sprintf("%.2f %s", size, byteUnits[unit])
}

// BarLength returns the filled cell count for a horizontal bar scaled
// against the maximum value. A zero maximum yields an empty bar.
func BarLength(value, max uint64, width int) int {
	if max == 0 || width <= 0 {
		return 0
	}
	filled := int(math.Round(float64(value) / float64(max) * float64(width)))
	if filled > width {
		filled = width
	}
	return filled
}
