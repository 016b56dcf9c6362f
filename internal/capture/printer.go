package capture

import (
	"fmt"
	"io"
	"sync"

	"github.com/kestrel-net/kestrel/internal/core"
)

// Sink consumes decoded packet records. The aggregation store and the
// line printer both satisfy it.
type Sink interface {
	Record(rec core.PacketRecord)
}

// Printer writes one line per packet. In multi-interface mode each line
// carries the originating interface so intermixed output stays
// attributable.
type Printer struct {
	mu        sync.Mutex
	w         io.Writer
	withIface bool
}

// NewPrinter returns a printer writing to w. withIface enables the
// interface prefix used in multi-interface mode.
func NewPrinter(w io.Writer, withIface bool) *Printer {
	return &Printer{w: w, withIface: withIface}
}

func (p *Printer) Record(rec core.PacketRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.withIface {
		fmt.Fprintf(p.w, "[%s] Packet captured. Length: %d | Protocol: %s | From: %s:%d -> To: %s:%d\n",
			rec.Interface, rec.Length, rec.Protocol, rec.SrcAddr, rec.SrcPort, rec.DstAddr, rec.DstPort)
		return
	}
	fmt.Fprintf(p.w, "Packet captured. Length: %d | Protocol: %s | From: %s:%d -> To: %s:%d\n",
		rec.Length, rec.Protocol, rec.SrcAddr, rec.SrcPort, rec.DstAddr, rec.DstPort)
}
