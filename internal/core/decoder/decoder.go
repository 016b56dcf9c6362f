// Package decoder turns raw frames into packet records.
//
// Decoding runs gopacket's layer parser over Ethernet -> IPv4 ->
// transport, reusing one set of layer structs across frames so the hot
// path does not allocate. IP protocols without a registered transport
// layer (GRE, OSPF, ...) classify as Other; frames that are not IPv4
// at all fail with ErrNonIPFrame.
package decoder

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/kestrel-net/kestrel/internal/core"
)

// Decoder parses captured frames into packet records. It keeps the
// parser and layer structs as scratch state between calls, so a
// Decoder is not safe for concurrent use; each capture session owns
// one.
type Decoder struct {
	parser *gopacket.DecodingLayerParser

	eth     layers.Ethernet
	ip4     layers.IPv4
	tcp     layers.TCP
	udp     layers.UDP
	payload gopacket.Payload

	decoded []gopacket.LayerType
}

// New builds a Decoder for Ethernet link-layer frames.
func New() *Decoder {
	d := &Decoder{
		decoded: make([]gopacket.LayerType, 0, 4),
	}
	d.parser = gopacket.NewDecodingLayerParser(
		layers.LayerTypeEthernet,
		&d.eth,
		&d.ip4,
		&d.tcp,
		&d.udp,
		&d.payload,
	)
	// Unregistered layer types (ARP, IPv6, GRE, fragments) stop the
	// walk instead of failing it; classification below decides what
	// the partial parse means.
	d.parser.IgnoreUnsupported = true
	return d
}

// Decode parses one captured frame and produces its packet record.
//
// The record's Length field carries the wire length reported by the
// capture layer, not the captured byte count; the two differ when the
// snapshot length truncates a frame. ICMP, fragments and unrecognized
// IP protocols yield zero ports.
func (d *Decoder) Decode(frame core.RawFrame) (core.PacketRecord, error) {
	if err := d.parser.DecodeLayers(frame.Data, &d.decoded); err != nil {
		return core.PacketRecord{}, d.parseError(err)
	}
	if len(d.decoded) == 0 {
		return core.PacketRecord{}, fmt.Errorf("%w: empty frame", core.ErrFrameTooShort)
	}

	rec := core.PacketRecord{
		Length:    frame.WireLen,
		Interface: frame.Interface,
	}
	sawIP, sawTransport := false, false
	for _, typ := range d.decoded {
		switch typ {
		case layers.LayerTypeIPv4:
			sawIP = true
			rec.SrcAddr = d.ip4.SrcIP.String()
			rec.DstAddr = d.ip4.DstIP.String()
			rec.Protocol = protocolTag(d.ip4.Protocol)
		case layers.LayerTypeTCP:
			sawTransport = true
			rec.SrcPort = uint16(d.tcp.SrcPort)
			rec.DstPort = uint16(d.tcp.DstPort)
		case layers.LayerTypeUDP:
			sawTransport = true
			rec.SrcPort = uint16(d.udp.SrcPort)
			rec.DstPort = uint16(d.udp.DstPort)
		}
	}
	if !sawIP {
		if d.eth.EthernetType == layers.EthernetTypeIPv4 {
			// IPv4 EtherType with nothing after the link header.
			return core.PacketRecord{}, fmt.Errorf("%w: no network header", core.ErrFrameTooShort)
		}
		return core.PacketRecord{}, fmt.Errorf("%w: %v", core.ErrNonIPFrame, d.eth.EthernetType)
	}
	if !sawTransport && !d.fragmented() {
		// An unfragmented TCP or UDP datagram must carry its
		// transport header; a fragment's payload bytes are not ports.
		switch rec.Protocol {
		case core.ProtocolTCP, core.ProtocolUDP:
			return core.PacketRecord{}, fmt.Errorf("%w: missing transport header", core.ErrFrameTooShort)
		}
	}
	return rec, nil
}

func (d *Decoder) fragmented() bool {
	return d.ip4.Flags&layers.IPv4MoreFragments != 0 || d.ip4.FragOffset != 0
}

// parseError converts a layer parse failure into a decode sentinel.
// The parser's truncation feedback separates frames cut short of a
// header from headers whose own fields are malformed.
func (d *Decoder) parseError(err error) error {
	if len(d.decoded) == 0 || d.parser.Truncated {
		return fmt.Errorf("%w: %v", core.ErrFrameTooShort, err)
	}
	return fmt.Errorf("%w: %v", core.ErrBadHeaderLen, err)
}

func protocolTag(p layers.IPProtocol) core.Protocol {
	switch p {
	case layers.IPProtocolTCP:
		return core.ProtocolTCP
	case layers.IPProtocolUDP:
		return core.ProtocolUDP
	case layers.IPProtocolICMPv4:
		return core.ProtocolICMP
	default:
		return core.ProtocolOther
	}
}
