// Package core defines core types with zero external dependencies.
package core

import "fmt"

// Protocol is the transport protocol tag assigned to every decoded frame.
type Protocol string

const (
	ProtocolTCP   Protocol = "TCP"
	ProtocolUDP   Protocol = "UDP"
	ProtocolICMP  Protocol = "ICMP"
	ProtocolOther Protocol = "Other"
)

// Layer returns the OSI layer label used when presenting the protocol.
// The mapping is fixed: TCP and UDP are transport, ICMP is network,
// everything else gets the catch-all label.
func (p Protocol) Layer() string {
	switch p {
	case ProtocolTCP, ProtocolUDP:
		return "Layer 4 (Transport)"
	case ProtocolICMP:
		return "Layer 3 (Network)"
	default:
		return "Layer 3/4 (Network/Transport)"
	}
}

// PacketRecord is the decoded summary of one captured frame.
// Port fields are populated only for TCP and UDP; they are defined as
// zero for ICMP and Other so consumers never read an undefined value.
// Length is the wire length reported by the capture layer, which may
// exceed the number of bytes actually captured under truncation.
type PacketRecord struct {
	SrcAddr   string
	DstAddr   string
	SrcPort   uint16
	DstPort   uint16
	Protocol  Protocol
	Length    int
	Interface string
}

// ConnectionKey returns the grouping identity for the record's flow.
func (r PacketRecord) ConnectionKey() ConnectionKey {
	return ConnectionKey{
		SrcAddr:  r.SrcAddr,
		DstAddr:  r.DstAddr,
		SrcPort:  r.SrcPort,
		DstPort:  r.DstPort,
		Protocol: r.Protocol,
	}
}

// ConnectionKey identifies one traffic grouping: the classic five-tuple.
// Equality is structural; Compare orders keys lexicographically over the
// five fields in declaration order, giving the key a total order.
type ConnectionKey struct {
	SrcAddr  string
	DstAddr  string
	SrcPort  uint16
	DstPort  uint16
	Protocol Protocol
}

// Compare returns -1, 0 or 1 ordering k against other.
func (k ConnectionKey) Compare(other ConnectionKey) int {
	if k.SrcAddr != other.SrcAddr {
		return compareString(k.SrcAddr, other.SrcAddr)
	}
	if k.DstAddr != other.DstAddr {
		return compareString(k.DstAddr, other.DstAddr)
	}
	if k.SrcPort != other.SrcPort {
		return compareUint16(k.SrcPort, other.SrcPort)
	}
	if k.DstPort != other.DstPort {
		return compareUint16(k.DstPort, other.DstPort)
	}
	return compareString(string(k.Protocol), string(other.Protocol))
}

// Less reports whether k orders before other.
func (k ConnectionKey) Less(other ConnectionKey) bool {
	return k.Compare(other) < 0
}

// String renders the key as "src:port -> dst:port".
func (k ConnectionKey) String() string {
	return fmt.Sprintf("%s:%d -> %s:%d", k.SrcAddr, k.SrcPort, k.DstAddr, k.DstPort)
}

func compareString(a, b string) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func compareUint16(a, b uint16) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
