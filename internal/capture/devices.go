package capture

import (
	"fmt"
	"net"

	"github.com/google/gopacket/pcap"

	"github.com/kestrel-net/kestrel/internal/core"
)

// Device describes one capture-capable interface as enumerated by
// libpcap.
type Device struct {
	Name        string
	Description string
	Addresses   []string
}

// Devices enumerates the interfaces available for capture.
func Devices() ([]Device, error) {
	ifs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("capture: enumerate devices: %w", err)
	}
	devs := make([]Device, 0, len(ifs))
	for _, i := range ifs {
		d := Device{Name: i.Name, Description: i.Description}
		for _, addr := range i.Addresses {
			d.Addresses = append(d.Addresses, addr.IP.String())
		}
		devs = append(devs, d)
	}
	return devs, nil
}

// ResolveDefault picks the first enumerated device that is up, not
// loopback and carries an address. Pseudo-devices that the host network
// stack does not know are skipped.
func ResolveDefault() (string, error) {
	devs, err := Devices()
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrNoDevice, err)
	}
	for _, d := range devs {
		if len(d.Addresses) == 0 {
			continue
		}
		iface, err := net.InterfaceByName(d.Name)
		if err != nil {
			continue
		}
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		return d.Name, nil
	}
	return "", core.ErrNoDevice
}
