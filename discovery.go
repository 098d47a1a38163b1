package modbus

import (
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortFilter selects serial devices by their USB identifiers during
// discovery. IDs are hexadecimal strings as reported by the enumerator,
// e.g. "0403"/"6001" for an FTDI adapter. An empty USBProductID matches
// any product of the vendor.
type PortFilter struct {
	USBVendorID  string
	USBProductID string
}

func (f PortFilter) matches(port *enumerator.PortDetails) bool {
	if !port.IsUSB {
		return false
	}
	if !strings.EqualFold(f.USBVendorID, port.VID) {
		return false
	}
	return f.USBProductID == "" || strings.EqualFold(f.USBProductID, port.PID)
}

// DiscoverPorts enumerates serial devices and returns the paths of those
// matching any of the given filters. With no filters, every detected
// device is returned.
func DiscoverPorts(filters []PortFilter) ([]string, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	var ports []string
	for _, port := range details {
		if len(filters) == 0 {
			ports = append(ports, port.Name)
			continue
		}
		for _, f := range filters {
			if f.matches(port) {
				ports = append(ports, port.Name)
				break
			}
		}
	}
	return ports, nil
}
