package modbus

import (
	"testing"

	"go.bug.st/serial/enumerator"
)

func TestPortFilterMatches(t *testing.T) {
	ftdi := &enumerator.PortDetails{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001"}
	ch340 := &enumerator.PortDetails{Name: "/dev/ttyUSB1", IsUSB: true, VID: "1A86", PID: "7523"}
	onboard := &enumerator.PortDetails{Name: "/dev/ttyS0"}

	vendorOnly := PortFilter{USBVendorID: "0403"}
	if !vendorOnly.matches(ftdi) {
		t.Errorf("vendor filter rejected matching device")
	}
	if vendorOnly.matches(ch340) {
		t.Errorf("vendor filter matched foreign vendor")
	}
	if vendorOnly.matches(onboard) {
		t.Errorf("USB filter matched non-USB device")
	}

	exact := PortFilter{USBVendorID: "1a86", USBProductID: "7523"}
	if !exact.matches(ch340) {
		t.Errorf("filter match must be case-insensitive")
	}
	if exact.matches(ftdi) {
		t.Errorf("product filter matched wrong product")
	}
}
