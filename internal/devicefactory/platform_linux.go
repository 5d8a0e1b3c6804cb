//go:build linux

package devicefactory

import (
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
)

// newPlatformDevice opens the default HCI adapter; this needs CAP_NET_ADMIN.
func newPlatformDevice() (ble.Device, error) {
	return linux.NewDevice()
}
