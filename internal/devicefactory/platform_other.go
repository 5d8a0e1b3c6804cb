//go:build !darwin && !linux

package devicefactory

import (
	"errors"

	"github.com/go-ble/ble"
)

// ErrUnsupportedPlatform is returned on platforms without a BLE stack
var ErrUnsupportedPlatform = errors.New("BLE is only supported on macOS and Linux")

func newPlatformDevice() (ble.Device, error) {
	return nil, ErrUnsupportedPlatform
}
