// Package devicefactory creates the platform BLE device shared by scanning
// and sessions.
package devicefactory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-ble/ble"
)

// DeviceFactory creates the platform BLE device.
// This is a variable so that it can be overridden in tests.
var DeviceFactory = func() (ble.Device, error) {
	return newPlatformDevice()
}

// Dial connects to address within timeout and discovers its full profile.
// The connection is cancelled again when discovery fails.
func Dial(ctx context.Context, address string, timeout time.Duration) (ble.Client, *ble.Profile, error) {
	dev, err := DeviceFactory()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create BLE device: %w", err)
	}
	ble.SetDefaultDevice(dev)

	connCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := ble.Dial(connCtx, ble.NewAddr(address))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to device with address %q: %w", address, err)
	}

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		if cancelErr := client.CancelConnection(); cancelErr != nil {
			err = errors.Join(err, cancelErr)
		}
		return nil, nil, fmt.Errorf("failed to discover profile: %w", err)
	}
	return client, profile, nil
}
