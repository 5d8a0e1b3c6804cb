package devicefactory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dialDevice struct {
	ble.Device
	client  ble.Client
	dialErr error
	dialed  ble.Addr
}

func (d *dialDevice) Dial(ctx context.Context, a ble.Addr) (ble.Client, error) {
	d.dialed = a
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("dial without deadline")
	}
	return d.client, d.dialErr
}

type profileClient struct {
	ble.Client
	profile     *ble.Profile
	discoverErr error
	cancelled   int
}

func (c *profileClient) DiscoverProfile(bool) (*ble.Profile, error) { return c.profile, c.discoverErr }
func (c *profileClient) CancelConnection() error                    { c.cancelled++; return nil }

func useDevice(t *testing.T, dev ble.Device, err error) {
	t.Helper()
	orig := DeviceFactory
	t.Cleanup(func() { DeviceFactory = orig })
	DeviceFactory = func() (ble.Device, error) { return dev, err }
}

func TestDial(t *testing.T) {
	profile := &ble.Profile{Services: []*ble.Service{{UUID: ble.UUID16(0x1808)}}}
	client := &profileClient{profile: profile}
	dev := &dialDevice{client: client}
	useDevice(t, dev, nil)

	c, p, err := Dial(context.Background(), "AA:BB:CC:DD:EE:FF", time.Second)
	require.NoError(t, err)
	assert.Same(t, client, c)
	assert.Same(t, profile, p)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", dev.dialed.String())
	assert.Zero(t, client.cancelled)
}

func TestDial_Errors(t *testing.T) {
	t.Run("device", func(t *testing.T) {
		useDevice(t, nil, errors.New("no adapter"))
		_, _, err := Dial(context.Background(), "aa", time.Second)
		assert.EqualError(t, err, "failed to create BLE device: no adapter")
	})

	t.Run("connect", func(t *testing.T) {
		useDevice(t, &dialDevice{dialErr: errors.New("refused")}, nil)
		_, _, err := Dial(context.Background(), "aa", time.Second)
		assert.EqualError(t, err, `failed to connect to device with address "aa": refused`)
	})

	t.Run("discovery", func(t *testing.T) {
		client := &profileClient{discoverErr: errors.New("gatt error")}
		useDevice(t, &dialDevice{client: client}, nil)
		_, _, err := Dial(context.Background(), "aa", time.Second)
		assert.ErrorContains(t, err, "failed to discover profile: gatt error")
		assert.Equal(t, 1, client.cancelled, "connection is cancelled after a failed discovery")
	})
}
