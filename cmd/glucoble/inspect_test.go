package main

import (
	"context"
	"errors"
	"testing"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/glucoble/internal/devicefactory"
	"github.com/srg/glucoble/internal/testutils"
)

type stubClient struct {
	ble.Client
	profile *ble.Profile
	reads   map[string][]byte
}

func (c stubClient) DiscoverProfile(bool) (*ble.Profile, error) { return c.profile, nil }
func (c stubClient) CancelConnection() error                    { return nil }
func (c stubClient) ReadCharacteristic(ch *ble.Characteristic) ([]byte, error) {
	if data, ok := c.reads[ch.UUID.String()]; ok {
		return data, nil
	}
	return nil, errors.New("insufficient authentication")
}

type dialStubDevice struct {
	ble.Device
	client ble.Client
}

func (d dialStubDevice) Dial(context.Context, ble.Addr) (ble.Client, error) { return d.client, nil }

func withInspectDevice(t *testing.T) {
	t.Helper()
	client := stubClient{
		profile: &ble.Profile{Services: []*ble.Service{{
			UUID: ble.UUID16(0x1808),
			Characteristics: []*ble.Characteristic{
				{UUID: ble.UUID16(0x2A18), Property: ble.CharNotify},
				{UUID: ble.UUID16(0x2A51), Property: ble.CharRead},
			},
		}, {
			UUID: ble.UUID16(0x180A),
			Characteristics: []*ble.Characteristic{
				{UUID: ble.UUID16(0x2A24), Property: ble.CharRead},
			},
		}}},
		reads: map[string][]byte{"2a51": {0x01, 0x00}},
	}
	orig := devicefactory.DeviceFactory
	t.Cleanup(func() { devicefactory.DeviceFactory = orig })
	devicefactory.DeviceFactory = func() (ble.Device, error) { return dialStubDevice{client: client}, nil }
}

func TestInspect_Text(t *testing.T) {
	withInspectDevice(t)

	stdout, _, err := execute(t, "", "inspect", exampleDeviceAddress, "--log-level", "error")
	require.NoError(t, err)

	testutils.NewTextAsserter(t).Assert(stdout, `
Device: `+exampleDeviceAddress+`
Service 1808 Glucose
  2a18 Glucose Measurement [Notify]
  2a51 Glucose Feature [Read]
    GlucoseFeature Data[0100] Len[2] LowBattery
Service 180a Device Information
  2a24 Model Number String [Read]
    read failed: insufficient authentication
`)
}

func TestInspect_JSON(t *testing.T) {
	withInspectDevice(t)

	stdout, _, err := execute(t, "", "inspect", exampleDeviceAddress, "-o", "json", "--log-level", "error")
	require.NoError(t, err)
	testutils.NewJSONAsserter(t).Assert(stdout, `{
		"address": "<<PRESENCE>>",
		"services": [
			{"uuid": "1808", "characteristics": [{"uuid": "2a18"}, {"uuid": "2a51", "value": {"text": "LowBattery"}}]},
			{"uuid": "180a", "characteristics": [{"uuid": "2a24", "read_error": "insufficient authentication"}]}
		]
	}`)
}

func TestInspect_Args(t *testing.T) {
	_, _, err := execute(t, "", "inspect")
	assert.ErrorContains(t, err, "accepts 1 arg(s)")
}
