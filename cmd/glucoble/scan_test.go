package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/glucoble/internal/devicefactory"
	"github.com/srg/glucoble/internal/testutils"
)

type stubAdvertisement struct {
	ble.Advertisement
	addr, name string
	rssi       int
	services   []ble.UUID
}

func (a stubAdvertisement) Addr() ble.Addr       { return ble.NewAddr(a.addr) }
func (a stubAdvertisement) LocalName() string    { return a.name }
func (a stubAdvertisement) RSSI() int            { return a.rssi }
func (a stubAdvertisement) Services() []ble.UUID { return a.services }
func (a stubAdvertisement) Connectable() bool    { return true }

type stubDevice struct {
	ble.Device
	advs []ble.Advertisement
}

func (d stubDevice) Scan(_ context.Context, _ bool, h ble.AdvHandler) error {
	for _, adv := range d.advs {
		h(adv)
	}
	return nil
}

func withScanDevice(t *testing.T, advs ...ble.Advertisement) {
	t.Helper()
	orig := devicefactory.DeviceFactory
	t.Cleanup(func() { devicefactory.DeviceFactory = orig })
	devicefactory.DeviceFactory = func() (ble.Device, error) { return stubDevice{advs: advs}, nil }
}

var scanAdvs = []ble.Advertisement{
	stubAdvertisement{addr: "aa:bb:cc:dd:ee:ff", name: "Contour", rssi: -60, services: []ble.UUID{ble.UUID16(0x1808)}},
	stubAdvertisement{addr: "11:22:33:44:55:66", rssi: -40, services: []ble.UUID{ble.UUID16(0x1808), ble.UUID16(0x180A)}},
	stubAdvertisement{addr: "99:88:77:66:55:44", name: "Tag", rssi: -30, services: []ble.UUID{ble.UUID16(0x180F)}},
}

func TestScan_Text(t *testing.T) {
	withScanDevice(t, scanAdvs...)

	stdout, stderr, err := execute(t, "", "scan", "--duration", "1ms", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Scanning for 1ms")

	out := lines(stdout)
	require.Len(t, out, 3)
	assert.Regexp(t, `^ADDRESS\s+NAME\s+RSSI\s+SERVICES$`, out[0])
	assert.Regexp(t, `^11:22:33:44:55:66\s+-\s+-40\s+1808,180a$`, out[1])
	assert.Regexp(t, `^aa:bb:cc:dd:ee:ff\s+Contour\s+-60\s+1808$`, out[2])
}

func TestScan_All(t *testing.T) {
	withScanDevice(t, scanAdvs...)

	stdout, _, err := execute(t, "", "scan", "--all", "--block", "11:22:33:44:55:66", "-o", "json", "--log-level", "error")
	require.NoError(t, err)

	out := lines(stdout)
	require.Len(t, out, 2)
	testutils.NewJSONAsserter(t).Assert(out[0], `{"address": "99:88:77:66:55:44", "name": "Tag", "rssi": -30, "services": ["180f"], "seen": 1}`)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out[1]), &m))
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", m["address"])
}

func TestScan_YAML(t *testing.T) {
	withScanDevice(t, scanAdvs[0])

	stdout, _, err := execute(t, "", "scan", "-o", "yaml", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "address: aa:bb:cc:dd:ee:ff\nname: Contour\nrssi: -60\n")
	assert.Contains(t, stdout, "services:\n  - \"1808\"\n")
}

func TestScan_NoneFound(t *testing.T) {
	withScanDevice(t)

	stdout, _, err := execute(t, "", "scan", "--log-level", "error", "-d", "1ms")
	require.NoError(t, err)
	assert.Equal(t, "No glucose meters found\n", stdout)
}
