package session

import (
	"context"
	"errors"
	"sync"

	"github.com/go-ble/ble"
)

// fakeClient replays canned GATT traffic: reads return fixed values and a
// write to RACP triggers the scripted notifications.
type fakeClient struct {
	ble.Client

	mu           sync.Mutex
	handlers     map[string]ble.NotificationHandler
	indications  map[string]bool
	reads        map[string][]byte
	writes       [][]byte
	onWrite      []notification
	subscribeErr error
	readBlock    chan struct{}
	cancelled    int
	disconnected chan struct{}
	profile      *ble.Profile
}

type notification struct {
	char ble.UUID
	data []byte
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		handlers:     make(map[string]ble.NotificationHandler),
		indications:  make(map[string]bool),
		reads:        make(map[string][]byte),
		disconnected: make(chan struct{}),
	}
}

func (f *fakeClient) DiscoverProfile(bool) (*ble.Profile, error) {
	if f.profile == nil {
		return nil, errors.New("not supported by fake")
	}
	return f.profile, nil
}

// fakeDevice dials the fake client; other ble.Device methods are not used.
type fakeDevice struct {
	ble.Device
	client *fakeClient
}

func (d *fakeDevice) Dial(context.Context, ble.Addr) (ble.Client, error) {
	return d.client, nil
}

func (f *fakeClient) ReadCharacteristic(c *ble.Characteristic) ([]byte, error) {
	if f.readBlock != nil {
		<-f.readBlock
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.reads[c.UUID.String()]
	if !ok {
		return nil, errors.New("read not permitted")
	}
	return data, nil
}

func (f *fakeClient) WriteCharacteristic(_ *ble.Characteristic, value []byte, _ bool) error {
	f.mu.Lock()
	f.writes = append(f.writes, append([]byte(nil), value...))
	script := f.onWrite
	f.mu.Unlock()

	for _, n := range script {
		f.notify(n.char, n.data)
	}
	return nil
}

func (f *fakeClient) Subscribe(c *ble.Characteristic, ind bool, h ble.NotificationHandler) error {
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[c.UUID.String()] = h
	f.indications[c.UUID.String()] = ind
	return nil
}

func (f *fakeClient) CancelConnection() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled++
	return nil
}

func (f *fakeClient) Disconnected() <-chan struct{} { return f.disconnected }

func (f *fakeClient) notify(char ble.UUID, data []byte) {
	f.mu.Lock()
	h := f.handlers[char.String()]
	f.mu.Unlock()
	if h != nil {
		h(data)
	}
}

func (f *fakeClient) written() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.writes...)
}

func (f *fakeClient) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}
