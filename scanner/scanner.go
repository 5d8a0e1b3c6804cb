// Package scanner discovers glucose meters by their advertisements.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/go-ble/ble"
	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"

	"github.com/srg/glucoble/internal/devicefactory"
	"github.com/srg/glucoble/pkg/characteristic"
)

// EventType marks if the meter was newly discovered or updated
type EventType int

const (
	EventNew EventType = iota
	EventUpdated
)

// Event is sent for every accepted advertisement
type Event struct {
	Type  EventType
	Meter Meter
}

// Meter is what an advertisement tells about a device
type Meter struct {
	Address     string    `json:"address" yaml:"address"`
	Name        string    `json:"name" yaml:"name"`
	RSSI        int       `json:"rssi" yaml:"rssi"`
	Connectable bool      `json:"connectable" yaml:"connectable"`
	Services    []string  `json:"services" yaml:"services"`
	Seen        int       `json:"seen" yaml:"seen"`
	LastSeen    time.Time `json:"last_seen" yaml:"last_seen"`
}

// Options configures scanning behavior
type Options struct {
	Duration        time.Duration `default:"10s"`
	DuplicateFilter bool          `default:"true"`
	// ServiceUUIDs keeps only devices advertising one of these services;
	// empty means every device.
	ServiceUUIDs []ble.UUID
	AllowList    []string
	BlockList    []string
}

// DefaultOptions looks for devices advertising the Glucose service
func DefaultOptions() *Options {
	opts := &Options{}
	defaults.SetDefaults(opts)
	opts.ServiceUUIDs = []ble.UUID{characteristic.GlucoseServiceUUID}
	return opts
}

// Scanner handles glucose meter discovery. Meters may be called from any
// goroutine while Scan runs.
type Scanner struct {
	logger *logrus.Logger
	now    func() time.Time

	mu    sync.RWMutex
	state *scanState
}

// scanState belongs to one Scan call
type scanState struct {
	meters  *hashmap.Map[string, Meter]
	opts    *Options
	onEvent func(Event)
}

// NewScanner creates a new scanner
func NewScanner(logger *logrus.Logger) *Scanner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scanner{
		logger: logger,
		now:    time.Now,
		state:  &scanState{meters: hashmap.New[string, Meter](), opts: &Options{}},
	}
}

// Scan listens for advertisements for opts.Duration or until ctx is done and
// returns the matching meters, strongest signal first. onEvent may be nil.
func (s *Scanner) Scan(ctx context.Context, opts *Options, onEvent func(Event)) ([]Meter, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if onEvent == nil {
		onEvent = func(Event) {}
	}
	st := &scanState{meters: hashmap.New[string, Meter](), opts: opts, onEvent: onEvent}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"duration": opts.Duration,
		"services": uuidStrings(opts.ServiceUUIDs),
	}).Info("Starting BLE scan...")

	dev, err := devicefactory.DeviceFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to create BLE device: %w", err)
	}

	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	err = dev.Scan(ctx, !opts.DuplicateFilter, func(adv ble.Advertisement) {
		s.handleAdvertisement(st, adv)
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	s.logger.WithField("meter_count", st.meters.Len()).Info("BLE scan completed")
	return sortedMeters(st.meters), nil
}

// Meters returns a snapshot of discovered meters, strongest signal first
func (s *Scanner) Meters() []Meter {
	s.mu.RLock()
	st := s.state
	s.mu.RUnlock()
	return sortedMeters(st.meters)
}

func sortedMeters(table *hashmap.Map[string, Meter]) []Meter {
	meters := make([]Meter, 0, table.Len())
	table.Range(func(_ string, m Meter) bool {
		meters = append(meters, m)
		return true
	})
	sort.Slice(meters, func(i, j int) bool {
		if meters[i].RSSI != meters[j].RSSI {
			return meters[i].RSSI > meters[j].RSSI
		}
		return meters[i].Address < meters[j].Address
	})
	return meters
}

// handleAdvertisement updates an existing or adds a new meter
func (s *Scanner) handleAdvertisement(st *scanState, adv ble.Advertisement) {
	addr := adv.Addr().String()

	prev, existing := st.meters.Get(addr)
	if !existing && !st.shouldInclude(adv) {
		return
	}

	m := Meter{
		Address:     addr,
		Name:        adv.LocalName(),
		RSSI:        adv.RSSI(),
		Connectable: adv.Connectable(),
		Services:    uuidStrings(adv.Services()),
		Seen:        prev.Seen + 1,
		LastSeen:    s.now(),
	}
	// names and service lists are often only in the scan response
	if m.Name == "" {
		m.Name = prev.Name
	}
	if len(m.Services) == 0 {
		m.Services = prev.Services
	}
	st.meters.Set(addr, m)

	event := Event{Type: EventUpdated, Meter: m}
	if !existing {
		event.Type = EventNew
		s.logger.WithFields(logrus.Fields{
			"device":  m.Name,
			"address": m.Address,
			"rssi":    m.RSSI,
		}).Info("Discovered glucose meter")
	}
	st.onEvent(event)
}

// shouldInclude applies the allow, block and service filters
func (st *scanState) shouldInclude(adv ble.Advertisement) bool {
	addr := adv.Addr().String()
	sameAddr := func(a string) bool { return strings.EqualFold(a, addr) }

	if slices.ContainsFunc(st.opts.BlockList, sameAddr) {
		return false
	}
	if len(st.opts.AllowList) > 0 && !slices.ContainsFunc(st.opts.AllowList, sameAddr) {
		return false
	}
	if len(st.opts.ServiceUUIDs) == 0 {
		return true
	}
	for _, required := range st.opts.ServiceUUIDs {
		for _, advertised := range adv.Services() {
			if required.Equal(advertised) {
				return true
			}
		}
	}
	return false
}

func uuidStrings(uuids []ble.UUID) []string {
	out := make([]string, 0, len(uuids))
	for _, u := range uuids {
		out = append(out, u.String())
	}
	return out
}
