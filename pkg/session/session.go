// Package session feeds live glucose meter traffic into the characteristic
// decoders.
//
// A Session owns one GATT connection: it subscribes to the glucose service,
// reads the static characteristics, asks the meter for its stored records and
// hands every decoded value to a Handler. Decoding itself stays in
// pkg/characteristic; this package only moves bytes and keeps per-device state.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-ble/ble"
	"github.com/hedzr/go-ringbuf/v2/mpmc"
	"github.com/sirupsen/logrus"

	"github.com/srg/glucoble/internal/bledb"
	"github.com/srg/glucoble/internal/devicefactory"
	"github.com/srg/glucoble/internal/groutine"
	"github.com/srg/glucoble/pkg/characteristic"
	"github.com/srg/glucoble/pkg/config"
	"github.com/srg/glucoble/pkg/glucose"
)

var (
	ErrAlreadyStarted  = errors.New("session already started")
	ErrNotStarted      = errors.New("session not started")
	ErrNoGlucose       = errors.New("device does not expose the glucose service")
	ErrConnectionLost  = errors.New("connection lost")
	ErrReadTimeout     = errors.New("read timed out")
	ErrMissingRACP     = errors.New("device does not expose the record access control point")
	errMaxQueueSize    = fmt.Errorf("queue size exceeds maximum %d", MaxQueueSize)
	errZeroQueueSize   = errors.New("queue size must be > 0")
	errNilSessionInput = errors.New("client and profile must not be nil")
)

// MaxQueueSize caps the notification queue
const MaxQueueSize uint32 = 64 * 1024

// GATTClient is the part of ble.Client a session needs
type GATTClient interface {
	DiscoverProfile(force bool) (*ble.Profile, error)
	ReadCharacteristic(c *ble.Characteristic) ([]byte, error)
	WriteCharacteristic(c *ble.Characteristic, value []byte, noRsp bool) error
	Subscribe(c *ble.Characteristic, ind bool, h ble.NotificationHandler) error
	CancelConnection() error
	Disconnected() <-chan struct{}
}

// Event is one decoded value together with the record it completed, if any
type Event struct {
	Result   characteristic.Result
	Record   *Record
	Gap      *Gap
	Received time.Time
}

// Handler receives events in arrival order from a single goroutine
type Handler func(Event)

// Metrics counts queue traffic
type Metrics struct {
	Received    uint64
	Decoded     uint64
	Failed      uint64
	Overwritten uint64
}

type rawValue struct {
	service  ble.UUID
	char     ble.UUID
	data     []byte
	received time.Time
}

// Session streams decoded values from one glucose meter
type Session struct {
	cfg     *config.Config
	logger  *logrus.Logger
	handler Handler
	store   *RecordStore

	queue mpmc.RichOverlappedRingBuffer[rawValue]
	wake  chan struct{}

	mu      sync.Mutex
	client  GATTClient
	cancel  context.CancelCauseFunc
	ctx     context.Context
	drained <-chan struct{}

	received    atomic.Uint64
	decoded     atomic.Uint64
	failed      atomic.Uint64
	overwritten atomic.Uint64
}

// New creates a session; handler may be nil when only the RecordStore is of interest.
func New(cfg *config.Config, logger *logrus.Logger, handler Handler) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if cfg.QueueSize == 0 {
		return nil, errZeroQueueSize
	}
	if cfg.QueueSize > MaxQueueSize {
		return nil, errMaxQueueSize
	}
	if logger == nil {
		logger = cfg.NewLogger()
	}
	if handler == nil {
		handler = func(Event) {}
	}

	return &Session{
		cfg:     cfg,
		logger:  logger,
		handler: handler,
		store:   NewRecordStore(),
		queue:   mpmc.NewOverlappedRingBuffer[rawValue](cfg.QueueSize),
		wake:    make(chan struct{}, 1),
	}, nil
}

// Records returns the per-device record store
func (s *Session) Records() *RecordStore { return s.store }

// Metrics returns a snapshot of the queue counters
func (s *Session) Metrics() Metrics {
	return Metrics{
		Received:    s.received.Load(),
		Decoded:     s.decoded.Load(),
		Failed:      s.failed.Load(),
		Overwritten: s.overwritten.Load(),
	}
}

// Connect dials address, discovers its profile and starts the session
func (s *Session) Connect(ctx context.Context, address string) error {
	s.logger.WithFields(logrus.Fields{
		"address": address,
		"timeout": s.cfg.ConnectTimeout,
	}).Info("Connecting to glucose meter...")

	client, profile, err := devicefactory.Dial(ctx, address, s.cfg.ConnectTimeout)
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"address":  address,
		"services": len(profile.Services),
	}).Debug("Profile discovered")

	return s.Start(ctx, client, profile)
}

// Start runs the session over an already connected client.
// The session owns client from here on: when Start fails the connection is
// cancelled, otherwise Close cancels it.
func (s *Session) Start(ctx context.Context, client GATTClient, profile *ble.Profile) error {
	if client == nil {
		return errNilSessionInput
	}
	if profile == nil {
		s.release(client)
		return errNilSessionInput
	}

	s.mu.Lock()
	if s.client != nil {
		running := s.client
		s.mu.Unlock()
		if running != client {
			s.release(client)
		}
		return ErrAlreadyStarted
	}
	glucoseSvc := findService(profile, characteristic.GlucoseServiceUUID)
	if glucoseSvc == nil {
		s.mu.Unlock()
		s.release(client)
		return ErrNoGlucose
	}

	s.client = client
	s.ctx, s.cancel = context.WithCancelCause(ctx)
	s.drained = groutine.Go(s.ctx, "glucose-decode-loop", s.drain)
	sessCtx := s.ctx
	s.mu.Unlock()

	groutine.Go(sessCtx, "ble-connection-monitor", func(ctx context.Context) {
		select {
		case <-client.Disconnected():
			s.logger.Warn("Device reported disconnection")
			s.cancel(ErrConnectionLost)
		case <-ctx.Done():
		}
	})

	// Subscriptions come first so no record sent in reply to RACP is missed
	var racp *ble.Characteristic
	for _, c := range glucoseSvc.Characteristics {
		if c.UUID.Equal(characteristic.RecordAccessControlPointUUID) {
			racp = c
		}
		if err := s.subscribe(glucoseSvc, c); err != nil {
			s.Close()
			return err
		}
	}

	for _, svc := range profile.Services {
		for _, c := range svc.Characteristics {
			if c.Property&ble.CharRead == 0 || characteristic.Lookup(svc.UUID, c.UUID) == characteristic.Unknown {
				continue
			}
			s.read(sessCtx, svc, c)
		}
	}

	if !s.cfg.ReportAllOnConnect {
		return nil
	}
	if racp == nil {
		s.Close()
		return ErrMissingRACP
	}
	return s.ReportAllStoredRecords(racp)
}

func (s *Session) subscribe(svc *ble.Service, c *ble.Characteristic) error {
	var indicate bool
	switch {
	case c.Property&ble.CharIndicate != 0:
		indicate = true
	case c.Property&ble.CharNotify != 0:
	default:
		return nil
	}

	fields := logrus.Fields{
		"char_uuid": c.UUID.String(),
		"char_name": bledb.LookupCharacteristic(c.UUID.String()),
		"indicate":  indicate,
	}
	if err := s.client.Subscribe(c, indicate, func(data []byte) { s.enqueue(svc.UUID, c.UUID, data) }); err != nil {
		s.logger.WithFields(fields).WithField("error", err).Error("Failed to subscribe")
		return fmt.Errorf("failed to subscribe to %s: %w", c.UUID, err)
	}
	s.logger.WithFields(fields).Debug("Subscribed")
	return nil
}

// read fetches one value, giving up after the configured read timeout.
// Failures are logged and skipped.
func (s *Session) read(ctx context.Context, svc *ble.Service, c *ble.Characteristic) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := s.client.ReadCharacteristic(c)
		done <- result{data, err}
	}()

	fields := logrus.Fields{"char_uuid": c.UUID.String(), "timeout": s.cfg.ReadTimeout}
	select {
	case r := <-done:
		if r.err != nil {
			s.logger.WithFields(fields).WithField("error", r.err).Warn("Failed to read characteristic")
			return
		}
		s.enqueue(svc.UUID, c.UUID, r.data)
	case <-time.After(s.cfg.ReadTimeout):
		s.logger.WithFields(fields).WithField("error", ErrReadTimeout).Warn("Failed to read characteristic")
	case <-ctx.Done():
	}
}

// ReportAllStoredRecords asks the meter to send every stored record
func (s *Session) ReportAllStoredRecords(racp *ble.Characteristic) error {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client == nil {
		return ErrNotStarted
	}

	cmd := glucose.ReportAllStoredRecords()
	if err := client.WriteCharacteristic(racp, cmd.Bytes(), false); err != nil {
		return fmt.Errorf("failed to write RACP command %s: %w", cmd, err)
	}
	s.logger.WithField("command", cmd.String()).Info("Requested all stored records")
	return nil
}

// enqueue is called from BLE callbacks and must not block
func (s *Session) enqueue(service, char ble.UUID, data []byte) {
	v := rawValue{service: service, char: char, data: append([]byte(nil), data...), received: time.Now()}
	overwrites, err := s.queue.EnqueueM(v)
	if err != nil {
		s.logger.WithField("error", err).Error("Failed to queue value")
		return
	}
	s.received.Add(1)
	if overwrites > 0 {
		s.overwritten.Add(uint64(overwrites))
		s.logger.WithField("dropped", overwrites).Warn("Queue full, oldest values dropped")
	}

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.flush()
			return
		case <-s.wake:
			s.flush()
		}
	}
}

func (s *Session) flush() {
	for !s.queue.IsEmpty() {
		v, err := s.queue.Dequeue()
		if err != nil {
			return
		}
		s.process(v)
	}
}

func (s *Session) process(v rawValue) {
	ev := Event{Result: characteristic.Decode(v.service, v.char, v.data), Received: v.received}

	if ev.Result.Err != nil {
		s.failed.Add(1)
		s.logger.WithFields(logrus.Fields{
			"char_uuid": v.char.String(),
			"data":      ev.Result.Hex(),
			"error":     ev.Result.Err,
		}).Warn("Failed to decode value")
	} else {
		s.decoded.Add(1)
	}

	switch val := ev.Result.Value.(type) {
	case glucose.Measurement:
		rec, gap := s.store.AddMeasurement(val)
		ev.Record, ev.Gap = &rec, gap
		if gap != nil {
			s.logger.WithField("missing", gap.String()).Warn("Sequence number gap")
		}
	case glucose.MeasurementContext:
		rec := s.store.AddContext(val)
		ev.Record = &rec
	}

	s.handler(ev)
}

// Done is closed when the session stops, either by Close or by a lost connection
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.ctx.Done()
}

// Err reports why the session stopped
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return nil
	}
	return context.Cause(s.ctx)
}

// Close stops the decode loop after flushing queued values and drops the connection.
// It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	client, cancel, drained := s.client, s.cancel, s.drained
	s.client = nil
	s.mu.Unlock()

	if client == nil {
		return nil
	}
	cancel(context.Canceled)
	<-drained

	if err := client.CancelConnection(); err != nil {
		return fmt.Errorf("failed to cancel connection: %w", err)
	}
	s.logger.Info("Session closed")
	return nil
}

// release cancels a connection the session refused to start on
func (s *Session) release(client GATTClient) {
	if err := client.CancelConnection(); err != nil {
		s.logger.WithField("error", err).Warn("Failed to cancel connection")
	}
}

func findService(p *ble.Profile, uuid ble.UUID) *ble.Service {
	for _, svc := range p.Services {
		if svc.UUID.Equal(uuid) {
			return svc
		}
	}
	return nil
}
