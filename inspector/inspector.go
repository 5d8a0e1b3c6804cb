// Package inspector connects to a device and reports its GATT profile,
// decoding every readable characteristic glucoble knows.
package inspector

import (
	"context"
	"strings"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/srg/glucoble/internal/bledb"
	"github.com/srg/glucoble/internal/devicefactory"
	"github.com/srg/glucoble/pkg/characteristic"
)

// ProgressCallback is called when the inspection phase changes
type ProgressCallback func(phase string)

// Options defines options for inspecting a device profile
type Options struct {
	ConnectTimeout time.Duration
}

// Client is the part of ble.Client an inspection needs
type Client interface {
	ReadCharacteristic(c *ble.Characteristic) ([]byte, error)
	CancelConnection() error
}

// Callback processes a connected device and produces output of type R
type Callback[R any] func(Client, *ble.Profile) (R, error)

// InspectDevice connects to address, discovers its profile and runs callback
// over the connection. The connection is closed when callback returns.
func InspectDevice[R any](ctx context.Context, address string, opts *Options, logger *logrus.Logger, progressCallback ProgressCallback, callback Callback[R]) (R, error) {
	var zero R
	if opts == nil {
		opts = &Options{ConnectTimeout: 30 * time.Second}
	}
	if logger == nil {
		logger = logrus.New()
	}
	if progressCallback == nil {
		progressCallback = func(string) {}
	}

	progressCallback("Connecting")
	client, profile, err := devicefactory.Dial(ctx, address, opts.ConnectTimeout)
	if err != nil {
		progressCallback("Failed")
		return zero, err
	}
	progressCallback("Connected")

	defer func() {
		if err := client.CancelConnection(); err != nil {
			logger.WithError(err).Error("failed to disconnect device")
		}
	}()

	progressCallback("Processing results")
	return callback(client, profile)
}

// Report describes a device profile
type Report struct {
	Address  string          `json:"address"`
	Services []ServiceReport `json:"services"`
}

// ServiceReport describes one service
type ServiceReport struct {
	UUID            string       `json:"uuid"`
	Name            string       `json:"name,omitempty"`
	Characteristics []CharReport `json:"characteristics"`
}

// CharReport describes one characteristic and, when it was read, its value
type CharReport struct {
	UUID       string                 `json:"uuid"`
	Name       string                 `json:"name,omitempty"`
	Properties string                 `json:"properties"`
	Value      *characteristic.Result `json:"value,omitempty"`
	ReadError  string                 `json:"read_error,omitempty"`
}

// Describe builds a Report for profile. Readable characteristics with a known
// decoder are read and decoded; a failed read is recorded, not returned.
func Describe(client Client, address string, profile *ble.Profile, logger *logrus.Logger) Report {
	if logger == nil {
		logger = logrus.New()
	}

	report := Report{Address: address, Services: make([]ServiceReport, 0, len(profile.Services))}
	for _, svc := range profile.Services {
		sr := ServiceReport{
			UUID:            svc.UUID.String(),
			Name:            bledb.LookupService(svc.UUID.String()),
			Characteristics: make([]CharReport, 0, len(svc.Characteristics)),
		}
		for _, c := range svc.Characteristics {
			cr := CharReport{
				UUID:       c.UUID.String(),
				Name:       bledb.LookupCharacteristic(c.UUID.String()),
				Properties: propsToString(c.Property),
			}
			if c.Property&ble.CharRead != 0 && characteristic.Lookup(svc.UUID, c.UUID) != characteristic.Unknown {
				data, err := client.ReadCharacteristic(c)
				if err != nil {
					logger.WithFields(logrus.Fields{
						"char_uuid": cr.UUID,
						"error":     err,
					}).Warn("Failed to read characteristic")
					cr.ReadError = err.Error()
				} else {
					r := characteristic.Decode(svc.UUID, c.UUID, data)
					cr.Value = &r
				}
			}
			sr.Characteristics = append(sr.Characteristics, cr)
		}
		report.Services = append(report.Services, sr)
	}
	return report
}

func propsToString(p ble.Property) string {
	var s []string
	if p&ble.CharRead != 0 {
		s = append(s, "Read")
	}
	if p&ble.CharWrite != 0 {
		s = append(s, "Write")
	}
	if p&ble.CharWriteNR != 0 {
		s = append(s, "WriteNR")
	}
	if p&ble.CharNotify != 0 {
		s = append(s, "Notify")
	}
	if p&ble.CharIndicate != 0 {
		s = append(s, "Indicate")
	}
	return strings.Join(s, "|")
}
