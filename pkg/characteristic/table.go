// Package characteristic routes raw GATT values to the decoder registered for
// their (service, characteristic) pair.
//
// The table is static and closed: every known characteristic has an ID, and
// anything else decodes to an Unknown result that still carries the raw bytes.
package characteristic

import (
	"fmt"

	"github.com/go-ble/ble"
	"github.com/srg/glucoble/internal/bledb"
	"github.com/srg/glucoble/pkg/devinfo"
	"github.com/srg/glucoble/pkg/gatt"
	"github.com/srg/glucoble/pkg/glucose"
)

// ID identifies a characteristic known to the dispatch table
type ID int

const (
	Unknown ID = iota
	GlucoseMeasurement
	GlucoseMeasurementContext
	GlucoseFeature
	RecordAccessControlPoint
	DateTime
	ManufacturerName
	ModelNumber
	SerialNumber
	FirmwareRevision
	SystemID
	PnPID
	RegulatoryCertificationDataList
)

var idNames = [...]string{
	Unknown:                         "Unknown",
	GlucoseMeasurement:              "GlucoseMeasurement",
	GlucoseMeasurementContext:       "GlucoseMeasurementContext",
	GlucoseFeature:                  "GlucoseFeature",
	RecordAccessControlPoint:        "RecordAccessControlPoint",
	DateTime:                        "DateTime",
	ManufacturerName:                "ManufacturerName",
	ModelNumber:                     "ModelNumber",
	SerialNumber:                    "SerialNumber",
	FirmwareRevision:                "FirmwareRevision",
	SystemID:                        "SystemID",
	PnPID:                           "PnPID",
	RegulatoryCertificationDataList: "RegulatoryCertificationDataList",
}

func (id ID) String() string {
	if id >= 0 && int(id) < len(idNames) {
		return idNames[id]
	}
	return fmt.Sprintf("ID(%d)", int(id))
}

func (id ID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// Service UUIDs
var (
	GlucoseServiceUUID           = ble.UUID16(0x1808)
	DeviceInformationServiceUUID = ble.UUID16(0x180A)
)

// Characteristic UUIDs
var (
	GlucoseMeasurementUUID        = ble.UUID16(0x2A18)
	GlucoseMeasurementContextUUID = ble.UUID16(0x2A34)
	GlucoseFeatureUUID            = ble.UUID16(0x2A51)
	RecordAccessControlPointUUID  = ble.UUID16(0x2A52)
	DateTimeUUID                  = ble.UUID16(0x2A08)
	ManufacturerNameUUID          = ble.UUID16(0x2A29)
	ModelNumberUUID               = ble.UUID16(0x2A24)
	SerialNumberUUID              = ble.UUID16(0x2A25)
	FirmwareRevisionUUID          = ble.UUID16(0x2A26)
	SystemIDUUID                  = ble.UUID16(0x2A23)
	PnPIDUUID                     = ble.UUID16(0x2A50)
	RegulatoryListUUID            = ble.UUID16(0x2A2A)
)

// Decoder turns a raw value into its typed form
type Decoder func([]byte) (any, error)

// Entry binds a characteristic ID to its UUIDs and decoder
type Entry struct {
	ID             ID
	Service        ble.UUID
	Characteristic ble.UUID
	Decode         Decoder
}

type key struct{ service, characteristic string }

func keyOf(service, char string) key {
	return key{bledb.NormalizeUUID(service), bledb.NormalizeUUID(char)}
}

func adapt[T any](fn func([]byte) (T, error)) Decoder {
	return func(data []byte) (any, error) {
		v, err := fn(data)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

var entries = []Entry{
	{GlucoseMeasurement, GlucoseServiceUUID, GlucoseMeasurementUUID, adapt(glucose.DecodeMeasurement)},
	{GlucoseMeasurementContext, GlucoseServiceUUID, GlucoseMeasurementContextUUID, adapt(glucose.DecodeContext)},
	{GlucoseFeature, GlucoseServiceUUID, GlucoseFeatureUUID, adapt(glucose.DecodeFeature)},
	{RecordAccessControlPoint, GlucoseServiceUUID, RecordAccessControlPointUUID, adapt(glucose.DecodeControlPoint)},
	{DateTime, GlucoseServiceUUID, DateTimeUUID, adapt(gatt.ParseDateTime)},
	{ManufacturerName, DeviceInformationServiceUUID, ManufacturerNameUUID, adapt(devinfo.DecodeString)},
	{ModelNumber, DeviceInformationServiceUUID, ModelNumberUUID, adapt(devinfo.DecodeString)},
	{SerialNumber, DeviceInformationServiceUUID, SerialNumberUUID, adapt(devinfo.DecodeString)},
	{FirmwareRevision, DeviceInformationServiceUUID, FirmwareRevisionUUID, adapt(devinfo.DecodeString)},
	{SystemID, DeviceInformationServiceUUID, SystemIDUUID, adapt(devinfo.DecodeSystemID)},
	{PnPID, DeviceInformationServiceUUID, PnPIDUUID, adapt(devinfo.DecodePnPID)},
	{RegulatoryCertificationDataList, DeviceInformationServiceUUID, RegulatoryListUUID, adapt(devinfo.DecodeRegulatoryList)},
}

// table maps normalized (service, characteristic) UUID pairs to their entry
var table = func() map[key]Entry {
	m := make(map[key]Entry, len(entries))
	for _, e := range entries {
		m[keyOf(e.Service.String(), e.Characteristic.String())] = e
	}
	return m
}()

// Entries returns the dispatch table in declaration order
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Lookup returns the ID registered for the pair, or Unknown
func Lookup(service, char ble.UUID) ID {
	return table[keyOf(service.String(), char.String())].ID
}

// Decode decodes data according to the (service, characteristic) pair.
// It never fails: decode errors and unknown pairs are reported inside the Result.
func Decode(service, char ble.UUID, data []byte) Result {
	r := Result{
		Service:        service,
		Characteristic: char,
		Raw:            gatt.NewCursor(data).Rest(),
	}

	e, ok := table[keyOf(service.String(), char.String())]
	if !ok {
		return r
	}
	r.ID = e.ID
	r.Value, r.Err = e.Decode(r.Raw)
	return r
}

// DecodeString is Decode for textual UUIDs in any form NormalizeUUID accepts.
// It fails only when a UUID cannot be parsed.
func DecodeString(service, char string, data []byte) (Result, error) {
	svc, err := ParseUUID(service)
	if err != nil {
		return Result{}, fmt.Errorf("invalid service UUID %q: %w", service, err)
	}
	ch, err := ParseUUID(char)
	if err != nil {
		return Result{}, fmt.Errorf("invalid characteristic UUID %q: %w", char, err)
	}
	return Decode(svc, ch, data), nil
}

// ParseUUID parses a 16-bit or 128-bit UUID in any form NormalizeUUID accepts
func ParseUUID(s string) (ble.UUID, error) {
	n := bledb.NormalizeUUID(s)
	if n == "" {
		return nil, fmt.Errorf("empty UUID")
	}
	return ble.Parse(n)
}
