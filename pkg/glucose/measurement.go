package glucose

import (
	"fmt"
	"strings"
	"time"

	"github.com/srg/glucoble/pkg/gatt"
)

// MeasurementHeaderSize is flags(1) + sequence number(2) + base time(7)
const MeasurementHeaderSize = 1 + 2 + gatt.DateTimeSize

// Concentration is the optional glucose value block of a measurement.
// Value is the wire value in SI units (kg/L, or mol/L when Unit is UnitMmolPerL).
type Concentration struct {
	Value    gatt.SFloat    `json:"value"`
	Unit     Unit           `json:"unit"`
	Type     SampleType     `json:"type"`
	Location SampleLocation `json:"location"`
}

// Converted returns Value rescaled into Unit: kg/L to mg/dL is 10^5, mol/L to mmol/L is 10^3
func (c Concentration) Converted() gatt.SFloat {
	if c.Unit == UnitMmolPerL {
		return c.Value.Shift(3)
	}
	return c.Value.Shift(5)
}

func (c Concentration) String() string {
	return fmt.Sprintf("%s %s", c.Converted(), c.Unit)
}

// Measurement is a decoded Glucose Measurement (0x2A18) notification
type Measurement struct {
	Flags          MeasurementFlags `json:"flags"`
	SequenceNumber uint16           `json:"sequence_number"`
	BaseTime       gatt.DateTime    `json:"base_time"`
	TimeOffset     *int16           `json:"time_offset_minutes,omitempty"`
	Concentration  *Concentration   `json:"concentration,omitempty"`
	SensorStatus   *SensorStatus    `json:"sensor_status,omitempty"`
	ContextFollows bool             `json:"context_follows"`
}

// DecodeMeasurement decodes a Glucose Measurement value.
// Trailing bytes after the last flagged field are ignored.
func DecodeMeasurement(data []byte) (Measurement, error) {
	return DecodeMeasurementFrom(gatt.NewCursor(data))
}

// DecodeMeasurementFrom decodes a Glucose Measurement starting at the cursor position,
// leaving the cursor right after the last field the flags announced.
func DecodeMeasurementFrom(c *gatt.Cursor) (Measurement, error) {
	var m Measurement

	if c.Remaining() < MeasurementHeaderSize {
		return m, fmt.Errorf("%w: glucose measurement needs at least %d bytes, got %d",
			gatt.ErrOutOfBounds, MeasurementHeaderSize, c.Remaining())
	}

	flags, err := c.ReadU8()
	if err != nil {
		return m, err
	}
	m.Flags = MeasurementFlags(flags)

	if m.SequenceNumber, err = c.ReadU16LE(); err != nil {
		return m, err
	}
	if m.BaseTime, err = c.ReadDateTime(); err != nil {
		return m, err
	}

	if m.Flags.Has(MeasurementTimeOffsetPresent) {
		if err := requireField(c, "time offset", 2); err != nil {
			return m, err
		}
		offset, _ := c.ReadI16LE()
		m.TimeOffset = &offset
	}

	if m.Flags.Has(MeasurementConcentrationPresent) {
		if err := requireField(c, "glucose concentration", 3); err != nil {
			return m, err
		}
		value, _ := c.ReadSFloat()
		typeLocation, _ := c.ReadU8()

		conc := Concentration{
			Value:    value,
			Unit:     UnitMgPerDL,
			Type:     sampleTypeFromNibble(typeLocation & 0x0F),
			Location: sampleLocationFromNibble(typeLocation >> 4),
		}
		if m.Flags.Has(MeasurementUnitsMmolPerL) {
			conc.Unit = UnitMmolPerL
		}
		m.Concentration = &conc
	}

	if m.Flags.Has(MeasurementSensorStatusPresent) {
		if err := requireField(c, "sensor status", 1); err != nil {
			return m, err
		}
		status, _ := c.ReadU8()
		s := SensorStatus(status)
		m.SensorStatus = &s
	}

	// The context bit announces a separate 0x2A34 notification; it has no inline payload.
	m.ContextFollows = m.Flags.Has(MeasurementContextFollows)

	return m, nil
}

func requireField(c *gatt.Cursor, field string, n int) error {
	if c.Remaining() < n {
		return &gatt.TruncatedFieldError{Field: field, Need: n, Have: c.Remaining()}
	}
	return nil
}

// Timestamp returns the base time shifted by the time offset, interpreted in loc.
// ok is false when the base time is not a valid calendar instant.
func (m Measurement) Timestamp(loc *time.Location) (t time.Time, ok bool) {
	t, ok = m.BaseTime.Time(loc)
	if !ok {
		return t, false
	}
	if m.TimeOffset != nil {
		t = t.Add(time.Duration(*m.TimeOffset) * time.Minute)
	}
	return t, true
}

func (m Measurement) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SequenceNumber[%d] Date[%s]", m.SequenceNumber, m.BaseTime)
	if m.TimeOffset != nil {
		fmt.Fprintf(&b, " TimeOffset[%d minutes]", *m.TimeOffset)
	}
	if c := m.Concentration; c != nil {
		fmt.Fprintf(&b, " GlucoseConcentration[%s] Type[%s] Location[%s]", c, c.Type, c.Location)
	}
	if m.SensorStatus != nil {
		fmt.Fprintf(&b, " SensorStatus[%s]", *m.SensorStatus)
	}
	if m.ContextFollows {
		b.WriteString(" ContextFollows")
	}
	return b.String()
}
