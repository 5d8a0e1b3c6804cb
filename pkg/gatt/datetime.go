package gatt

import (
	"encoding/binary"
	"fmt"
	"time"
)

// DateTimeSize is the wire size of a Date Time record.
const DateTimeSize = 7

// DateTime is the GATT Date Time record. Fields are taken verbatim from the
// wire: no calendar validation is applied and there is no time zone.
type DateTime struct {
	Year   uint16
	Month  uint8
	Day    uint8
	Hour   uint8
	Minute uint8
	Second uint8
}

// ParseDateTime decodes exactly DateTimeSize bytes: year (u16 LE), month, day, hour, minute, second.
func ParseDateTime(data []byte) (DateTime, error) {
	if len(data) != DateTimeSize {
		return DateTime{}, fmt.Errorf("%w: date time expects %d bytes, got %d", ErrInvalidLength, DateTimeSize, len(data))
	}
	return DateTime{
		Year:   binary.LittleEndian.Uint16(data[0:2]),
		Month:  data[2],
		Day:    data[3],
		Hour:   data[4],
		Minute: data[5],
		Second: data[6],
	}, nil
}

// Bytes returns the wire encoding of d.
func (d DateTime) Bytes() []byte {
	b := make([]byte, DateTimeSize)
	binary.LittleEndian.PutUint16(b[0:2], d.Year)
	b[2], b[3], b[4], b[5], b[6] = d.Month, d.Day, d.Hour, d.Minute, d.Second
	return b
}

// Time converts d to a time.Time in loc. ok is false when the fields do not
// name a real instant (unknown year 0, month 0, day 31 of a 30-day month, ...).
func (d DateTime) Time(loc *time.Location) (t time.Time, ok bool) {
	if d.Year == 0 || d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Hour > 23 || d.Minute > 59 || d.Second > 59 {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	t = time.Date(int(d.Year), time.Month(d.Month), int(d.Day), int(d.Hour), int(d.Minute), int(d.Second), 0, loc)
	// time.Date normalizes overflowing days; reject those.
	if t.Day() != int(d.Day) {
		return time.Time{}, false
	}
	return t, true
}

// String formats d as "YYYY-MM-DD hh:mm:ss".
func (d DateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
}

// MarshalText implements encoding.TextMarshaler using String.
func (d DateTime) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
