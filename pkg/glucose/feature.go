package glucose

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/srg/glucoble/pkg/gatt"
)

// Features is a decoded Glucose Feature (0x2A51) value
type Features struct {
	Flags Feature `json:"flags"`
	// Reserved is the raw value of bits 10-15 in place (raw & 0xFC00), zero when unused.
	Reserved uint16 `json:"reserved,omitempty"`
}

// DecodeFeature decodes the 2-byte feature bitmask
func DecodeFeature(data []byte) (Features, error) {
	if len(data) != 2 {
		return Features{}, fmt.Errorf("%w: glucose feature expects 2 bytes, got %d", gatt.ErrInvalidLength, len(data))
	}
	raw := Feature(binary.LittleEndian.Uint16(data))
	return Features{
		Flags:    raw,
		Reserved: uint16(raw & FeatureReservedMask),
	}, nil
}

// Has reports whether the device supports bit
func (f Features) Has(bit Feature) bool {
	return f.Flags.Has(bit)
}

// Names lists the supported named features in ascending bit order
func (f Features) Names() []string {
	names := make([]string, 0, len(featureNames))
	for _, fn := range featureNames {
		if f.Flags.Has(fn.bit) {
			names = append(names, fn.name)
		}
	}
	return names
}

// ReservedBits returns bits 10-15 shifted down to 0-63
func (f Features) ReservedBits() uint8 {
	return uint8(f.Reserved >> 10)
}

func (f Features) String() string {
	parts := f.Names()
	if f.Reserved != 0 {
		parts = append(parts, fmt.Sprintf("ReservedValueUsed[%d]", f.ReservedBits()))
	}
	return strings.Join(parts, ", ")
}
