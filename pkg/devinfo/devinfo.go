// Package devinfo decodes the Device Information service (0x180A) characteristics
// a glucose meter exposes next to its glucose service.
package devinfo

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/srg/glucoble/pkg/gatt"
)

// ErrInvalidText is returned for string characteristics that are not valid UTF-8
var ErrInvalidText = errors.New("invalid UTF-8 text")

// DecodeString decodes a UTF-8 string characteristic (manufacturer name, model number,
// serial number, firmware revision). Trailing NUL padding is removed.
func DecodeString(data []byte) (string, error) {
	str := strings.TrimRight(string(data), "\x00")
	if !utf8.ValidString(str) {
		return "", ErrInvalidText
	}
	return str, nil
}

// SystemID represents the System ID characteristic (0x2A23)
type SystemID struct {
	Manufacturer uint64 `json:"manufacturer"` // 40-bit manufacturer-defined identifier
	OUI          uint32 `json:"oui"`          // 24-bit organizationally unique identifier
}

// DecodeSystemID parses the 8-byte System ID: Manufacturer(5) then OUI(3), both little-endian.
func DecodeSystemID(data []byte) (SystemID, error) {
	if len(data) != 8 {
		return SystemID{}, fmt.Errorf("%w: system id expects 8 bytes, got %d", gatt.ErrInvalidLength, len(data))
	}
	v := binary.LittleEndian.Uint64(data)
	return SystemID{
		Manufacturer: v & 0xFFFFFFFFFF,
		OUI:          uint32(v >> 40),
	}, nil
}

func (s SystemID) String() string {
	return fmt.Sprintf("OUI[%06X] Manufacturer[%010X]", s.OUI, s.Manufacturer)
}

// VendorIDSource tells which body assigned a PnP vendor ID
type VendorIDSource uint8

const (
	VendorSourceBluetoothSIG VendorIDSource = 0x01
	VendorSourceUSB          VendorIDSource = 0x02
)

func (v VendorIDSource) String() string {
	switch v {
	case VendorSourceBluetoothSIG:
		return "Bluetooth SIG"
	case VendorSourceUSB:
		return "USB Implementer's Forum"
	default:
		return fmt.Sprintf("Reserved(%d)", uint8(v))
	}
}

func (v VendorIDSource) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// PnPID represents the PnP ID characteristic (0x2A50)
type PnPID struct {
	VendorIDSource VendorIDSource `json:"vendor_id_source"`
	VendorID       uint16         `json:"vendor_id"`
	ProductID      uint16         `json:"product_id"`
	ProductVersion uint16         `json:"product_version"`
}

// DecodePnPID parses the 7-byte PnP ID: Source(1), Vendor(2), Product(2), Version(2).
func DecodePnPID(data []byte) (PnPID, error) {
	if len(data) != 7 {
		return PnPID{}, fmt.Errorf("%w: pnp id expects 7 bytes, got %d", gatt.ErrInvalidLength, len(data))
	}
	return PnPID{
		VendorIDSource: VendorIDSource(data[0]),
		VendorID:       binary.LittleEndian.Uint16(data[1:3]),
		ProductID:      binary.LittleEndian.Uint16(data[3:5]),
		ProductVersion: binary.LittleEndian.Uint16(data[5:7]),
	}, nil
}

func (p PnPID) String() string {
	return fmt.Sprintf("Source[%s] Vendor[0x%04X] Product[0x%04X] Version[0x%04X]",
		p.VendorIDSource, p.VendorID, p.ProductID, p.ProductVersion)
}

// RegulatoryList is the IEEE 11073-20601 Regulatory Certification Data List (0x2A2A), kept opaque
type RegulatoryList []byte

// DecodeRegulatoryList copies the certification list verbatim
func DecodeRegulatoryList(data []byte) (RegulatoryList, error) {
	return RegulatoryList(gatt.NewCursor(data).Rest()), nil
}

func (r RegulatoryList) String() string {
	return strings.ToUpper(hex.EncodeToString(r))
}

func (r RegulatoryList) MarshalText() ([]byte, error) { return []byte(r.String()), nil }
