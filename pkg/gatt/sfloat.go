package gatt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SFloatKind tags the variant held by an SFloat.
type SFloatKind uint8

const (
	SFloatNumber SFloatKind = iota
	SFloatNaN
	SFloatPositiveInfinity
	SFloatNegativeInfinity
	SFloatNRes // not at this resolution
	SFloatReserved
)

// Reserved IEEE-11073 16-bit SFLOAT bit patterns.
const (
	SFloatRawNaN              uint16 = 0x07FF
	SFloatRawNRes             uint16 = 0x0800
	SFloatRawPositiveInfinity uint16 = 0x07FE
	SFloatRawNegativeInfinity uint16 = 0x0802
	SFloatRawReserved         uint16 = 0x0801
)

// SFloat value limits.
const (
	SFloatMantissaMin = -2048
	SFloatMantissaMax = 2047
	SFloatExponentMin = -8
	SFloatExponentMax = 7
)

func (k SFloatKind) String() string {
	switch k {
	case SFloatNumber:
		return "Number"
	case SFloatNaN:
		return "NaN"
	case SFloatPositiveInfinity:
		return "+Infinity"
	case SFloatNegativeInfinity:
		return "-Infinity"
	case SFloatNRes:
		return "NRes"
	case SFloatReserved:
		return "Reserved"
	default:
		return fmt.Sprintf("SFloatKind(%d)", uint8(k))
	}
}

// SFloat is a decoded IEEE-11073 16-bit SFLOAT.
// When Kind is SFloatNumber the value is exactly Mantissa × 10^Exponent;
// for every other kind Mantissa and Exponent are zero.
type SFloat struct {
	Kind     SFloatKind
	Mantissa int16
	Exponent int8
}

// DecodeSFloat decodes a raw 16-bit SFLOAT.
// The reserved patterns are matched on the full 16 bits before the
// exponent and mantissa are split.
func DecodeSFloat(raw uint16) SFloat {
	switch raw {
	case SFloatRawNaN:
		return SFloat{Kind: SFloatNaN}
	case SFloatRawNRes:
		return SFloat{Kind: SFloatNRes}
	case SFloatRawPositiveInfinity:
		return SFloat{Kind: SFloatPositiveInfinity}
	case SFloatRawNegativeInfinity:
		return SFloat{Kind: SFloatNegativeInfinity}
	case SFloatRawReserved:
		return SFloat{Kind: SFloatReserved}
	}

	return SFloat{
		Kind:     SFloatNumber,
		Mantissa: int16(signExtend(raw&0x0FFF, 12)),
		Exponent: int8(signExtend(raw>>12, 4)),
	}
}

// ParseSFloat decodes a little-endian 2-byte SFLOAT.
func ParseSFloat(data []byte) (SFloat, error) {
	if len(data) != 2 {
		return SFloat{}, fmt.Errorf("%w: sfloat expects 2 bytes, got %d", ErrInvalidLength, len(data))
	}
	return DecodeSFloat(uint16(data[0]) | uint16(data[1])<<8), nil
}

// EncodeSFloat packs mantissa and exponent into the 16-bit layout.
// It fails with ErrOutOfRange if either part does not fit its two's-complement
// field, or if the packed value would read back as one of the reserved patterns.
// Those are exactly five pairs, all at exponent 0:
//
//	mantissa  2047 -> 0x07FF (NaN)
//	mantissa -2048 -> 0x0800 (NRes)
//	mantissa  2046 -> 0x07FE (+INFINITY)
//	mantissa -2046 -> 0x0802 (-INFINITY)
//	mantissa -2047 -> 0x0801 (reserved)
//
// The same value stays encodable one decade up, e.g. (204, 1) for 2040.
func EncodeSFloat(mantissa, exponent int) (uint16, error) {
	if mantissa < SFloatMantissaMin || mantissa > SFloatMantissaMax {
		return 0, fmt.Errorf("%w: mantissa %d not in [%d, %d]", ErrOutOfRange, mantissa, SFloatMantissaMin, SFloatMantissaMax)
	}
	if exponent < SFloatExponentMin || exponent > SFloatExponentMax {
		return 0, fmt.Errorf("%w: exponent %d not in [%d, %d]", ErrOutOfRange, exponent, SFloatExponentMin, SFloatExponentMax)
	}

	raw := uint16(exponent&0x0F)<<12 | uint16(mantissa&0x0FFF)
	if isReservedSFloat(raw) {
		return 0, fmt.Errorf("%w: mantissa %d with exponent %d encodes reserved value 0x%04X", ErrOutOfRange, mantissa, exponent, raw)
	}
	return raw, nil
}

// NewSFloat builds a numeric SFloat, validating that it is encodable.
func NewSFloat(mantissa, exponent int) (SFloat, error) {
	if _, err := EncodeSFloat(mantissa, exponent); err != nil {
		return SFloat{}, err
	}
	return SFloat{Kind: SFloatNumber, Mantissa: int16(mantissa), Exponent: int8(exponent)}, nil
}

func isReservedSFloat(raw uint16) bool {
	switch raw {
	case SFloatRawNaN, SFloatRawNRes, SFloatRawPositiveInfinity, SFloatRawNegativeInfinity, SFloatRawReserved:
		return true
	}
	return false
}

// signExtend interprets the low n bits of v as an n-bit two's-complement integer.
func signExtend(v uint16, n uint) int {
	field := int(v & (1<<n - 1))
	if field&(1<<(n-1)) != 0 {
		return field - 1<<n
	}
	return field
}

// IsNumber reports whether v carries a finite numeric value.
func (v SFloat) IsNumber() bool {
	return v.Kind == SFloatNumber
}

// Uint16 returns the wire encoding of v.
func (v SFloat) Uint16() (uint16, error) {
	switch v.Kind {
	case SFloatNumber:
		return EncodeSFloat(int(v.Mantissa), int(v.Exponent))
	case SFloatNaN:
		return SFloatRawNaN, nil
	case SFloatNRes:
		return SFloatRawNRes, nil
	case SFloatPositiveInfinity:
		return SFloatRawPositiveInfinity, nil
	case SFloatNegativeInfinity:
		return SFloatRawNegativeInfinity, nil
	case SFloatReserved:
		return SFloatRawReserved, nil
	default:
		return 0, fmt.Errorf("%w: unknown sfloat kind %d", ErrOutOfRange, v.Kind)
	}
}

// Shift returns v scaled by 10^n. Only the exponent changes, so the result
// stays exact; it may leave the encodable exponent range.
// Non-numeric values are returned unchanged.
func (v SFloat) Shift(n int) SFloat {
	if v.Kind != SFloatNumber {
		return v
	}
	v.Exponent += int8(n)
	return v
}

// Float64 returns v as a binary float. NaN, NRes and Reserved map to NaN.
func (v SFloat) Float64() float64 {
	switch v.Kind {
	case SFloatNumber:
		return float64(v.Mantissa) * math.Pow10(int(v.Exponent))
	case SFloatPositiveInfinity:
		return math.Inf(1)
	case SFloatNegativeInfinity:
		return math.Inf(-1)
	default:
		return math.NaN()
	}
}

// String renders numbers as exact decimals keeping the device resolution
// (mantissa 300, exponent -5 renders "0.00300") and sentinels by name.
func (v SFloat) String() string {
	if v.Kind != SFloatNumber {
		return v.Kind.String()
	}
	return formatDecimal(int64(v.Mantissa), int(v.Exponent))
}

// MarshalJSON renders numbers as JSON numbers and sentinels as strings.
func (v SFloat) MarshalJSON() ([]byte, error) {
	if v.Kind != SFloatNumber {
		return []byte(strconv.Quote(v.Kind.String())), nil
	}
	return []byte(v.String()), nil
}

func formatDecimal(mantissa int64, exponent int) string {
	neg := mantissa < 0
	if neg {
		mantissa = -mantissa
	}

	digits := strconv.FormatInt(mantissa, 10)
	if exponent >= 0 {
		if mantissa != 0 {
			digits += strings.Repeat("0", exponent)
		}
	} else {
		frac := -exponent
		if len(digits) <= frac {
			digits = strings.Repeat("0", frac-len(digits)+1) + digits
		}
		digits = digits[:len(digits)-frac] + "." + digits[len(digits)-frac:]
	}

	if neg {
		return "-" + digits
	}
	return digits
}
