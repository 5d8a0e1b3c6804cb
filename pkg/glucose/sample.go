package glucose

import "fmt"

// Unit is the concentration unit selected by MeasurementUnitsMmolPerL
type Unit uint8

const (
	UnitMgPerDL Unit = iota
	UnitMmolPerL
)

func (u Unit) String() string {
	if u == UnitMmolPerL {
		return "mmol/L"
	}
	return "mg/dL"
}

func (u Unit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

// SampleType is the low nibble of the type/location byte
type SampleType uint8

const (
	SampleTypeUnknown SampleType = iota
	SampleCapillaryWholeBlood
	SampleCapillaryPlasma
	SampleVenousWholeBlood
	SampleVenousPlasma
	SampleArterialWholeBlood
	SampleArterialPlasma
	SampleUndeterminedWholeBlood
	SampleUndeterminedPlasma
	SampleInterstitialFluid
	SampleControlSolution
)

var sampleTypeNames = [...]string{
	SampleTypeUnknown:            "Unknown",
	SampleCapillaryWholeBlood:    "Capillary Whole Blood",
	SampleCapillaryPlasma:        "Capillary Plasma",
	SampleVenousWholeBlood:       "Venous Whole Blood",
	SampleVenousPlasma:           "Venous Plasma",
	SampleArterialWholeBlood:     "Arterial Whole Blood",
	SampleArterialPlasma:         "Arterial Plasma",
	SampleUndeterminedWholeBlood: "Undetermined Whole Blood",
	SampleUndeterminedPlasma:     "Undetermined Plasma",
	SampleInterstitialFluid:      "Interstitial Fluid (ISF)",
	SampleControlSolution:        "Control Solution",
}

// sampleTypeFromNibble maps 0x1-0xA to the named types and everything else to Unknown
func sampleTypeFromNibble(n uint8) SampleType {
	if n >= uint8(SampleCapillaryWholeBlood) && n <= uint8(SampleControlSolution) {
		return SampleType(n)
	}
	return SampleTypeUnknown
}

func (t SampleType) String() string {
	if int(t) < len(sampleTypeNames) {
		return sampleTypeNames[t]
	}
	return fmt.Sprintf("SampleType(%d)", uint8(t))
}

func (t SampleType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// SampleLocation is the high nibble of the type/location byte
type SampleLocation uint8

const (
	LocationReservedForFutureUse SampleLocation = 0x0
	LocationFinger               SampleLocation = 0x1
	LocationAlternateSiteTest    SampleLocation = 0x2
	LocationEarlobe              SampleLocation = 0x3
	LocationControlSolution      SampleLocation = 0x4
	LocationNotAvailable         SampleLocation = 0xF
)

// sampleLocationFromNibble collapses every unassigned nibble into LocationReservedForFutureUse
func sampleLocationFromNibble(n uint8) SampleLocation {
	switch l := SampleLocation(n); l {
	case LocationFinger, LocationAlternateSiteTest, LocationEarlobe, LocationControlSolution, LocationNotAvailable:
		return l
	default:
		return LocationReservedForFutureUse
	}
}

func (l SampleLocation) String() string {
	switch l {
	case LocationFinger:
		return "Finger"
	case LocationAlternateSiteTest:
		return "Alternate Site Test (AST)"
	case LocationEarlobe:
		return "Earlobe"
	case LocationControlSolution:
		return "Control Solution"
	case LocationNotAvailable:
		return "Not Available"
	default:
		return "Reserved for Future Use"
	}
}

func (l SampleLocation) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// SensorStatus is the raw Sensor Status Annunciation byte
type SensorStatus uint8

func (s SensorStatus) String() string {
	return fmt.Sprintf("0x%02X", uint8(s))
}
