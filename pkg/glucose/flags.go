package glucose

// MeasurementFlags is the flags byte that prefixes a Glucose Measurement (0x2A18)
type MeasurementFlags uint8

// Glucose Measurement flag bits
const (
	MeasurementTimeOffsetPresent    MeasurementFlags = 1 << iota // bit0: i16 time offset follows
	MeasurementConcentrationPresent                              // bit1: SFLOAT + type/location follow
	MeasurementUnitsMmolPerL                                     // bit2: mol/L instead of kg/L
	MeasurementSensorStatusPresent                               // bit3: sensor status follows
	MeasurementContextFollows                                    // bit4: a context notification follows
)

// ContextFlags is the flags byte that prefixes a Glucose Measurement Context (0x2A34)
type ContextFlags uint8

// Glucose Measurement Context flag bits
const (
	ContextCarbohydratePresent  ContextFlags = 1 << iota // bit0: carbohydrate ID + SFLOAT
	ContextMealPresent                                   // bit1: meal byte
	ContextTesterHealthPresent                           // bit2: tester/health nibbles
	ContextExercisePresent                               // bit3: exercise duration + intensity
	ContextMedicationPresent                             // bit4: medication ID + SFLOAT
	ContextMedicationLiters                              // bit5: medication in liters instead of kilograms
	ContextHbA1cPresent                                  // bit6: HbA1c SFLOAT
	ContextExtendedFlagsPresent                          // bit7: extended flags byte
)

// Feature is the Glucose Feature (0x2A51) capability bitmask
type Feature uint16

// Glucose Feature bits, ascending
const (
	FeatureLowBattery Feature = 1 << iota
	FeatureSensorMalfunction
	FeatureSensorSampleSize
	FeatureSensorStripInsertionError
	FeatureSensorResultHighLow
	FeatureSensorTemperatureHighLow
	FeatureSensorReadInterrupt
	FeatureGeneralDeviceFault
	FeatureTimeFault
	FeatureMultipleBond
)

// FeatureReservedMask covers bits 10-15, which carry no assigned meaning
const FeatureReservedMask Feature = 0xFC00

// featureNames lists the named feature bits in ascending bit order
var featureNames = []struct {
	bit  Feature
	name string
}{
	{FeatureLowBattery, "LowBattery"},
	{FeatureSensorMalfunction, "SensorMalfunction"},
	{FeatureSensorSampleSize, "SensorSampleSize"},
	{FeatureSensorStripInsertionError, "SensorStripInsertionError"},
	{FeatureSensorResultHighLow, "SensorResultHighLow"},
	{FeatureSensorTemperatureHighLow, "SensorTemperatureHighLow"},
	{FeatureSensorReadInterrupt, "SensorReadInterrupt"},
	{FeatureGeneralDeviceFault, "GeneralDeviceFault"},
	{FeatureTimeFault, "TimeFault"},
	{FeatureMultipleBond, "MultipleBond"},
}

// Test reports whether every bit of bit is set in flags
func Test[T ~uint8 | ~uint16](flags, bit T) bool {
	return bit != 0 && flags&bit == bit
}

// Has reports whether bit is set
func (f MeasurementFlags) Has(bit MeasurementFlags) bool { return Test(f, bit) }

// Has reports whether bit is set
func (f ContextFlags) Has(bit ContextFlags) bool { return Test(f, bit) }

// Has reports whether bit is set
func (f Feature) Has(bit Feature) bool { return Test(f, bit) }
