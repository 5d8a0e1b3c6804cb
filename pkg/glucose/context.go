package glucose

import (
	"fmt"
	"strings"

	"github.com/srg/glucoble/pkg/gatt"
)

// ContextHeaderSize is flags(1) + sequence number(2)
const ContextHeaderSize = 3

// Meal is the meal byte of a measurement context
type Meal uint8

const (
	MealReserved Meal = iota // 0x00 is not a valid meal
	MealPreprandial
	MealPostprandial
	MealFasting
	MealCasual
	MealBedtime
	MealReservedHigh // 0x06 and above
)

func mealFromByte(b uint8) Meal {
	if b >= uint8(MealReservedHigh) {
		return MealReservedHigh
	}
	return Meal(b)
}

func (m Meal) String() string {
	switch m {
	case MealPreprandial:
		return "Preprandial"
	case MealPostprandial:
		return "Postprandial"
	case MealFasting:
		return "Fasting"
	case MealCasual:
		return "Casual"
	case MealBedtime:
		return "Bedtime"
	case MealReserved:
		return "Reserved (invalid)"
	default:
		return "Reserved"
	}
}

func (m Meal) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// CarbohydrateID names the meal a carbohydrate amount belongs to
type CarbohydrateID uint8

var carbohydrateNames = map[CarbohydrateID]string{
	1: "Breakfast", 2: "Lunch", 3: "Dinner", 4: "Snack", 5: "Drink", 6: "Supper", 7: "Brunch",
}

func (c CarbohydrateID) String() string { return lookupName(carbohydrateNames, c) }

func (c CarbohydrateID) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Tester is the low nibble of the tester/health byte
type Tester uint8

var testerNames = map[Tester]string{
	1: "Self", 2: "Health Care Professional", 3: "Lab Test", 0xF: "Not Available",
}

func (t Tester) String() string { return lookupName(testerNames, t) }

func (t Tester) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Health is the high nibble of the tester/health byte
type Health uint8

var healthNames = map[Health]string{
	1: "Minor Health Issues", 2: "Major Health Issues", 3: "During Menses",
	4: "Under Stress", 5: "No Health Issues", 0xF: "Not Available",
}

func (h Health) String() string { return lookupName(healthNames, h) }

func (h Health) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// MedicationID names the kind of insulin taken
type MedicationID uint8

var medicationNames = map[MedicationID]string{
	1: "Rapid Acting Insulin", 2: "Short Acting Insulin", 3: "Intermediate Acting Insulin",
	4: "Long Acting Insulin", 5: "Pre-mixed Insulin",
}

func (m MedicationID) String() string { return lookupName(medicationNames, m) }

func (m MedicationID) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func lookupName[T ~uint8](names map[T]string, v T) string {
	if name, ok := names[v]; ok {
		return name
	}
	return fmt.Sprintf("Reserved(%d)", uint8(v))
}

// Carbohydrate is the carbohydrate block; Amount is in kilograms
type Carbohydrate struct {
	ID     CarbohydrateID `json:"id"`
	Amount gatt.SFloat    `json:"amount_kg"`
}

// Exercise is the exercise block
type Exercise struct {
	DurationSeconds uint16 `json:"duration_seconds"` // 0xFFFF means overrun
	IntensityPct    uint8  `json:"intensity_percent"`
}

// Medication is the medication block; Amount is in kilograms, or liters when Liters is set
type Medication struct {
	ID     MedicationID `json:"id"`
	Amount gatt.SFloat  `json:"amount"`
	Liters bool         `json:"liters"`
}

// MeasurementContext is a decoded Glucose Measurement Context (0x2A34) notification.
// SequenceNumber pairs it with the Measurement that announced it.
type MeasurementContext struct {
	Flags          ContextFlags  `json:"flags"`
	SequenceNumber uint16        `json:"sequence_number"`
	ExtendedFlags  *uint8        `json:"extended_flags,omitempty"`
	Carbohydrate   *Carbohydrate `json:"carbohydrate,omitempty"`
	Meal           *Meal         `json:"meal,omitempty"`
	Tester         *Tester       `json:"tester,omitempty"`
	Health         *Health       `json:"health,omitempty"`
	Exercise       *Exercise     `json:"exercise,omitempty"`
	Medication     *Medication   `json:"medication,omitempty"`
	HbA1c          *gatt.SFloat  `json:"hba1c_percent,omitempty"`

	// Incomplete names the first flagged field whose bytes were missing.
	// That field and every later one are left nil.
	Incomplete string `json:"incomplete,omitempty"`
}

// DecodeContext decodes a Glucose Measurement Context value.
// Only a missing header is an error: flagged fields are read in wire order
// while bytes remain, and the walk stops at the first one that does not fit.
func DecodeContext(data []byte) (MeasurementContext, error) {
	var mc MeasurementContext
	c := gatt.NewCursor(data)

	if c.Remaining() < ContextHeaderSize {
		return mc, fmt.Errorf("%w: glucose measurement context needs at least %d bytes, got %d",
			gatt.ErrOutOfBounds, ContextHeaderSize, c.Remaining())
	}

	flags, _ := c.ReadU8()
	mc.Flags = ContextFlags(flags)
	mc.SequenceNumber, _ = c.ReadU16LE()

	steps := []struct {
		bit  ContextFlags
		name string
		size int
		read func()
	}{
		{ContextExtendedFlagsPresent, "extended flags", 1, func() {
			v, _ := c.ReadU8()
			mc.ExtendedFlags = &v
		}},
		{ContextCarbohydratePresent, "carbohydrate", 3, func() {
			id, _ := c.ReadU8()
			amount, _ := c.ReadSFloat()
			mc.Carbohydrate = &Carbohydrate{ID: CarbohydrateID(id), Amount: amount}
		}},
		{ContextMealPresent, "meal", 1, func() {
			v, _ := c.ReadU8()
			meal := mealFromByte(v)
			mc.Meal = &meal
		}},
		{ContextTesterHealthPresent, "tester/health", 1, func() {
			v, _ := c.ReadU8()
			tester, health := Tester(v&0x0F), Health(v>>4)
			mc.Tester, mc.Health = &tester, &health
		}},
		{ContextExercisePresent, "exercise", 3, func() {
			duration, _ := c.ReadU16LE()
			intensity, _ := c.ReadU8()
			mc.Exercise = &Exercise{DurationSeconds: duration, IntensityPct: intensity}
		}},
		{ContextMedicationPresent, "medication", 3, func() {
			id, _ := c.ReadU8()
			amount, _ := c.ReadSFloat()
			mc.Medication = &Medication{ID: MedicationID(id), Amount: amount, Liters: mc.Flags.Has(ContextMedicationLiters)}
		}},
		{ContextHbA1cPresent, "HbA1c", 2, func() {
			v, _ := c.ReadSFloat()
			mc.HbA1c = &v
		}},
	}

	for _, step := range steps {
		if !mc.Flags.Has(step.bit) {
			continue
		}
		if c.Remaining() < step.size {
			mc.Incomplete = step.name
			break
		}
		step.read()
	}

	return mc, nil
}

func (mc MeasurementContext) String() string {
	parts := []string{fmt.Sprintf("Sequence[%d]", mc.SequenceNumber)}
	if mc.Carbohydrate != nil {
		parts = append(parts, fmt.Sprintf("Carbohydrate[%s %s kg]", mc.Carbohydrate.ID, mc.Carbohydrate.Amount))
	}
	if mc.Meal != nil {
		parts = append(parts, fmt.Sprintf("Meal[%s]", *mc.Meal))
	}
	if mc.Tester != nil {
		parts = append(parts, fmt.Sprintf("Tester[%s] Health[%s]", *mc.Tester, *mc.Health))
	}
	if mc.Exercise != nil {
		parts = append(parts, fmt.Sprintf("Exercise[%ds %d%%]", mc.Exercise.DurationSeconds, mc.Exercise.IntensityPct))
	}
	if m := mc.Medication; m != nil {
		unit := "kg"
		if m.Liters {
			unit = "L"
		}
		parts = append(parts, fmt.Sprintf("Medication[%s %s %s]", m.ID, m.Amount, unit))
	}
	if mc.HbA1c != nil {
		parts = append(parts, fmt.Sprintf("HbA1c[%s%%]", *mc.HbA1c))
	}
	if mc.Incomplete != "" {
		parts = append(parts, fmt.Sprintf("Incomplete[%s]", mc.Incomplete))
	}
	return strings.Join(parts, ", ")
}
