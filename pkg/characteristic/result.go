package characteristic

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-ble/ble"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/glucoble/internal/bledb"
	"github.com/srg/glucoble/pkg/gatt"
)

// Result is the outcome of decoding one characteristic value.
// Raw is always populated; Value is set on success and Err on failure.
type Result struct {
	ID             ID
	Service        ble.UUID
	Characteristic ble.UUID
	Raw            []byte
	Value          any
	Err            error
}

// OK reports whether the value was recognised and decoded
func (r Result) OK() bool {
	return r.ID != Unknown && r.Err == nil
}

// Hex returns Raw as upper-case hex without separators
func (r Result) Hex() string {
	return strings.ToUpper(hex.EncodeToString(r.Raw))
}

// Name returns the SIG name of the characteristic, falling back to its UUID
func (r Result) Name() string {
	if r.Characteristic == nil {
		return r.ID.String()
	}
	if name := bledb.LookupCharacteristic(r.Characteristic.String()); name != "" {
		return name
	}
	return bledb.NormalizeUUID(r.Characteristic.String())
}

// String is the canonical one-line rendering; the raw hex is part of every form.
func (r Result) String() string {
	prefix := fmt.Sprintf("%s Data[%s] Len[%d]", r.ID, r.Hex(), len(r.Raw))
	switch {
	case r.ID == Unknown:
		return prefix
	case r.Err != nil:
		return fmt.Sprintf("%s Error[%s]", prefix, r.Err)
	default:
		return fmt.Sprintf("%s %s", prefix, formatValue(r.Value))
	}
}

// Fields returns the result as an insertion-ordered map for structured output
func (r Result) Fields() *orderedmap.OrderedMap[string, any] {
	om := orderedmap.New[string, any]()
	om.Set("id", r.ID.String())
	om.Set("name", r.Name())
	if r.Service != nil {
		om.Set("service", bledb.NormalizeUUID(r.Service.String()))
	}
	if r.Characteristic != nil {
		om.Set("characteristic", bledb.NormalizeUUID(r.Characteristic.String()))
	}
	om.Set("hex", r.Hex())
	om.Set("length", len(r.Raw))

	switch {
	case r.Err != nil:
		om.Set("error", r.Err.Error())
		if kind := gatt.KindOf(r.Err); kind != "" {
			om.Set("error_kind", kind)
		}
	case r.Value != nil:
		om.Set("value", r.Value)
		om.Set("text", formatValue(r.Value))
	}
	return om
}

// MarshalJSON renders Fields, keeping key order stable
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Fields())
}
