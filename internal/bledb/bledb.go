// Package bledb resolves Bluetooth SIG UUIDs to their assigned names.
//
// The tables cover the services, characteristics and descriptors a glucose
// meter exposes (Glucose, Device Information, Current Time, Battery) plus the
// generic GAP/GATT attributes every peripheral carries.
package bledb

import (
	"sort"
	"strings"
)

// sigBaseSuffix is the tail of the Bluetooth SIG base UUID 0000xxxx-0000-1000-8000-00805f9b34fb
const sigBaseSuffix = "00001000800000805f9b34fb"

// Entry is a named UUID in normalized form
type Entry struct {
	UUID string
	Name string
}

var services = map[string]string{
	"1800": "Generic Access",
	"1801": "Generic Attribute",
	"1805": "Current Time Service",
	"1808": "Glucose",
	"180a": "Device Information",
	"180f": "Battery Service",
	"180d": "Heart Rate",
}

var characteristics = map[string]string{
	"2a00": "Device Name",
	"2a01": "Appearance",
	"2a05": "Service Changed",
	"2a08": "Date Time",
	"2a19": "Battery Level",
	"2a23": "System ID",
	"2a24": "Model Number String",
	"2a25": "Serial Number String",
	"2a26": "Firmware Revision String",
	"2a27": "Hardware Revision String",
	"2a28": "Software Revision String",
	"2a29": "Manufacturer Name String",
	"2a2a": "IEEE 11073-20601 Regulatory Certification Data List",
	"2a2b": "Current Time",
	"2a18": "Glucose Measurement",
	"2a34": "Glucose Measurement Context",
	"2a37": "Heart Rate Measurement",
	"2a50": "PnP ID",
	"2a51": "Glucose Feature",
	"2a52": "Record Access Control Point",
}

var descriptors = map[string]string{
	"2900": "Characteristic Extended Properties",
	"2901": "Characteristic User Descriptor",
	"2902": "Client Characteristic Configuration",
	"2903": "Server Characteristic Configuration",
	"2904": "Characteristic Presentation Format",
}

// NormalizeUUID converts a UUID string to the internal BLE library format (lowercase, no dashes).
// A "0x" prefix and braces are stripped, and a full 128-bit UUID built on the
// Bluetooth SIG base is reduced to its 16-bit short form ("0000180d-0000-1000-8000-00805f9b34fb" -> "180d").
func NormalizeUUID(uuid string) string {
	u := strings.ToLower(strings.TrimSpace(uuid))
	u = strings.TrimPrefix(u, "0x")
	u = strings.NewReplacer("-", "", "{", "", "}", "").Replace(u)

	if len(u) == 32 && strings.HasPrefix(u, "0000") && strings.HasSuffix(u, sigBaseSuffix) {
		return u[4:8]
	}
	return u
}

// LookupService returns the SIG name of a service UUID, or "" if unknown.
func LookupService(uuid string) string {
	return services[NormalizeUUID(uuid)]
}

// LookupCharacteristic returns the SIG name of a characteristic UUID, or "" if unknown.
func LookupCharacteristic(uuid string) string {
	return characteristics[NormalizeUUID(uuid)]
}

// LookupDescriptor returns the SIG name of a descriptor UUID, or "" if unknown.
func LookupDescriptor(uuid string) string {
	return descriptors[NormalizeUUID(uuid)]
}

// Lookup resolves uuid against services, then characteristics, then descriptors.
func Lookup(uuid string) string {
	u := NormalizeUUID(uuid)
	for _, table := range []map[string]string{services, characteristics, descriptors} {
		if name, ok := table[u]; ok {
			return name
		}
	}
	return ""
}

// Services lists known services sorted by UUID
func Services() []Entry { return sorted(services) }

// Characteristics lists known characteristics sorted by UUID
func Characteristics() []Entry { return sorted(characteristics) }

func sorted(table map[string]string) []Entry {
	entries := make([]Entry, 0, len(table))
	for uuid, name := range table {
		entries = append(entries, Entry{UUID: uuid, Name: name})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].UUID < entries[j].UUID })
	return entries
}
