package main

const (
	exampleDeviceAddress = "01234567-89AB-CDEF-0123-456789ABCDEF"
	deviceAddressNote    = "Device address format: 128-bit UUID on macOS, MAC address on Linux\n  Live sessions are supported on macOS (CoreBluetooth) and Linux (HCI)"
)
