// Package led provides RGB LED output with hardware abstraction.
// The real implementation drives a BlinkStick over USB HID.
// The fake implementation allows testing without hardware.
package led

import "fmt"

// RGB is a single LED color.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// Off is the all-channels-dark color.
var Off = RGB{}

// String returns the color as a hex triple, e.g. "#ff0000".
func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Sink writes colors to an output device.
type Sink interface {
	// SetColor applies the given color to the device.
	SetColor(c RGB) error

	// Close releases the device.
	Close() error
}
