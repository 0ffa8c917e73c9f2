package led

// Noop is a Sink that discards all writes. Used when LED output is disabled
// in the configuration.
type Noop struct{}

// NewNoop creates a no-op sink.
func NewNoop() *Noop {
	return &Noop{}
}

// SetColor discards the color.
func (*Noop) SetColor(RGB) error { return nil }

// Close does nothing.
func (*Noop) Close() error { return nil }
