package led

import "sync"

// FakeSink is a test double that records written colors and can be scripted
// to fail.
type FakeSink struct {
	mu sync.Mutex

	// Writes holds every color passed to SetColor, in order.
	Writes []RGB

	// Err, if set, is returned by SetColor until cleared.
	Err error

	// Closed tracks whether Close was called.
	Closed bool
}

// NewFakeSink creates an empty FakeSink.
func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

// SetColor records the color, or returns the scripted error.
func (f *FakeSink) SetColor(c RGB) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return f.Err
	}

	f.Writes = append(f.Writes, c)

	return nil
}

// Close marks the sink as closed.
func (f *FakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Closed = true

	return nil
}

// Fail scripts an error for subsequent writes; pass nil to heal the device.
func (f *FakeSink) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Err = err
}

// Last returns the most recent write, or Off if nothing was written.
func (f *FakeSink) Last() RGB {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Writes) == 0 {
		return Off
	}

	return f.Writes[len(f.Writes)-1]
}

// WriteCount returns the number of successful writes.
func (f *FakeSink) WriteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.Writes)
}
