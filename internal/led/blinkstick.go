package led

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	hid "github.com/sstallion/go-hid"
)

// BlinkStick USB identifiers.
const (
	blinkStickVendorID  = 0x20A0
	blinkStickProductID = 0x41E5
)

// BlinkStick drives a BlinkStick over USB HID feature reports.
// Report 1 sets the color of the whole device: [1, r, g, b].
type BlinkStick struct {
	log    logrus.FieldLogger
	serial string
	mu     sync.Mutex
	dev    *hid.Device
}

// NewBlinkStick opens a BlinkStick. If serial is non-empty the device with
// that serial is preferred; otherwise the first device found is used. An
// absent device is not fatal: the open is retried on every write, so the
// engine sees write errors and handles them through its cooldown.
func NewBlinkStick(log logrus.FieldLogger, serial string) (*BlinkStick, error) {
	if err := hid.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize hidapi: %w", err)
	}

	s := &BlinkStick{
		log:    log.WithField("component", "blinkstick"),
		serial: serial,
	}

	if err := s.open(); err != nil {
		s.log.WithError(err).Warn("BlinkStick not found, will retry on first write")
	}

	return s, nil
}

// open finds and opens the device. Caller must hold no lock.
func (s *BlinkStick) open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.openLocked()
}

func (s *BlinkStick) openLocked() error {
	if s.serial != "" {
		dev, err := hid.Open(blinkStickVendorID, blinkStickProductID, s.serial)
		if err == nil {
			s.dev = dev
			s.log.WithField("serial", s.serial).Info("Opened BlinkStick")

			return nil
		}

		s.log.WithField("serial", s.serial).Warn("Preferred BlinkStick not found, falling back to first device")
	}

	dev, err := hid.OpenFirst(blinkStickVendorID, blinkStickProductID)
	if err != nil {
		return fmt.Errorf("no BlinkStick device found: %w", err)
	}

	s.dev = dev
	s.log.Info("Opened BlinkStick")

	return nil
}

// SetColor writes the color to the device. A failed write closes the device
// handle so the next call attempts a fresh open.
func (s *BlinkStick) SetColor(c RGB) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		if err := s.openLocked(); err != nil {
			return err
		}
	}

	report := []byte{1, c.R, c.G, c.B}
	if _, err := s.dev.SendFeatureReport(report); err != nil {
		s.dev.Close()
		s.dev = nil

		return fmt.Errorf("failed to write color %s: %w", c, err)
	}

	return nil
}

// Close turns the device off and releases it.
func (s *BlinkStick) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev != nil {
		// Best effort: leave the LED dark.
		s.dev.SendFeatureReport([]byte{1, 0, 0, 0})
		s.dev.Close()
		s.dev = nil
	}

	return hid.Exit()
}
