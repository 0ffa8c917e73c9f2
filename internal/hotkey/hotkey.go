// Package hotkey provides the global key-combination listener that toggles
// the engine's voice-activity mode. The real implementation registers an
// OS-level hook via golang.design/x/hotkey; the fake allows testing without
// a display server.
package hotkey

// Hotkey is one registered global key combination.
type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}
