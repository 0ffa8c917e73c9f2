package hotkey

import (
	"fmt"
	"strings"

	"golang.design/x/hotkey"
)

// xHotkey backs the Hotkey interface with golang.design/x/hotkey.
type xHotkey struct {
	hk      *hotkey.Hotkey
	keydown chan struct{}
	keyup   chan struct{}
}

// New parses a combo string like "ctrl+shift+alt+o" and builds a global
// hotkey for it. Modifier names are platform-dependent (see combo_*.go).
func New(combo string) (Hotkey, error) {
	mods, key, err := parseCombo(combo)
	if err != nil {
		return nil, err
	}

	return &xHotkey{
		hk:      hotkey.New(mods, key),
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}, nil
}

func (h *xHotkey) Register() error {
	if err := h.hk.Register(); err != nil {
		return err
	}

	go func() {
		for range h.hk.Keydown() {
			select {
			case h.keydown <- struct{}{}:
			default:
			}
		}
	}()

	go func() {
		for range h.hk.Keyup() {
			select {
			case h.keyup <- struct{}{}:
			default:
			}
		}
	}()

	return nil
}

func (h *xHotkey) Unregister() {
	h.hk.Unregister()
}

func (h *xHotkey) Keydown() <-chan struct{} { return h.keydown }

func (h *xHotkey) Keyup() <-chan struct{} { return h.keyup }

// parseCombo splits a "+"-separated combo into modifiers and a final key.
func parseCombo(combo string) ([]hotkey.Modifier, hotkey.Key, error) {
	parts := strings.Split(strings.ToLower(combo), "+")
	if len(parts) < 2 {
		return nil, 0, fmt.Errorf("combo %q must contain at least one modifier and a key", combo)
	}

	var mods []hotkey.Modifier

	for _, part := range parts[:len(parts)-1] {
		name := strings.TrimSpace(part)

		mod, ok := modifierNames[name]
		if !ok {
			return nil, 0, fmt.Errorf("unknown modifier %q in combo %q", name, combo)
		}

		mods = append(mods, mod)
	}

	name := strings.TrimSpace(parts[len(parts)-1])

	key, ok := keyNames[name]
	if !ok {
		return nil, 0, fmt.Errorf("unknown key %q in combo %q", name, combo)
	}

	return mods, key, nil
}

var keyNames = map[string]hotkey.Key{
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"space": hotkey.KeySpace,
}
