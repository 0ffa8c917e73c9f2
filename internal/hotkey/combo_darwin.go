//go:build darwin

package hotkey

import "golang.design/x/hotkey"

// macOS has no alt key; option takes its place so one config string works
// across platforms.
var modifierNames = map[string]hotkey.Modifier{
	"ctrl":   hotkey.ModCtrl,
	"shift":  hotkey.ModShift,
	"alt":    hotkey.ModOption,
	"option": hotkey.ModOption,
	"cmd":    hotkey.ModCmd,
}
