// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: The go-kvm Authors

package kvm

// KeyStroke describes one physical key press needed to produce a character,
// naming the key and whether Shift must be held while pressing it.
type KeyStroke struct {
	Key   string
	Shift bool
}

// keyCodes maps symbolic key names to USB HID usage IDs (keyboard/keypad
// usage page). The names follow the W3C UI Events code values, which is
// what the device expects on the wire; the usage IDs are what the device
// reports on its emulated HID interface. The table is populated once
// during package initialization and never mutated afterwards.
var keyCodes = map[string]uint16{
	"KeyA": 0x04, "KeyB": 0x05, "KeyC": 0x06, "KeyD": 0x07,
	"KeyE": 0x08, "KeyF": 0x09, "KeyG": 0x0a, "KeyH": 0x0b,
	"KeyI": 0x0c, "KeyJ": 0x0d, "KeyK": 0x0e, "KeyL": 0x0f,
	"KeyM": 0x10, "KeyN": 0x11, "KeyO": 0x12, "KeyP": 0x13,
	"KeyQ": 0x14, "KeyR": 0x15, "KeyS": 0x16, "KeyT": 0x17,
	"KeyU": 0x18, "KeyV": 0x19, "KeyW": 0x1a, "KeyX": 0x1b,
	"KeyY": 0x1c, "KeyZ": 0x1d,

	"Digit1": 0x1e, "Digit2": 0x1f, "Digit3": 0x20, "Digit4": 0x21,
	"Digit5": 0x22, "Digit6": 0x23, "Digit7": 0x24, "Digit8": 0x25,
	"Digit9": 0x26, "Digit0": 0x27,

	"Enter":     0x28,
	"Escape":    0x29,
	"Backspace": 0x2a,
	"Tab":       0x2b,
	"Space":     0x2c,

	"Minus":        0x2d,
	"Equal":        0x2e,
	"BracketLeft":  0x2f,
	"BracketRight": 0x30,
	"Backslash":    0x31,
	"Semicolon":    0x33,
	"Quote":        0x34,
	"Backquote":    0x35,
	"Comma":        0x36,
	"Period":       0x37,
	"Slash":        0x38,

	"CapsLock": 0x39,

	"F1": 0x3a, "F2": 0x3b, "F3": 0x3c, "F4": 0x3d,
	"F5": 0x3e, "F6": 0x3f, "F7": 0x40, "F8": 0x41,
	"F9": 0x42, "F10": 0x43, "F11": 0x44, "F12": 0x45,

	"PrintScreen": 0x46,
	"ScrollLock":  0x47,
	"Pause":       0x48,

	"Insert":   0x49,
	"Home":     0x4a,
	"PageUp":   0x4b,
	"Delete":   0x4c,
	"End":      0x4d,
	"PageDown": 0x4e,

	"ArrowRight": 0x4f,
	"ArrowLeft":  0x50,
	"ArrowDown":  0x51,
	"ArrowUp":    0x52,

	"NumLock":        0x53,
	"NumpadDivide":   0x54,
	"NumpadMultiply": 0x55,
	"NumpadSubtract": 0x56,
	"NumpadAdd":      0x57,
	"NumpadEnter":    0x58,

	"Numpad1": 0x59, "Numpad2": 0x5a, "Numpad3": 0x5b,
	"Numpad4": 0x5c, "Numpad5": 0x5d, "Numpad6": 0x5e,
	"Numpad7": 0x5f, "Numpad8": 0x60, "Numpad9": 0x61,
	"Numpad0": 0x62,

	"NumpadDecimal": 0x63,
	"IntlBackslash": 0x64,
	"ContextMenu":   0x65,

	"ControlLeft":  0xe0,
	"ShiftLeft":    0xe1,
	"AltLeft":      0xe2,
	"MetaLeft":     0xe3,
	"ControlRight": 0xe4,
	"ShiftRight":   0xe5,
	"AltRight":     0xe6,
	"MetaRight":    0xe7,
}

// keyNames is the reverse of keyCodes, built once at init.
var keyNames = make(map[uint16]string, len(keyCodes))

// charStrokes maps printable ASCII characters to the key stroke that
// produces them on a US layout. Letters are filled in at init; digits and
// punctuation are listed with their shifted partners on the same physical
// key.
var charStrokes = map[rune]KeyStroke{
	' ': {Key: "Space"},

	'1': {Key: "Digit1"}, '!': {Key: "Digit1", Shift: true},
	'2': {Key: "Digit2"}, '@': {Key: "Digit2", Shift: true},
	'3': {Key: "Digit3"}, '#': {Key: "Digit3", Shift: true},
	'4': {Key: "Digit4"}, '$': {Key: "Digit4", Shift: true},
	'5': {Key: "Digit5"}, '%': {Key: "Digit5", Shift: true},
	'6': {Key: "Digit6"}, '^': {Key: "Digit6", Shift: true},
	'7': {Key: "Digit7"}, '&': {Key: "Digit7", Shift: true},
	'8': {Key: "Digit8"}, '*': {Key: "Digit8", Shift: true},
	'9': {Key: "Digit9"}, '(': {Key: "Digit9", Shift: true},
	'0': {Key: "Digit0"}, ')': {Key: "Digit0", Shift: true},

	'-': {Key: "Minus"}, '_': {Key: "Minus", Shift: true},
	'=': {Key: "Equal"}, '+': {Key: "Equal", Shift: true},
	'[': {Key: "BracketLeft"}, '{': {Key: "BracketLeft", Shift: true},
	']': {Key: "BracketRight"}, '}': {Key: "BracketRight", Shift: true},
	'\\': {Key: "Backslash"}, '|': {Key: "Backslash", Shift: true},
	';': {Key: "Semicolon"}, ':': {Key: "Semicolon", Shift: true},
	'\'': {Key: "Quote"}, '"': {Key: "Quote", Shift: true},
	'`': {Key: "Backquote"}, '~': {Key: "Backquote", Shift: true},
	',': {Key: "Comma"}, '<': {Key: "Comma", Shift: true},
	'.': {Key: "Period"}, '>': {Key: "Period", Shift: true},
	'/': {Key: "Slash"}, '?': {Key: "Slash", Shift: true},
}

func init() {
	for c := 'a'; c <= 'z'; c++ {
		name := "Key" + string(c-'a'+'A')
		charStrokes[c] = KeyStroke{Key: name}
		charStrokes[c-'a'+'A'] = KeyStroke{Key: name, Shift: true}
	}
	for name, code := range keyCodes {
		keyNames[code] = name
	}
}

// ResolveKey maps a symbolic key name to its device keycode (USB HID usage
// ID). Returns an ErrUnknownKey error for names outside the key map; the
// lookup is exact and case-sensitive.
func ResolveKey(name string) (uint16, error) {
	code, ok := keyCodes[name]
	if !ok {
		return 0, unknownKeyError("ResolveKey", name)
	}
	return code, nil
}

// KeyName maps a device keycode back to its symbolic key name. The second
// return value reports whether the keycode is part of the key map.
func KeyName(code uint16) (string, bool) {
	name, ok := keyNames[code]
	return name, ok
}

// TranslateCharacter maps a single character to the key strokes that
// produce it on a US layout. The result is a sequence to leave room for
// characters that need more than one stroke, though every character
// supported today translates to exactly one. Characters outside printable
// ASCII return an ErrUnsupportedCharacter error.
func TranslateCharacter(ch rune) ([]KeyStroke, error) {
	stroke, ok := charStrokes[ch]
	if !ok {
		return nil, unsupportedCharacterError("TranslateCharacter", ch)
	}
	return []KeyStroke{stroke}, nil
}

// TranslateText maps an entire string to key strokes, one character at a
// time. It fails on the first unsupported character without partial
// results, so callers can validate a full text before sending anything.
func TranslateText(text string) ([]KeyStroke, error) {
	strokes := make([]KeyStroke, 0, len(text))
	for _, ch := range text {
		s, err := TranslateCharacter(ch)
		if err != nil {
			return nil, err
		}
		strokes = append(strokes, s...)
	}
	return strokes, nil
}
