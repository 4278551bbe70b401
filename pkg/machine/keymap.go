package machine

import (
	"unicode"

	"gochip8/pkg/cpu"
)

// Layout is the host keyboard block that maps onto the 4x4 hex keypad, row
// by row:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
const Layout = "1234QWERASDFZXCV"

// Keypad holds the keypad key for each position in Layout.
var Keypad = [16]cpu.Key{
	cpu.Key1, cpu.Key2, cpu.Key3, cpu.KeyC,
	cpu.Key4, cpu.Key5, cpu.Key6, cpu.KeyD,
	cpu.Key7, cpu.Key8, cpu.Key9, cpu.KeyE,
	cpu.KeyA, cpu.Key0, cpu.KeyB, cpu.KeyF,
}

// KeyForRune maps a host key to the keypad. Letters match either case.
func KeyForRune(r rune) (cpu.Key, bool) {
	r = unicode.ToUpper(r)
	for i, l := range Layout {
		if l == r {
			return Keypad[i], true
		}
	}
	return cpu.KeyNone, false
}
