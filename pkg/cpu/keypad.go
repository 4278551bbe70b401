package cpu

import "fmt"

// Key is the state of the hex keypad for one call to Step: either no key
// or exactly one of the sixteen keys.
type Key uint8

const (
	Key0 Key = iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyNone
)

// Pressed reports whether k is one of the sixteen hex keys.
func (k Key) Pressed() bool {
	return k < KeyNone
}

// Matches reports whether k is pressed and equal to the register value v.
func (k Key) Matches(v byte) bool {
	return k.Pressed() && byte(k) == v
}

func (k Key) String() string {
	if !k.Pressed() {
		return "none"
	}
	return fmt.Sprintf("%X", uint8(k))
}
