package machine

import (
	"testing"

	"gochip8/pkg/cpu"
)

func TestKeyForRune(t *testing.T) {
	tests := []struct {
		r    rune
		want cpu.Key
		ok   bool
	}{
		{'1', cpu.Key1, true},
		{'4', cpu.KeyC, true},
		{'q', cpu.Key4, true},
		{'R', cpu.KeyD, true},
		{'s', cpu.Key8, true},
		{'f', cpu.KeyE, true},
		{'z', cpu.KeyA, true},
		{'x', cpu.Key0, true},
		{'c', cpu.KeyB, true},
		{'V', cpu.KeyF, true},
		{'p', cpu.KeyNone, false},
		{'5', cpu.KeyNone, false},
	}
	for _, tc := range tests {
		got, ok := KeyForRune(tc.r)
		if got != tc.want || ok != tc.ok {
			t.Errorf("KeyForRune(%q) = %v, %v; want %v, %v", tc.r, got, ok, tc.want, tc.ok)
		}
	}
}

func TestKeypadCoversAllKeys(t *testing.T) {
	seen := map[cpu.Key]bool{}
	for _, k := range Keypad {
		seen[k] = true
	}
	if len(seen) != 16 {
		t.Errorf("expected 16 distinct keys, got %d", len(seen))
	}
}
