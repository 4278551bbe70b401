package machine

import (
	"sync"

	"gochip8/pkg/cpu"
)

// DefaultHold is how many frames a latched key stays down.
const DefaultHold = 6

// KeyLatch turns key press events into a held key for inputs that never
// report releases, such as terminals. A press holds the key for a fixed
// number of frames; a newer press replaces it. Safe for concurrent use.
type KeyLatch struct {
	mu   sync.Mutex
	hold int
	key  cpu.Key
	left int
}

func NewKeyLatch(hold int) *KeyLatch {
	if hold < 1 {
		hold = 1
	}
	return &KeyLatch{hold: hold, key: cpu.KeyNone}
}

// Press latches k.
func (l *KeyLatch) Press(k cpu.Key) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.key = k
	l.left = l.hold
}

// Next returns the key for the coming frame and ages the latch by one frame.
func (l *KeyLatch) Next() cpu.Key {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.left == 0 {
		return cpu.KeyNone
	}
	l.left--
	return l.key
}
