// Package machine drives a CPU in 60Hz frames: a batch of instructions, one
// timer tick and a buzzer update per frame.
package machine

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"gochip8/pkg/cpu"
)

// FrameRate is the number of frames per second. Timers tick once per frame.
const FrameRate = 60

// DefaultHz is the default instruction rate.
const DefaultHz = 700

// Buzzer is told once per frame whether the tone should sound.
type Buzzer interface {
	SetTone(on bool)
}

// Buzzers fans a frame's buzzer state out to several outputs.
type Buzzers []Buzzer

func (bs Buzzers) SetTone(on bool) {
	for _, b := range bs {
		b.SetTone(on)
	}
}

// InstructionsPerFrame converts an instruction rate in Hz to a per-frame
// instruction count, rounded to the nearest integer and never below one.
func InstructionsPerFrame(hz int) int {
	n := int(math.Round(float64(hz) / FrameRate))
	if n < 1 {
		return 1
	}
	return n
}

type Machine struct {
	CPU *cpu.CPU

	perFrame int
	buzzer   Buzzer
	frames   atomic.Uint64
	paused   atomic.Bool
}

// New wraps c. buzzer may be nil.
func New(c *cpu.CPU, hz int, buzzer Buzzer) *Machine {
	return &Machine{
		CPU:      c,
		perFrame: InstructionsPerFrame(hz),
		buzzer:   buzzer,
	}
}

// PerFrame returns the number of instructions executed per frame.
func (m *Machine) PerFrame() int {
	return m.perFrame
}

// Frames returns the number of frames run so far.
func (m *Machine) Frames() uint64 {
	return m.frames.Load()
}

// TogglePause flips the pause state and returns the new state.
func (m *Machine) TogglePause() bool {
	for {
		old := m.paused.Load()
		if m.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (m *Machine) Paused() bool {
	return m.paused.Load()
}

// RunFrame executes one frame with key held for its whole duration. It
// returns false when the program has run off the end of memory or faulted;
// the timers are not ticked for that frame. A paused machine does nothing.
func (m *Machine) RunFrame(key cpu.Key) (bool, error) {
	if m.paused.Load() {
		return true, nil
	}

	for i := 0; i < m.perFrame; i++ {
		ok, err := m.CPU.Step(key)
		if !ok {
			if m.buzzer != nil {
				m.buzzer.SetTone(false)
			}
			return false, err
		}
	}

	m.CPU.TickTimers()
	if m.buzzer != nil {
		m.buzzer.SetTone(m.CPU.SoundTimer() != 0)
	}
	m.frames.Add(1)
	return true, nil
}

// Run calls RunFrame at FrameRate until the program stops or ctx is done.
// keys is polled once per frame; present, if set, receives the framebuffer
// after every frame on Run's goroutine, and must copy any CPU state it hands
// to another goroutine. Run returns the fault that stopped the program, ctx's
// error if it was cancelled, or nil when the program ran off memory.
func (m *Machine) Run(ctx context.Context, keys func() cpu.Key, present func(cpu.Frame)) error {
	ticker := time.NewTicker(time.Second / FrameRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if m.buzzer != nil {
				m.buzzer.SetTone(false)
			}
			return ctx.Err()
		case <-ticker.C:
		}

		key := cpu.KeyNone
		if keys != nil {
			key = keys()
		}
		ok, err := m.RunFrame(key)
		if present != nil {
			present(m.CPU.Framebuffer())
		}
		if !ok {
			return err
		}
	}
}

// RunFrames runs up to n frames as fast as possible with no key pressed. It
// stops early when the program stops.
func (m *Machine) RunFrames(n int) (int, error) {
	for i := 0; i < n; i++ {
		if ok, err := m.RunFrame(cpu.KeyNone); !ok {
			return i, err
		}
	}
	return n, nil
}
