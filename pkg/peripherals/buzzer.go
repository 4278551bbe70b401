// Package peripherals holds the outputs a running machine drives besides the
// display: the buzzer tone for live playback and a WAV recorder.
package peripherals

import (
	"sync/atomic"
)

// Tone defaults.
const (
	DefaultSampleRate = 44100
	DefaultFrequency  = 440
	DefaultVolume     = 0.2
)

// SquareWave is an endless 16-bit little-endian stereo PCM stream, the
// format ebiten's audio players read. It plays a square wave while the tone
// is on and silence otherwise. SetTone may be called from any goroutine.
type SquareWave struct {
	on        atomic.Bool
	amplitude int16
	period    int // samples per cycle
	pos       int
}

func NewSquareWave(sampleRate, frequency int, volume float64) *SquareWave {
	if frequency <= 0 {
		frequency = DefaultFrequency
	}
	period := sampleRate / frequency
	if period < 2 {
		period = 2
	}
	return &SquareWave{
		amplitude: int16(volume * 32767),
		period:    period,
	}
}

// SetTone switches the tone on or off.
func (s *SquareWave) SetTone(on bool) {
	s.on.Store(on)
}

// On reports whether the tone is currently sounding.
func (s *SquareWave) On() bool {
	return s.on.Load()
}

// Read fills p with whole stereo frames. It never returns an error.
func (s *SquareWave) Read(p []byte) (int, error) {
	on := s.on.Load()
	n := len(p) / 4 * 4
	for i := 0; i < n; i += 4 {
		var v int16
		if on {
			v = s.amplitude
			if s.pos >= s.period/2 {
				v = -s.amplitude
			}
		}
		s.pos = (s.pos + 1) % s.period

		p[i] = byte(v)
		p[i+1] = byte(uint16(v) >> 8)
		p[i+2] = p[i]
		p[i+3] = p[i+1]
	}
	return n, nil
}
