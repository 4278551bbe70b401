package peripherals

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const frameRate = 60

// WavRecorder records the buzzer to a mono 16-bit WAV file. Each SetTone
// call appends one 60Hz frame of samples. The audio is buffered in memory
// and written to disk by Close.
type WavRecorder struct {
	filename   string
	sampleRate int
	tone       *SquareWave
	samples    []int
	scratch    []byte
}

func NewWavRecorder(filename string, sampleRate int) *WavRecorder {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &WavRecorder{
		filename:   filename,
		sampleRate: sampleRate,
		tone:       NewSquareWave(sampleRate, DefaultFrequency, DefaultVolume),
		scratch:    make([]byte, sampleRate/frameRate*4),
	}
}

// SetTone appends one frame with the tone on or off.
func (w *WavRecorder) SetTone(on bool) {
	w.tone.SetTone(on)
	n, _ := w.tone.Read(w.scratch)
	for i := 0; i < n; i += 4 {
		w.samples = append(w.samples, int(int16(uint16(w.scratch[i])|uint16(w.scratch[i+1])<<8)))
	}
}

// Samples returns the number of samples recorded so far.
func (w *WavRecorder) Samples() int {
	return len(w.samples)
}

// Close writes the recording to disk.
func (w *WavRecorder) Close() (rerr error) {
	f, err := os.Create(w.filename)
	if err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("wav: %w", err)
		}
	}()

	enc := wav.NewEncoder(f, w.sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: w.sampleRate},
		Data:           w.samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return nil
}
