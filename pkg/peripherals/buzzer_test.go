package peripherals

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestSquareWaveSilence(t *testing.T) {
	s := NewSquareWave(DefaultSampleRate, DefaultFrequency, DefaultVolume)
	buf := make([]byte, 4*256)
	n, err := s.Read(buf)
	if err != nil || n != len(buf) {
		t.Fatalf("Read: n=%d err=%v", n, err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("silent stream: byte %d = %02X", i, b)
		}
	}
}

func TestSquareWaveTone(t *testing.T) {
	s := NewSquareWave(8000, 1000, 0.5) // period of 8 samples
	s.SetTone(true)
	if !s.On() {
		t.Fatal("expected tone on")
	}

	buf := make([]byte, 4*16+3) // trailing partial frame is not filled
	n, _ := s.Read(buf)
	if n != 4*16 {
		t.Fatalf("expected %d bytes, got %d", 4*16, n)
	}

	volume := 0.5
	amp := int16(volume * 32767)
	for i := 0; i < 16; i++ {
		left := int16(binary.LittleEndian.Uint16(buf[i*4:]))
		right := int16(binary.LittleEndian.Uint16(buf[i*4+2:]))
		want := amp
		if i%8 >= 4 {
			want = -amp
		}
		if left != want || right != want {
			t.Errorf("sample %d: expected %d/%d, got %d/%d", i, want, want, left, right)
		}
	}
}

func TestWavRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buzz.wav")
	w := NewWavRecorder(path, 6000)
	w.SetTone(false)
	w.SetTone(true)
	w.SetTone(true)
	if w.Samples() != 300 {
		t.Fatalf("expected 300 samples, got %d", w.Samples())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.SampleRate != 6000 || dec.NumChans != 1 || dec.BitDepth != 16 {
		t.Errorf("unexpected format: %d Hz, %d channels, %d bits", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	if len(buf.Data) != 300 {
		t.Fatalf("expected 300 samples, got %d", len(buf.Data))
	}
	for i := 0; i < 100; i++ {
		if buf.Data[i] != 0 {
			t.Fatalf("silent frame: sample %d = %d", i, buf.Data[i])
		}
	}
	loud := 0
	for _, v := range buf.Data[100:] {
		if v != 0 {
			loud++
		}
	}
	if loud != 200 {
		t.Errorf("tone frames: expected 200 non-zero samples, got %d", loud)
	}
}
