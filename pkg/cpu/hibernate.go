package cpu

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gochip8/pkg/grid"
)

// humanReadableState is the JSON-serializable snapshot of CPU control state.
type humanReadableState struct {
	V         [16]byte           `json:"v"`
	I         uint16             `json:"i"`
	PC        uint16             `json:"pc"`
	Stack     [StackDepth]uint16 `json:"stack"`
	SP        uint8              `json:"sp"`
	DT        byte               `json:"dt"`
	ST        byte               `json:"st"`
	Halted    bool               `json:"halted"`
	Fault     string             `json:"fault,omitempty"`
	FaultKind string             `json:"fault_kind,omitempty"`
	FontBase  uint16             `json:"font_base"`
	Quirks    Quirks             `json:"quirks"`
}

// faultKinds names the sentinels an execution fault can wrap.
var faultKinds = map[string]error{
	"stack_overflow":  ErrStackOverflow,
	"stack_underflow": ErrStackUnderflow,
	"memory_fault":    ErrMemoryFault,
}

func faultKind(err error) string {
	for name, sentinel := range faultKinds {
		if errors.Is(err, sentinel) {
			return name
		}
	}
	return ""
}

// restoredFault carries a saved fault message and keeps it matchable
// against its sentinel with errors.Is.
type restoredFault struct {
	msg  string
	kind error
}

func (e *restoredFault) Error() string { return e.msg }
func (e *restoredFault) Unwrap() error { return e.kind }

// HibernateToBytes serialises the complete machine state into an in-memory
// ZIP archive and returns the raw bytes. The random source and the trace
// logger are not part of the snapshot.
func (c *CPU) HibernateToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	state := humanReadableState{
		V:        c.V,
		I:        c.I,
		PC:       c.PC,
		Stack:    c.Stack,
		SP:       c.SP,
		DT:       c.DT,
		ST:       c.ST,
		Halted:   c.Halted,
		FontBase: c.fontBase,
		Quirks:   c.quirks,
	}
	if c.Fault != nil {
		state.Fault = c.Fault.Error()
		state.FaultKind = faultKind(c.Fault)
	}

	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal cpu_state: %w", err)
	}
	if err := writeZipEntry(zw, "cpu_state.json", jsonData); err != nil {
		return nil, err
	}

	if err := writeZipEntry(zw, "memory.bin", c.Memory[:]); err != nil {
		return nil, err
	}

	if err := writeZipEntry(zw, "display.bin", packFrame(&c.display)); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// RestoreFromBytes deserialises a ZIP archive produced by HibernateToBytes and
// applies the saved state to the CPU.
func (c *CPU) RestoreFromBytes(data []byte) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	jsonData, err := readZipEntry(fileMap, "cpu_state.json")
	if err != nil {
		return err
	}
	var state humanReadableState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return fmt.Errorf("unmarshal cpu_state: %w", err)
	}
	if !validFontBase(state.FontBase) {
		return fmt.Errorf("%w: base 0x%03X", ErrFontOverlap, state.FontBase)
	}
	if int(state.SP) > StackDepth {
		return fmt.Errorf("%w: saved SP=%d", ErrStackOverflow, state.SP)
	}

	memData, err := readZipEntry(fileMap, "memory.bin")
	if err != nil {
		return err
	}
	if len(memData) != MemorySize {
		return fmt.Errorf("memory.bin: expected %d bytes, got %d", MemorySize, len(memData))
	}

	var fault error
	if state.Fault != "" {
		kind, ok := faultKinds[state.FaultKind]
		if state.FaultKind != "" && !ok {
			return fmt.Errorf("cpu_state: unknown fault kind %q", state.FaultKind)
		}
		fault = &restoredFault{msg: state.Fault, kind: kind}
	}

	raw, err := readZipEntry(fileMap, "display.bin")
	if err != nil {
		return err
	}
	if len(raw) != Width*Height/8 {
		return fmt.Errorf("display.bin: expected %d bytes, got %d", Width*Height/8, len(raw))
	}
	var display Frame
	unpackFrame(raw, &display)

	c.V = state.V
	c.I = state.I
	c.PC = state.PC
	c.Stack = state.Stack
	c.SP = state.SP
	c.DT = state.DT
	c.ST = state.ST
	c.Halted = state.Halted
	c.Fault = fault
	c.fontBase = state.FontBase
	c.quirks = state.Quirks
	copy(c.Memory[:], memData)
	c.display = display

	return nil
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// packFrame stores the frame one bit per pixel, MSB first, row-major.
func packFrame(f *Frame) []byte {
	out := make([]byte, Width*Height/8)
	for y := range f {
		for x := range f[y] {
			if f[y][x] {
				i := grid.Index(x, y, Width)
				out[i/8] |= 0x80 >> (i % 8)
			}
		}
	}
	return out
}

func unpackFrame(src []byte, f *Frame) {
	for y := range f {
		for x := range f[y] {
			i := grid.Index(x, y, Width)
			f[y][x] = src[i/8]&(0x80>>(i%8)) != 0
		}
	}
}
