package cpu

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

func TestCPU_HibernateCoreState(t *testing.T) {
	c1, err := NewCPU(Options{FontBase: 0x000, Random: fixedRandom(1), Quirks: Quirks{JumpWithVX: true}})
	if err != nil {
		t.Fatal(err)
	}
	for i := range c1.V {
		c1.V[i] = byte(i * 17)
	}
	c1.I = 0x345
	c1.PC = 0x2A0
	c1.Stack[0] = 0x202
	c1.Stack[1] = 0x404
	c1.SP = 2
	c1.DT = 30
	c1.ST = 7

	data, err := c1.HibernateToBytes()
	if err != nil {
		t.Fatalf("HibernateToBytes: %v", err)
	}

	c2 := newTestCPU(t)
	if err := c2.RestoreFromBytes(data); err != nil {
		t.Fatalf("RestoreFromBytes: %v", err)
	}

	if c2.V != c1.V {
		t.Errorf("V mismatch: got %v, want %v", c2.V, c1.V)
	}
	if c2.I != c1.I || c2.PC != c1.PC || c2.SP != c1.SP {
		t.Errorf("I/PC/SP: got %03X/%03X/%d, want %03X/%03X/%d", c2.I, c2.PC, c2.SP, c1.I, c1.PC, c1.SP)
	}
	if c2.Stack != c1.Stack {
		t.Errorf("Stack mismatch: got %v, want %v", c2.Stack, c1.Stack)
	}
	if c2.DT != 30 || c2.ST != 7 {
		t.Errorf("timers: got DT=%d ST=%d", c2.DT, c2.ST)
	}
	if c2.FontAddress(1) != 5 {
		t.Errorf("font base: expected digit 1 at 0x005, got 0x%03X", c2.FontAddress(1))
	}
	if !c2.quirks.JumpWithVX {
		t.Error("quirks not restored")
	}
}

func TestCPU_HibernateMemoryAndDisplay(t *testing.T) {
	c1 := newTestCPU(t)
	c1.Memory[0x200] = 0xA2
	c1.Memory[0xFFF] = 0x5A
	c1.display[0][0] = true
	c1.display[17][33] = true
	c1.display[31][63] = true

	data, err := c1.HibernateToBytes()
	if err != nil {
		t.Fatal(err)
	}
	c2 := newTestCPU(t)
	c2.display[5][5] = true
	if err := c2.RestoreFromBytes(data); err != nil {
		t.Fatal(err)
	}

	if c2.Memory != c1.Memory {
		t.Error("memory mismatch after restore")
	}
	if c2.Framebuffer() != c1.Framebuffer() {
		t.Error("display mismatch after restore")
	}
}

func TestCPU_HibernateFault(t *testing.T) {
	c1 := newTestCPU(t)
	loadProgram(c1, 0x00EE)
	if ok, _ := c1.Step(KeyNone); ok {
		t.Fatal("expected fault")
	}

	data, err := c1.HibernateToBytes()
	if err != nil {
		t.Fatal(err)
	}
	c2 := newTestCPU(t)
	if err := c2.RestoreFromBytes(data); err != nil {
		t.Fatal(err)
	}
	if !c2.Halted || c2.Fault == nil || c2.Fault.Error() != c1.Fault.Error() {
		t.Errorf("expected halted with %q, got halted=%v fault=%v", c1.Fault, c2.Halted, c2.Fault)
	}
	if !errors.Is(c2.Fault, ErrStackUnderflow) {
		t.Errorf("restored fault must still match ErrStackUnderflow, got %v", c2.Fault)
	}
	ok, err := c2.Step(KeyNone)
	if ok || !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("restored halted CPU must not run, ok=%v err=%v", ok, err)
	}

	// a second round trip keeps the kind
	again, err := c2.HibernateToBytes()
	if err != nil {
		t.Fatal(err)
	}
	c3 := newTestCPU(t)
	if err := c3.RestoreFromBytes(again); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(c3.Fault, ErrStackUnderflow) || c3.Fault.Error() != c1.Fault.Error() {
		t.Errorf("second restore: expected %q matching ErrStackUnderflow, got %v", c1.Fault, c3.Fault)
	}
}

func TestCPU_RestoreRejectsBadArchives(t *testing.T) {
	c := newTestCPU(t)
	if err := c.RestoreFromBytes([]byte("not a zip")); err == nil {
		t.Error("expected error for garbage input")
	}

	// missing memory.bin
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	if err := writeZipEntry(zw, "cpu_state.json", []byte(`{"pc":512,"font_base":80}`)); err != nil {
		t.Fatal(err)
	}
	zw.Close()
	if err := c.RestoreFromBytes(buf.Bytes()); err == nil {
		t.Error("expected error for missing memory.bin")
	}

	buf.Reset()
	zw = zip.NewWriter(buf)
	writeZipEntry(zw, "cpu_state.json", []byte(`{"pc":512,"font_base":496}`))
	writeZipEntry(zw, "memory.bin", make([]byte, MemorySize))
	zw.Close()
	if err := c.RestoreFromBytes(buf.Bytes()); !errors.Is(err, ErrFontOverlap) {
		t.Errorf("expected ErrFontOverlap, got %v", err)
	}
	if c.PC != ProgramStart {
		t.Errorf("failed restore must leave the CPU untouched, PC=0x%03X", c.PC)
	}

	buf.Reset()
	zw = zip.NewWriter(buf)
	writeZipEntry(zw, "cpu_state.json", []byte(`{"pc":768,"font_base":80}`))
	writeZipEntry(zw, "memory.bin", make([]byte, MemorySize))
	zw.Close()
	if err := c.RestoreFromBytes(buf.Bytes()); err == nil {
		t.Error("expected error for missing display.bin")
	}

	buf.Reset()
	zw = zip.NewWriter(buf)
	writeZipEntry(zw, "cpu_state.json", []byte(`{"pc":768,"font_base":80}`))
	writeZipEntry(zw, "memory.bin", make([]byte, MemorySize))
	writeZipEntry(zw, "display.bin", make([]byte, 10))
	zw.Close()
	if err := c.RestoreFromBytes(buf.Bytes()); err == nil {
		t.Error("expected error for short display.bin")
	}
	if c.PC != ProgramStart {
		t.Errorf("rejected display must leave the CPU untouched, PC=0x%03X", c.PC)
	}
}

func TestCPU_HibernateAndResume(t *testing.T) {
	// count V0 up forever; snapshot midway and check both copies continue alike
	c1 := newTestCPU(t)
	loadProgram(c1, 0x7001, 0x1200)
	for i := 0; i < 20; i++ {
		step(t, c1, KeyNone)
	}

	data, err := c1.HibernateToBytes()
	if err != nil {
		t.Fatalf("HibernateToBytes: %v", err)
	}
	c2 := newTestCPU(t)
	if err := c2.RestoreFromBytes(data); err != nil {
		t.Fatalf("RestoreFromBytes: %v", err)
	}

	for i := 0; i < 20; i++ {
		step(t, c1, KeyNone)
		step(t, c2, KeyNone)
	}
	if c1.V[0] != 20 || c2.V[0] != c1.V[0] || c2.PC != c1.PC {
		t.Errorf("resume diverged: c1 V0=%d PC=%03X, c2 V0=%d PC=%03X", c1.V[0], c1.PC, c2.V[0], c2.PC)
	}
}

func TestPackFrame(t *testing.T) {
	var f Frame
	f[0][0] = true
	f[0][9] = true
	packed := packFrame(&f)
	if len(packed) != 256 {
		t.Fatalf("expected 256 bytes, got %d", len(packed))
	}
	if packed[0] != 0x80 || packed[1] != 0x40 {
		t.Errorf("expected 80 40, got %02X %02X", packed[0], packed[1])
	}
	var g Frame
	unpackFrame(packed, &g)
	if g != f {
		t.Error("unpack did not restore the frame")
	}
}
