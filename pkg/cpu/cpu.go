package cpu

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"time"
)

// Memory layout.
const (
	MemorySize     = 4096
	ProgramStart   = 0x200
	MaxProgramSize = MemorySize - ProgramStart
)

// StackDepth is the number of return addresses the stack can hold.
const StackDepth = 16

// RegF is the index of the flag register.
const RegF = 0xF

var (
	ErrStackOverflow   = errors.New("stack overflow")
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrMemoryFault     = errors.New("memory access out of bounds")
	ErrProgramTooLarge = errors.New("program too large for memory")
	ErrFontOverlap     = errors.New("font overlaps program region")
)

// Random supplies the bytes used by CXNN.
type Random interface {
	Byte() byte
}

type pcgRandom struct {
	r *rand.Rand
}

func (p pcgRandom) Byte() byte {
	return byte(p.r.UintN(256))
}

// NewRandom returns a Random seeded with seed. The same seed always produces
// the same sequence.
func NewRandom(seed uint64) Random {
	return pcgRandom{r: rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))}
}

// Quirks select between dialect-specific behaviours.
type Quirks struct {
	// JumpWithVX makes BNNN add VX (X being the top nibble of NNN) instead
	// of V0, as on the HP48 super-chip.
	JumpWithVX bool

	// AnyCollision makes DXYN clear VF once and set it if any lit sprite
	// bit hit a lit pixel, instead of reporting only the last lit bit.
	AnyCollision bool
}

// Options configure a new CPU.
type Options struct {
	FontBase uint16
	Random   Random
	Trace    *log.Logger
	Quirks   Quirks
}

// DefaultOptions returns the options used by the commands unless flags
// override them. The random source is seeded from the clock.
func DefaultOptions() Options {
	return Options{
		FontBase: DefaultFontBase,
		Random:   NewRandom(uint64(time.Now().UnixNano())),
	}
}

type CPU struct {
	Memory [MemorySize]byte

	V  [16]byte
	I  uint16
	PC uint16

	Stack [StackDepth]uint16
	SP    uint8

	DT byte // delay timer
	ST byte // sound timer

	// Halted is set once the program counter leaves memory or a fault
	// occurs. Fault holds the fault, if any.
	Halted bool
	Fault  error

	display  Frame
	fontBase uint16
	random   Random
	trace    *log.Logger
	quirks   Quirks
}

// NewCPU creates a CPU with the font loaded and the program counter at
// ProgramStart.
func NewCPU(opts Options) (*CPU, error) {
	if !validFontBase(opts.FontBase) {
		return nil, fmt.Errorf("%w: base 0x%03X", ErrFontOverlap, opts.FontBase)
	}
	c := &CPU{
		PC:       ProgramStart,
		fontBase: opts.FontBase,
		random:   opts.Random,
		trace:    opts.Trace,
		quirks:   opts.Quirks,
	}
	if c.random == nil {
		c.random = NewRandom(uint64(time.Now().UnixNano()))
	}
	c.LoadFont()
	return c, nil
}

// LoadProgram copies rom into memory at ProgramStart.
func (c *CPU) LoadProgram(rom []byte) error {
	if len(rom) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes > %d bytes", ErrProgramTooLarge, len(rom), MaxProgramSize)
	}
	copy(c.Memory[ProgramStart:], rom)
	return nil
}

// SoundTimer returns the sound timer. The buzzer sounds while it is non-zero.
func (c *CPU) SoundTimer() byte {
	return c.ST
}

// DelayTimer returns the delay timer.
func (c *CPU) DelayTimer() byte {
	return c.DT
}

// TickTimers decrements both timers toward zero. Call once per 60Hz frame.
func (c *CPU) TickTimers() {
	if c.DT > 0 {
		c.DT--
	}
	if c.ST > 0 {
		c.ST--
	}
}

// Step fetches, decodes and executes one instruction with key as the keypad
// state. It returns false when execution cannot continue: either the program
// counter has run past the end of memory (nil error) or the program faulted.
func (c *CPU) Step(key Key) (bool, error) {
	if c.Halted {
		return false, c.Fault
	}
	if int(c.PC) > MemorySize-2 {
		c.Halted = true
		return false, nil
	}

	pc := c.PC
	word := uint16(c.Memory[pc])<<8 | uint16(c.Memory[pc+1])
	in := Decode(word)
	if c.trace != nil {
		c.trace.Printf("%03X: %04X %s", pc, word, in.Mnemonic(c.quirks))
	}

	if err := c.execute(in, key); err != nil {
		c.Halted = true
		c.Fault = fmt.Errorf("%03X %s: %w", pc, in.Mnemonic(c.quirks), err)
		return false, c.Fault
	}

	if int(c.PC) > MemorySize-2 {
		c.Halted = true
		return false, nil
	}
	return true, nil
}

func (c *CPU) execute(in Instruction, key Key) error {
	x, y := in.X, in.Y

	switch in.Op {
	case OpCLS:
		c.display.clear()

	case OpRET:
		if c.SP == 0 {
			return ErrStackUnderflow
		}
		c.SP--
		c.PC = c.Stack[c.SP]
		return nil

	case OpJP:
		c.PC = in.NNN
		return nil

	case OpCALL:
		if int(c.SP) >= StackDepth {
			return ErrStackOverflow
		}
		c.Stack[c.SP] = c.PC + 2
		c.SP++
		c.PC = in.NNN
		return nil

	case OpSEImm:
		c.skipIf(c.V[x] == in.NN)
		return nil

	case OpSNEImm:
		c.skipIf(c.V[x] != in.NN)
		return nil

	case OpSEReg:
		c.skipIf(c.V[x] == c.V[y])
		return nil

	case OpSNEReg:
		c.skipIf(c.V[x] != c.V[y])
		return nil

	case OpLDImm:
		c.V[x] = in.NN

	case OpADDImm:
		c.V[x] += in.NN

	case OpLDReg:
		c.V[x] = c.V[y]

	case OpOR:
		c.V[x] |= c.V[y]

	case OpAND:
		c.V[x] &= c.V[y]

	case OpXOR:
		c.V[x] ^= c.V[y]

	case OpADDReg:
		sum := uint16(c.V[x]) + uint16(c.V[y])
		c.V[x] = byte(sum)
		c.V[RegF] = flag(sum > 0xFF)

	case OpSUB:
		vx, vy := c.V[x], c.V[y]
		c.V[x] = vx - vy
		c.V[RegF] = flag(vx >= vy)

	case OpSHR:
		vx := c.V[x]
		c.V[x] = vx >> 1
		c.V[RegF] = vx & 0x01

	case OpSUBN:
		vx, vy := c.V[x], c.V[y]
		c.V[x] = vy - vx
		c.V[RegF] = flag(vy >= vx)

	case OpSHL:
		vx := c.V[x]
		c.V[x] = vx << 1
		c.V[RegF] = vx >> 7

	case OpLDI:
		c.I = in.NNN

	case OpJPOffset:
		reg := uint8(0)
		if c.quirks.JumpWithVX {
			reg = x
		}
		c.PC = in.NNN + uint16(c.V[reg])
		return nil

	case OpRND:
		c.V[x] = c.random.Byte() & in.NN

	case OpDRW:
		if err := c.checkIndexRange(int(in.N)); err != nil {
			return err
		}
		rows := c.Memory[c.I : int(c.I)+int(in.N)]
		drawn, last, hit := c.display.blit(c.V[x], c.V[y], rows)
		switch {
		case c.quirks.AnyCollision:
			c.V[RegF] = flag(hit)
		case drawn:
			c.V[RegF] = flag(last)
		}

	case OpSKP:
		c.skipIf(key.Matches(c.V[x]))
		return nil

	case OpSKNP:
		c.skipIf(!key.Matches(c.V[x]))
		return nil

	case OpLDVxDT:
		c.V[x] = c.DT

	case OpLDVxK:
		if !key.Pressed() {
			return nil
		}
		c.V[x] = byte(key)

	case OpLDDTVx:
		c.DT = c.V[x]

	case OpLDSTVx:
		c.ST = c.V[x]

	case OpADDI:
		c.I += uint16(c.V[x])

	case OpLDF:
		c.I = c.FontAddress(c.V[x])

	case OpLDB:
		if err := c.checkIndexRange(3); err != nil {
			return err
		}
		v := c.V[x]
		c.Memory[c.I] = v / 100
		c.Memory[c.I+1] = (v / 10) % 10
		c.Memory[c.I+2] = v % 10

	case OpLDStore:
		n := int(x) + 1
		if err := c.checkIndexRange(n); err != nil {
			return err
		}
		copy(c.Memory[c.I:int(c.I)+n], c.V[:n])

	case OpLDLoad:
		n := int(x) + 1
		if err := c.checkIndexRange(n); err != nil {
			return err
		}
		copy(c.V[:n], c.Memory[c.I:int(c.I)+n])

	default:
		// Unknown words execute as NOP.
	}

	c.PC += 2
	return nil
}

func (c *CPU) skipIf(cond bool) {
	if cond {
		c.PC += 4
	} else {
		c.PC += 2
	}
}

// checkIndexRange faults if the n bytes starting at I are not all in memory.
func (c *CPU) checkIndexRange(n int) error {
	if int(c.I)+n > MemorySize {
		return fmt.Errorf("%w: I=0x%04X length %d", ErrMemoryFault, c.I, n)
	}
	return nil
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// DumpRegisters writes the register file in a compact human readable form.
func (c *CPU) DumpRegisters(w io.Writer) {
	for i, v := range c.V {
		fmt.Fprintf(w, "V%X=%02X ", i, v)
		if i == 7 {
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "PC=%03X I=%03X SP=%X DT=%02X ST=%02X\n", c.PC, c.I, c.SP, c.DT, c.ST)
}
