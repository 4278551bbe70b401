// Package config holds the command line settings shared by the chip8
// front ends.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"gochip8/pkg/cpu"
	"gochip8/pkg/logger"
	"gochip8/pkg/machine"
)

type Config struct {
	Hz             int
	FontBase       string
	Seed           uint64
	QuirkJump      bool
	QuirkCollision bool
	Trace          bool
	LogFile        string
	Invert         bool
	Scale          int
	WavFile        string
}

// Register defines the shared flags on fs.
func Register(fs *flag.FlagSet) *Config {
	c := &Config{}
	fs.IntVar(&c.Hz, "hz", machine.DefaultHz, "instructions per second")
	fs.StringVar(&c.FontBase, "font-base", fmt.Sprintf("0x%03X", cpu.DefaultFontBase), "font table address")
	fs.Uint64Var(&c.Seed, "seed", 0, "random seed for RND (0 seeds from the clock)")
	fs.BoolVar(&c.QuirkJump, "quirk-jump", false, "BNNN jumps to NNN+VX instead of NNN+V0")
	fs.BoolVar(&c.QuirkCollision, "quirk-collision", false, "DXYN sets VF if any pixel collided")
	fs.BoolVar(&c.Trace, "trace", false, "log every executed instruction")
	fs.StringVar(&c.LogFile, "log", "", "log file (default stderr)")
	fs.BoolVar(&c.Invert, "invert", false, "swap the on and off pixel colours")
	fs.IntVar(&c.Scale, "scale", 10, "pixel scale for windows and screenshots")
	fs.StringVar(&c.WavFile, "wav", "", "record the buzzer to this WAV file")
	return c
}

// Logger opens the configured log destination.
func (c *Config) Logger() (*log.Logger, error) {
	return logger.New(c.LogFile)
}

// Options builds CPU options. l receives the instruction trace when tracing
// is enabled.
func (c *Config) Options(l *log.Logger) (cpu.Options, error) {
	opts := cpu.DefaultOptions()

	if c.Hz < 1 {
		return opts, fmt.Errorf("invalid -hz %d: must be positive", c.Hz)
	}

	base, err := strconv.ParseUint(c.FontBase, 0, 16)
	if err != nil {
		return opts, fmt.Errorf("invalid -font-base %q: %w", c.FontBase, err)
	}
	opts.FontBase = uint16(base)

	if c.Seed != 0 {
		opts.Random = cpu.NewRandom(c.Seed)
	}
	if c.Trace {
		opts.Trace = l
	}
	opts.Quirks = cpu.Quirks{
		JumpWithVX:   c.QuirkJump,
		AnyCollision: c.QuirkCollision,
	}
	return opts, nil
}

// Palette returns the display palette.
func (c *Config) Palette() cpu.Palette {
	if c.Invert {
		return cpu.DefaultPalette.Inverted()
	}
	return cpu.DefaultPalette
}

// ROMPath returns the single positional argument or exits with usage.
func ROMPath(fs *flag.FlagSet) string {
	if fs.NArg() != 1 {
		fmt.Fprintf(fs.Output(), "usage: %s [flags] <rom>\n", fs.Name())
		fs.PrintDefaults()
		os.Exit(2)
	}
	return fs.Arg(0)
}
