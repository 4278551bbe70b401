package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jroimartin/gocui"

	"gochip8/pkg/config"
	"gochip8/pkg/cpu"
	"gochip8/pkg/machine"
	"gochip8/pkg/peripherals"
	"gochip8/pkg/rom"
)

const defaultLogFile = "chip8.log"

var pixels = strings.NewReplacer("#", "█", ".", " ")

// renderFrame draws the framebuffer with block characters.
func renderFrame(w io.Writer, f cpu.Frame) {
	fmt.Fprint(w, pixels.Replace(f.String()))
}

// screenUpdate is one frame's worth of view content, copied out of the CPU on
// the machine's goroutine so the UI goroutine never reads live state.
type screenUpdate struct {
	frame cpu.Frame
	regs  string
}

func capture(c *cpu.CPU, f cpu.Frame) screenUpdate {
	var b bytes.Buffer
	c.DumpRegisters(&b)
	return screenUpdate{frame: f, regs: b.String()}
}

type console struct {
	m     *machine.Machine
	latch *machine.KeyLatch
	log   *log.Logger
}

func main() {
	fs := flag.NewFlagSet("chip8-console", flag.ExitOnError)
	cfg := config.Register(fs)
	fs.Parse(os.Args[1:])
	path := config.ROMPath(fs)

	// the terminal belongs to gocui, so logging always goes to a file
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile
	}
	logger, err := cfg.Logger()
	if err != nil {
		log.Fatalf("Failed to open log: %v", err)
	}

	r, err := rom.Load(path)
	if err != nil {
		log.Fatalf("Failed to load rom: %v", err)
	}
	opts, err := cfg.Options(logger)
	if err != nil {
		log.Fatal(err)
	}
	vm, err := cpu.NewCPU(opts)
	if err != nil {
		log.Fatal(err)
	}
	if err := vm.LoadProgram(r.Bytes); err != nil {
		log.Fatal(err)
	}

	var buzzer machine.Buzzer
	var recorder *peripherals.WavRecorder
	if cfg.WavFile != "" {
		recorder = peripherals.NewWavRecorder(cfg.WavFile, peripherals.DefaultSampleRate)
		buzzer = recorder
	}

	con := &console{
		m:     machine.New(vm, cfg.Hz, buzzer),
		latch: machine.NewKeyLatch(machine.DefaultHold),
		log:   logger,
	}

	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		log.Panicln("Couldn't create gui!")
	}
	defer g.Close()

	g.SetManagerFunc(layout)
	if err := con.bindKeys(g); err != nil {
		log.Panicln(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		con.run(ctx, g)
	}()

	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		log.Panicln(err)
	}
	cancel()
	<-done

	if recorder != nil {
		if err := recorder.Close(); err != nil {
			logger.Printf("%v", err)
		}
	}
}

func (c *console) bindKeys(g *gocui.Gui) error {
	for _, r := range machine.Layout + strings.ToLower(machine.Layout) {
		key, _ := machine.KeyForRune(r)
		if err := g.SetKeybinding("", r, gocui.ModNone, func(*gocui.Gui, *gocui.View) error {
			c.latch.Press(key)
			return nil
		}); err != nil {
			return err
		}
	}

	for _, r := range []rune{'p', 'P'} {
		if err := g.SetKeybinding("", r, gocui.ModNone, c.togglePause); err != nil {
			return err
		}
	}
	for _, k := range []gocui.Key{gocui.KeyCtrlC, gocui.KeyEsc} {
		if err := g.SetKeybinding("", k, gocui.ModNone, quit); err != nil {
			return err
		}
	}
	return nil
}

func (c *console) togglePause(g *gocui.Gui, _ *gocui.View) error {
	state := "running"
	if c.m.TogglePause() {
		state = "paused"
	}
	return setStatus(g, state)
}

// run drives the machine and redraws after every frame. gocui views may only
// be touched from the Update callback.
func (c *console) run(ctx context.Context, g *gocui.Gui) {
	present := func(f cpu.Frame) {
		u := capture(c.m.CPU, f)
		g.Update(func(g *gocui.Gui) error {
			v, err := g.View("screen")
			if err != nil {
				return err
			}
			v.Clear()
			renderFrame(v, u.frame)

			regs, err := g.View("registers")
			if err != nil {
				return err
			}
			regs.Clear()
			fmt.Fprint(regs, u.regs)
			return nil
		})
	}

	err := c.m.Run(ctx, c.latch.Next, present)
	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		c.log.Printf("halted: %v", err)
		g.Update(func(g *gocui.Gui) error { return setStatus(g, "halted: "+err.Error()) })
	default:
		c.log.Printf("program ran past the end of memory after %d frames", c.m.Frames())
		g.Update(func(g *gocui.Gui) error { return setStatus(g, "program ended") })
	}
}

func setStatus(g *gocui.Gui, msg string) error {
	v, err := g.View("status")
	if err != nil {
		return err
	}
	v.Clear()
	fmt.Fprintf(v, "%s  (1-4 Q-R A-F Z-V keypad, P pause, Esc quit)", msg)
	return nil
}

// gocui layout
func layout(g *gocui.Gui) error {
	// framebuffer plus borders
	w, h := cpu.Width+1, cpu.Height+1

	if v, err := g.SetView("screen", 0, 0, w, h); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "CHIP-8"
	}

	if v, err := g.SetView("registers", 0, h+1, w, h+5); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Registers"
	}

	if v, err := g.SetView("status", 0, h+6, w, h+8); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Status"
		fmt.Fprint(v, "running  (1-4 Q-R A-F Z-V keypad, P pause, Esc quit)")
	}
	return nil
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}
