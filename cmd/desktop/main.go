package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"gochip8/pkg/config"
	"gochip8/pkg/cpu"
	"gochip8/pkg/machine"
	"gochip8/pkg/peripherals"
	"gochip8/pkg/rom"
	"gochip8/pkg/statsview"
)

// hostKeys lines up with machine.Layout.
var hostKeys = [16]ebiten.Key{
	ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4,
	ebiten.KeyQ, ebiten.KeyW, ebiten.KeyE, ebiten.KeyR,
	ebiten.KeyA, ebiten.KeyS, ebiten.KeyD, ebiten.KeyF,
	ebiten.KeyZ, ebiten.KeyX, ebiten.KeyC, ebiten.KeyV,
}

type Game struct {
	m       *machine.Machine
	rom     *rom.ROM
	palette cpu.Palette
	scale   int
	log     *log.Logger

	screen *ebiten.Image // 64×32, scaled up in Draw
	face   text.Face
	tone   *peripherals.SquareWave
	player *audio.Player

	// quick-save slot, kept for this session only
	snapshot []byte

	stopped bool
	fault   error
	status  string
}

// heldKey returns the first keypad key held down, in Layout order.
func heldKey(pressed func(ebiten.Key) bool) cpu.Key {
	for i, k := range hostKeys {
		if pressed(k) {
			return machine.Keypad[i]
		}
	}
	return cpu.KeyNone
}

// screenshotPath names a screenshot after the ROM and the frame it shows.
func screenshotPath(r *rom.ROM, frame uint64) string {
	base := strings.TrimSuffix(filepath.Base(r.Path), filepath.Ext(r.Path))
	return filepath.Join(r.Dir, fmt.Sprintf("%s-%06d.png", base, frame))
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		if g.m.TogglePause() {
			g.status = "PAUSED"
		} else {
			g.status = ""
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		path := screenshotPath(g.rom, g.m.Frames())
		if err := g.m.CPU.SaveScreenshot(path, g.palette, g.scale); err != nil {
			g.log.Printf("screenshot: %v", err)
		} else {
			g.log.Printf("screenshot saved to %s", path)
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		snap, err := g.m.CPU.HibernateToBytes()
		if err != nil {
			g.log.Printf("snapshot: %v", err)
		} else {
			g.snapshot = snap
			g.log.Printf("snapshot taken at frame %d", g.m.Frames())
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) && g.snapshot != nil {
		if err := g.m.CPU.RestoreFromBytes(g.snapshot); err != nil {
			g.log.Printf("restore snapshot: %v", err)
		} else {
			g.stopped = g.m.CPU.Halted
			g.fault = g.m.CPU.Fault
			g.status = ""
			if g.fault != nil {
				g.status = "HALTED: " + g.fault.Error()
			}
		}
	}

	if !g.stopped {
		ok, err := g.m.RunFrame(heldKey(ebiten.IsKeyPressed))
		if !ok {
			g.stopped = true
			if err == nil {
				g.log.Printf("program ran past the end of memory after %d frames", g.m.Frames())
				return ebiten.Termination
			}
			g.fault = err
			g.status = "HALTED: " + err.Error()
			g.log.Printf("halted: %v", err)
		}
	}

	if g.player != nil {
		switch {
		case g.tone.On() && !g.player.IsPlaying():
			g.player.Play()
		case !g.tone.On() && g.player.IsPlaying():
			g.player.Pause()
		}
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.screen == nil {
		g.screen = ebiten.NewImage(cpu.Width, cpu.Height)
	}
	g.screen.WritePixels(g.m.CPU.GetFramebufferRGBA(g.palette))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.scale), float64(g.scale))
	screen.DrawImage(g.screen, op)

	if g.status != "" {
		top := &text.DrawOptions{}
		top.GeoM.Translate(4, 4)
		top.ColorScale.ScaleWithColor(color.RGBA{0xFF, 0x40, 0x40, 0xFF})
		text.Draw(screen, g.status, g.face, top)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cpu.Width * g.scale, cpu.Height * g.scale
}

func main() {
	fs := flag.NewFlagSet("chip8-desktop", flag.ExitOnError)
	cfg := config.Register(fs)
	stats := fs.Bool("statsview", false, "serve runtime statistics on "+statsview.DefaultAddress)
	mute := fs.Bool("mute", false, "disable the buzzer")
	fs.Parse(os.Args[1:])
	path := config.ROMPath(fs)

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

	stopStats := func() {}
	if *stats {
		stopStats = statsview.Launch(statsview.DefaultAddress, os.Stderr)
	}

	tone := peripherals.NewSquareWave(peripherals.DefaultSampleRate, peripherals.DefaultFrequency, peripherals.DefaultVolume)
	buzzers := machine.Buzzers{tone}

	var recorder *peripherals.WavRecorder
	if cfg.WavFile != "" {
		recorder = peripherals.NewWavRecorder(cfg.WavFile, peripherals.DefaultSampleRate)
		buzzers = append(buzzers, recorder)
	}

	game := &Game{
		m:       machine.New(vm, cfg.Hz, buzzers),
		rom:     r,
		palette: cfg.Palette(),
		scale:   max(cfg.Scale, 1),
		log:     logger,
		face:    text.NewGoXFace(basicfont.Face7x13),
		tone:    tone,
	}

	if !*mute {
		ctx := audio.NewContext(peripherals.DefaultSampleRate)
		player, err := ctx.NewPlayer(tone)
		if err != nil {
			logger.Printf("audio disabled: %v", err)
		} else {
			game.player = player
		}
	}

	ebiten.SetTPS(machine.FrameRate)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cpu.Width*game.scale, cpu.Height*game.scale)
	ebiten.SetWindowTitle("CHIP-8 - " + filepath.Base(r.Path))

	runErr := ebiten.RunGame(game)

	closeRecorder := func() {
		if recorder != nil {
			if err := recorder.Close(); err != nil {
				logger.Printf("%v", err)
			}
		}
	}
	code, err := finish(runErr, game.fault, closeRecorder, stopStats)
	if err != nil {
		log.Fatal(err)
	}
	os.Exit(code)
}

// finish runs cleanups in order, then reports the exit code and any error
// that should be fatal. Deferred calls do not run on os.Exit or log.Fatal.
func finish(runErr, fault error, cleanups ...func()) (int, error) {
	for _, f := range cleanups {
		f()
	}
	if runErr != nil && !errors.Is(runErr, ebiten.Termination) {
		return 1, runErr
	}
	if fault != nil {
		return 1, nil
	}
	return 0, nil
}
