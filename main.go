//go:build !js

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gochip8/pkg/asm"
	"gochip8/pkg/config"
	"gochip8/pkg/cpu"
	"gochip8/pkg/machine"
	"gochip8/pkg/peripherals"
	"gochip8/pkg/rom"
)

func main() {
	fs := flag.NewFlagSet("chip8", flag.ExitOnError)
	cfg := config.Register(fs)
	inPath := fs.String("in", "", "input listing to assemble")
	outPath := fs.String("out", "", "output binary file path (default: input with .ch8 extension)")
	runProgram := fs.Bool("run", false, "run the assembled binary headless")
	runBinPath := fs.String("run-bin", "", "run an existing rom headless")
	frames := fs.Int("frames", 600, "frames to run before stopping")
	screenshot := fs.String("screenshot", "", "save the final frame as a PNG")
	fs.Parse(os.Args[1:])

	if *runProgram && *runBinPath != "" {
		fmt.Fprintln(os.Stderr, "use either -run or -run-bin, not both")
		os.Exit(2)
	}

	assembledOutput := ""
	if *inPath != "" {
		source, err := os.ReadFile(*inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read input file %q: %v\n", *inPath, err)
			os.Exit(1)
		}

		code, _, err := asm.Assemble(string(source))
		if err != nil {
			fmt.Fprintf(os.Stderr, "assembly failed: %v\n", err)
			os.Exit(1)
		}

		output := *outPath
		if output == "" {
			output = defaultOutputPath(*inPath)
		}

		if err := writeBinary(output, code); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write binary file %q: %v\n", output, err)
			os.Exit(1)
		}

		fmt.Printf("assembled %d bytes -> %s\n", len(code), output)
		assembledOutput = output
	}

	if *inPath == "" && *runBinPath == "" && !*runProgram {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in to assemble, -run to run assembled output, or -run-bin <file> to run an existing rom")
		fs.Usage()
		os.Exit(2)
	}

	runTarget := ""
	switch {
	case *runBinPath != "":
		runTarget = *runBinPath
	case *runProgram:
		if assembledOutput == "" {
			fmt.Fprintln(os.Stderr, "-run requires -in, or use -run-bin <file>")
			os.Exit(2)
		}
		runTarget = assembledOutput
	default:
		return
	}

	job := runJob{
		path:       runTarget,
		frames:     *frames,
		screenshot: *screenshot,
		cfg:        cfg,
	}
	if err := job.run(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "run failed for %q: %v\n", runTarget, err)
		os.Exit(1)
	}
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".ch8"
	}
	return strings.TrimSuffix(inPath, ext) + ".ch8"
}

func writeBinary(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

type runJob struct {
	path       string
	frames     int
	screenshot string
	cfg        *config.Config
}

// run executes the rom for the configured number of frames with no keys
// pressed, then prints the framebuffer and registers to w. A fault is
// reported after the dump.
func (j runJob) run(w io.Writer) (err error) {
	r, err := rom.Load(j.path)
	if err != nil {
		return err
	}

	logger, err := j.cfg.Logger()
	if err != nil {
		return err
	}
	opts, err := j.cfg.Options(logger)
	if err != nil {
		return err
	}
	vm, err := cpu.NewCPU(opts)
	if err != nil {
		return err
	}
	if err := vm.LoadProgram(r.Bytes); err != nil {
		return err
	}

	var buzzer machine.Buzzer
	if j.cfg.WavFile != "" {
		recorder := peripherals.NewWavRecorder(j.cfg.WavFile, peripherals.DefaultSampleRate)
		defer func() {
			err = errors.Join(err, recorder.Close())
		}()
		buzzer = recorder
	}

	m := machine.New(vm, j.cfg.Hz, buzzer)
	n, runErr := m.RunFrames(j.frames)

	frame := vm.Framebuffer()
	fmt.Fprint(w, frame.String())
	vm.DumpRegisters(w)
	fmt.Fprintf(w, "run complete (%s): %d frames, %d instructions per frame\n", r.Path, n, m.PerFrame())

	if j.screenshot != "" {
		if err := vm.SaveScreenshot(j.screenshot, j.cfg.Palette(), max(j.cfg.Scale, 1)); err != nil {
			return err
		}
	}
	return runErr
}
