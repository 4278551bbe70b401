package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gochip8/pkg/cpu"
	"gochip8/pkg/machine"
)

func TestRenderFrame(t *testing.T) {
	var f cpu.Frame
	f[0][0] = true
	f[1][63] = true

	var sb strings.Builder
	renderFrame(&sb, f)
	lines := strings.Split(strings.TrimSuffix(sb.String(), "\n"), "\n")
	if len(lines) != cpu.Height {
		t.Fatalf("expected %d lines, got %d", cpu.Height, len(lines))
	}
	if !strings.HasPrefix(lines[0], "█ ") {
		t.Errorf("line 0: expected lit pixel first, got %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], " █") {
		t.Errorf("line 1: expected lit pixel last, got %q", lines[1])
	}
	if strings.ContainsAny(sb.String(), "#.") {
		t.Error("expected text pixels to be replaced")
	}
}

func TestCaptureIsolatesUIFromMachine(t *testing.T) {
	c, err := cpu.NewCPU(cpu.Options{FontBase: cpu.DefaultFontBase})
	if err != nil {
		t.Fatal(err)
	}
	// ADD V0, 1; JP $200
	if err := c.LoadProgram([]byte{0x70, 0x01, 0x12, 0x00}); err != nil {
		t.Fatal(err)
	}
	m := machine.New(c, 6000, nil)

	// consumer plays the part of the UI loop: it only sees what capture copied
	updates := make(chan screenUpdate, 4)
	done := make(chan int)
	go func() {
		n := 0
		for u := range updates {
			if !strings.Contains(u.regs, "V0=") || !strings.Contains(u.regs, "PC=") {
				t.Errorf("unexpected register text %q", u.regs)
			}
			n++
		}
		done <- n
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err = m.Run(ctx, nil, func(f cpu.Frame) {
		u := capture(m.CPU, f)
		select {
		case updates <- u:
		default:
		}
	})
	close(updates)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run: expected deadline, got %v", err)
	}
	if n := <-done; n == 0 {
		t.Error("expected at least one update")
	}
}
