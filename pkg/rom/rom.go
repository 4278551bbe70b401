// Package rom loads CHIP-8 programs from disk, either as raw binary images
// or as text listings understood by the assembler.
package rom

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gochip8/pkg/asm"
	"gochip8/pkg/cpu"
)

// ErrEmpty is returned for files that contain no program bytes.
var ErrEmpty = errors.New("rom is empty")

// textExtensions are assembled instead of loaded verbatim.
var textExtensions = map[string]bool{
	".hex": true,
	".txt": true,
	".c8s": true,
	".asm": true,
}

// ROM is a loaded program.
type ROM struct {
	Path  string // absolute path of the source file
	Dir   string // directory containing the file
	Bytes []byte

	// SourceMap maps addresses to listing lines. It is nil for binaries.
	SourceMap map[uint16]int
}

// IsText reports whether path names a text listing.
func IsText(path string) bool {
	return textExtensions[strings.ToLower(filepath.Ext(path))]
}

// Load reads path and returns the program it holds.
func Load(path string) (*ROM, error) {
	fullPath, dir, err := pathInfo(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("read rom: %w", err)
	}

	r := &ROM{Path: fullPath, Dir: dir}
	if IsText(fullPath) {
		r.Bytes, r.SourceMap, err = asm.Assemble(string(data))
		if err != nil {
			return nil, fmt.Errorf("assemble %s: %w", filepath.Base(fullPath), err)
		}
	} else {
		r.Bytes = data
	}

	if err := validate(r.Bytes); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(fullPath), err)
	}
	return r, nil
}

// Parse decodes an in-memory program: text listings when text is set,
// raw bytes otherwise.
func Parse(data []byte, text bool) ([]byte, error) {
	program := data
	if text {
		var err error
		program, _, err = asm.Assemble(string(data))
		if err != nil {
			return nil, err
		}
	}
	if err := validate(program); err != nil {
		return nil, err
	}
	return program, nil
}

func validate(program []byte) error {
	if len(program) == 0 {
		return ErrEmpty
	}
	if len(program) > cpu.MaxProgramSize {
		return fmt.Errorf("%w: %d bytes > %d bytes", cpu.ErrProgramTooLarge, len(program), cpu.MaxProgramSize)
	}
	return nil
}

// pathInfo resolves relPath to an absolute path and its parent directory.
func pathInfo(relPath string) (fullPath string, parentDir string, err error) {
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}
	return fullPath, filepath.Dir(fullPath), nil
}
