package logger

import (
	"log"
	"os"
)

const prefix = "chip8 "

// New returns a logger writing to stderr when path is empty, or appending to
// the file at path otherwise.
func New(path string) (*log.Logger, error) {
	if len(path) == 0 {
		return log.New(os.Stderr, prefix, log.Ldate|log.Ltime|log.Lshortfile), nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
	if err != nil {
		return nil, err
	}
	l := log.New(f, prefix, log.Ldate|log.Ltime|log.Lshortfile)
	l.Printf("Initializing %s", path)
	return l, nil
}
