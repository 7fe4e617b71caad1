// Package logging provides the structured logger every component in this
// runtime uses, grounded on the pack's industrial-gateway idiom of
// zerolog-based contextual logging rather than the teacher's bare
// fmt.Printf/log.Fatalf CLI output.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu     sync.Mutex
	output io.Writer = os.Stderr
	level            = zerolog.InfoLevel
)

// Configure overrides the destination writer and minimum level for every
// logger subsequently returned by New. Call once at process startup (e.g.
// from cmd/eipctl) before any component logger is constructed.
func Configure(w io.Writer, lvl zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	level = lvl
}

// New returns a logger tagged with component, carrying a RFC3339 timestamp
// and the component name as a structured field on every line.
func New(component string) zerolog.Logger {
	mu.Lock()
	w, lvl := output, level
	mu.Unlock()

	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}
