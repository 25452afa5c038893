// Package logger holds the process-wide zerolog logger. main calls Init once;
// everything else receives a zerolog.Logger by constructor, and Get covers
// the few places that cannot.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options describes the logger built by New and Init.
type Options struct {
	Level   string    // trace, debug, info, warn or error; anything else means info
	Pretty  bool      // zerolog console writer instead of JSON
	Output  io.Writer // defaults to os.Stdout
	Service string    // attached as "service" when set
	Version string    // attached as "version" when set
}

var (
	mu     sync.Mutex
	global *zerolog.Logger
)

// New builds a logger from opts without installing it.
func New(opts Options) zerolog.Logger {
	w := opts.Output
	if w == nil {
		w = os.Stdout
	}
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	fields := zerolog.New(w).Level(parseLevel(opts.Level)).With().Timestamp().Caller()
	if opts.Service != "" {
		fields = fields.Str("service", opts.Service)
	}
	if opts.Version != "" {
		fields = fields.Str("version", opts.Version)
	}
	return fields.Logger()
}

// Init installs the process-wide logger on its first call and returns it.
// Later calls return the installed logger unchanged.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if global == nil {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		l := New(opts)
		global = &l
	}
	return *global
}

// Get returns the installed logger. It panics before Init.
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if global == nil {
		panic("logger: Get called before Init")
	}
	return *global
}

// Reset uninstalls the logger. Tests only.
func Reset() {
	mu.Lock()
	global = nil
	mu.Unlock()
}

func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
