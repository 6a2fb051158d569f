// Package logging is a small leveled console logger in the same spirit
// as the receiver's own hand-rolled text_color_set/dw_printf: no
// structured logging framework, just tagged lines on stderr with an
// optional ANSI color and a level gate.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var (
	mu        sync.Mutex
	level     = LevelInfo
	useColor  = true
	outStream = os.Stderr
)

// Init sets the minimum level that will be printed. Honors the
// GNSSGO_LOG environment variable (debug|info|warn|error) the way
// spec.md's "Environment" section describes, same RUST_LOG-style
// selector, just our own name.
func Init(explicit string) {
	mu.Lock()
	defer mu.Unlock()

	chosen := explicit
	if chosen == "" {
		chosen = os.Getenv("GNSSGO_LOG")
	}

	switch strings.ToLower(chosen) {
	case "debug":
		level = LevelDebug
	case "info":
		level = LevelInfo
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	case "":
		// leave default
	default:
		level = LevelInfo
	}
}

func colorFor(l Level) string {
	switch l {
	case LevelDebug:
		return "\x1b[32m" // green
	case LevelInfo:
		return "\x1b[0m" // default
	case LevelWarn:
		return "\x1b[33m" // yellow
	case LevelError:
		return "\x1b[31m" // red
	default:
		return "\x1b[0m"
	}
}

func logf(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if l < level {
		return
	}

	ts := time.Now().UTC().Format("15:04:05.000")
	msg := fmt.Sprintf(format, args...)

	if useColor {
		fmt.Fprintf(outStream, "%s%s %-5s %s\x1b[0m\n", colorFor(l), ts, l, msg)
	} else {
		fmt.Fprintf(outStream, "%s %-5s %s\n", ts, l, msg)
	}
}

func Debugf(format string, args ...any) { logf(LevelDebug, format, args...) }
func Infof(format string, args ...any)  { logf(LevelInfo, format, args...) }
func Warnf(format string, args ...any)  { logf(LevelWarn, format, args...) }
func Errorf(format string, args ...any) { logf(LevelError, format, args...) }

// DisableColor is used by tests and by non-tty diagnostic captures.
func DisableColor() {
	mu.Lock()
	defer mu.Unlock()
	useColor = false
}
