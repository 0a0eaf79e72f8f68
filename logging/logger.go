// Package logging defines the small logging surface shared by the chat and
// chart packages, plus a zerolog-backed implementation.
package logging

import "github.com/rs/zerolog"

// Logger is a minimal logging interface accepted by the SDK.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// Nop discards all logs.
type Nop struct{}

func (Nop) Debug(string, map[string]any) {}
func (Nop) Info(string, map[string]any)  {}
func (Nop) Warn(string, map[string]any)  {}
func (Nop) Error(string, map[string]any) {}

// Zerolog adapts a zerolog.Logger to Logger.
type Zerolog struct {
	l zerolog.Logger
}

// NewZerolog wraps l. Component is attached to every entry when non-empty.
func NewZerolog(l zerolog.Logger, component string) *Zerolog {
	if component != "" {
		l = l.With().Str("component", component).Logger()
	}
	return &Zerolog{l: l}
}

func (z *Zerolog) Debug(msg string, fields map[string]any) { z.emit(z.l.Debug(), msg, fields) }
func (z *Zerolog) Info(msg string, fields map[string]any)  { z.emit(z.l.Info(), msg, fields) }
func (z *Zerolog) Warn(msg string, fields map[string]any)  { z.emit(z.l.Warn(), msg, fields) }
func (z *Zerolog) Error(msg string, fields map[string]any) { z.emit(z.l.Error(), msg, fields) }

func (z *Zerolog) emit(ev *zerolog.Event, msg string, fields map[string]any) {
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(msg)
}

// OrNop returns l, or Nop when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop{}
	}
	return l
}
