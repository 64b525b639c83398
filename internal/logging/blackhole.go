// Package logging holds the slog plumbing shared across the module.
package logging

import (
	"context"
	"log/slog"
)

// BlackholeHandler implements slog.Handler and discards all log
// messages. It is the default handler, keeping the library silent
// until a caller injects a logger of its own.
type BlackholeHandler struct{}

func (h BlackholeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return false
}

func (h BlackholeHandler) Handle(ctx context.Context, record slog.Record) error {
	return nil
}

func (h BlackholeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h BlackholeHandler) WithGroup(name string) slog.Handler {
	return h
}

// Discard returns a logger backed by BlackholeHandler.
func Discard() *slog.Logger {
	return slog.New(BlackholeHandler{})
}
