// Package slogx configures log/slog for the auth services and carries the
// per-request logger through a context.
package slogx

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Redacted replaces the value of every attribute named in Config.Redact.
const Redacted = "[redacted]"

// DefaultRedact lists attribute keys that carry credentials.
var DefaultRedact = []string{
	"password",
	"refresh_token",
	"access_token",
	"authorization",
	"signing_key",
	"pepper",
}

type Config struct {
	Service string
	Version string
	Env     string // dev adds source locations
	Level   string // debug|info|warn|error
	Format  string // json (default) or text

	// Redact names attribute keys, matched case-insensitively at any group
	// depth, whose values are never written. Nil means DefaultRedact.
	Redact []string

	Output io.Writer // defaults to stdout
}

// New builds the process logger and installs it as the slog default.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	keys := cfg.Redact
	if keys == nil {
		keys = DefaultRedact
	}

	opts := &slog.HandlerOptions{
		AddSource:   cfg.Env == "dev",
		Level:       parseLevel(cfg.Level),
		ReplaceAttr: redactor(keys),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler).With(
		"service", cfg.Service,
		"version", cfg.Version,
		"env", cfg.Env,
	)
	slog.SetDefault(logger)
	return logger
}

func redactor(keys []string) func([]string, slog.Attr) slog.Attr {
	if len(keys) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[strings.ToLower(k)] = struct{}{}
	}
	return func(_ []string, a slog.Attr) slog.Attr {
		if _, ok := set[strings.ToLower(a.Key)]; ok {
			return slog.String(a.Key, Redacted)
		}
		return a
	}
}

func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
