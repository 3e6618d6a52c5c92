package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the slog logger for the log settings
func NewLogger(s LogSettings, w io.Writer) (*slog.Logger, error) {

	var level slog.Level

	if err := level.UnmarshalText([]byte(s.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", s.Level, err)
	}

	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(s.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q, expected text or json", s.Format)
	}
}
