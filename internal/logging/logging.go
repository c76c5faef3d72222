package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// Options selects handler level and format. Empty fields fall back to the
// TEXTREDACT_LOG_LEVEL and TEXTREDACT_LOG_FORMAT environment variables.
type Options struct {
	Level  string
	Format string
	// Redactor, when set, masks every record before it is written.
	Redactor Redactor
}

// Init configures the default slog logger. Format "json" selects structured
// JSON output; anything else is human-readable text on w.
func Init(service string, w io.Writer, opts Options) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := opts.Level
	if level == "" {
		level = os.Getenv("TEXTREDACT_LOG_LEVEL")
	}
	format := opts.Format
	if format == "" {
		format = os.Getenv("TEXTREDACT_LOG_FORMAT")
	}
	hopts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, hopts)
	} else {
		handler = slog.NewTextHandler(w, hopts)
	}
	if opts.Redactor != nil {
		handler = NewRedactingHandler(handler, opts.Redactor)
	}

	logger := slog.New(handler).With(slog.String("service", service))
	slog.SetDefault(logger)

	// Redirect stdlib log to slog so any transitive log.Printf calls
	// still go through the same handler.
	log.SetFlags(0)
	log.SetOutput(&slogWriter{logger: logger})

	return logger
}

// ParseLevel maps a level name to slog.Level, defaulting to warn so the CLI
// stays quiet unless asked.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// slogWriter adapts slog.Logger to io.Writer for stdlib log redirection.
type slogWriter struct {
	logger *slog.Logger
}

func (w *slogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	w.logger.Info(msg, slog.String("source", "stdlib"))
	return len(p), nil
}
