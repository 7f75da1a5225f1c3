// Package pepperlog wires up the structured diagnostics logger shared by
// the REPL and script runner. It is diagnostic-only: it never
// participates in interpreter semantics (spec.md §1 excludes a debugger)
// and is not consulted by the compiler or VM.
//
// Grounded on reusee-tai's logs.Logger (github.com/samber/slog-multi
// fanout), reduced to Pepper's two-handler case: a stderr text handler
// always on, plus a JSON handler gated by PEPPER_DEBUG=1.
package pepperlog

import (
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"github.com/google/uuid"

	"github.com/pepper-lang/pepper/internal/config"
)

// New returns a *slog.Logger tagged with a fresh session ID, so multiple
// submissions pasted into one REPL session can be correlated in the log
// stream.
func New() *slog.Logger {
	var handlers []slog.Handler

	level := slog.LevelInfo
	if os.Getenv(config.DebugEnvVar) == "1" {
		level = slog.LevelDebug
	}

	handlers = append(handlers, slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if os.Getenv(config.DebugEnvVar) == "1" {
		if f, err := os.OpenFile("pepper-debug.jsonl", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}))
		}
	}

	logger := slog.New(slogmulti.Fanout(handlers...))
	return logger.With("session", uuid.NewString())
}
