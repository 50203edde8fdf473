package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/nswatch/pkg/utils/logging"
	"github.com/secmon-lab/nswatch/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// Logger holds CLI flags for logger configuration
type Logger struct {
	level     string
	format    string
	output    string
	sentryDSN string
}

// Flags returns CLI flags for logger configuration
func (x *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Category:    "Logging",
			Value:       "info",
			Sources:     cli.EnvVars("NSWATCH_LOG_LEVEL"),
			Destination: &x.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console or json)",
			Category:    "Logging",
			Value:       "console",
			Sources:     cli.EnvVars("NSWATCH_LOG_FORMAT"),
			Destination: &x.format,
		},
		&cli.StringFlag{
			Name:        "log-output",
			Usage:       "Log output destination (stdout, stderr or file path)",
			Category:    "Logging",
			Value:       "stdout",
			Sources:     cli.EnvVars("NSWATCH_LOG_OUTPUT"),
			Destination: &x.output,
		},
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error reporting (disabled when empty)",
			Category:    "Logging",
			Sources:     cli.EnvVars("NSWATCH_SENTRY_DSN"),
			Destination: &x.sentryDSN,
		},
	}
}

func (x Logger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("level", x.level),
		slog.String("format", x.format),
		slog.String("output", x.output),
		slog.Bool("sentry", x.sentryDSN != ""),
	)
}

// Configure builds the default logger from the flags and installs it.
// The returned closer flushes any buffered output and must be called
// on shutdown.
func (x *Logger) Configure() (func(), error) {
	closer := func() {}

	var output io.Writer
	switch x.output {
	case "stdout", "-":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		f, err := os.OpenFile(x.output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open log file", goerr.V("path", x.output))
		}
		output = f
		closer = func() { safe.Close(context.Background(), f) }
	}

	var level slog.Level
	switch x.level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, goerr.New("invalid log level", goerr.V("level", x.level))
	}

	var format logging.Format
	switch x.format {
	case "console":
		format = logging.FormatConsole
	case "json":
		format = logging.FormatJSON
	default:
		return nil, goerr.New("invalid log format", goerr.V("format", x.format))
	}

	logger := logging.New(output, level, format)

	if x.sentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              x.sentryDSN,
			AttachStacktrace: true,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize sentry")
		}
		logger = slog.New(logging.WithSentry(logger.Handler()))

		prev := closer
		closer = func() {
			sentry.Flush(2 * time.Second)
			prev()
		}
	}

	logging.SetDefault(logger)
	return closer, nil
}
