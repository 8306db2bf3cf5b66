package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	appCtx "github.com/baechuer/club-service/internal/pkg/context"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

var Logger zerolog.Logger

func Init() {
	InitWithWriter(os.Stdout)
}

// InitWithWriter configures the package and global loggers from LOG_LEVEL,
// LOG_FORMAT (json|console) and LOG_CALLER.
func InitWithWriter(w io.Writer) {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	format := os.Getenv("LOG_FORMAT")
	if format == "" {
		format = "console"
	}

	var ctx zerolog.Context
	if format == "json" {
		ctx = zerolog.New(w).With().Timestamp()
	} else {
		ctx = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().Timestamp()
	}

	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_CALLER"))) {
	case "1", "true", "yes", "on":
		ctx = ctx.Caller()
	}

	Logger = ctx.Logger().Level(level)
	zlog.Logger = Logger
}

// WithCtx returns the service logger enriched with the request id, when the
// context carries one.
func WithCtx(ctx context.Context) *zerolog.Logger {
	l := Logger
	if ctx != nil {
		if rid := appCtx.GetRequestID(ctx); rid != "" {
			l = l.With().Str("request_id", rid).Logger()
		}
	}
	return &l
}
