package logger

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	appCtx "github.com/baechuer/club-service/internal/pkg/context"
	zlog "github.com/rs/zerolog/log"
)

var envMu sync.Mutex

func withEnv(t *testing.T, kv map[string]string) {
	t.Helper()

	envMu.Lock()
	t.Cleanup(envMu.Unlock)

	prev := map[string]*string{}
	for k, v := range kv {
		if old, ok := os.LookupEnv(k); ok {
			tmp := old
			prev[k] = &tmp
		} else {
			prev[k] = nil
		}
		_ = os.Setenv(k, v)
	}

	t.Cleanup(func() {
		for k, old := range prev {
			if old == nil {
				_ = os.Unsetenv(k)
			} else {
				_ = os.Setenv(k, *old)
			}
		}
	})
}

func TestInitWithWriter_Defaults_ToInfoAndConsole(t *testing.T) {
	withEnv(t, map[string]string{"LOG_LEVEL": "", "LOG_FORMAT": "", "LOG_CALLER": ""})

	var buf bytes.Buffer
	InitWithWriter(&buf)

	if Logger.GetLevel().String() != "info" {
		t.Fatalf("expected level=info, got %s", Logger.GetLevel().String())
	}
	if zlog.Logger.GetLevel().String() != "info" {
		t.Fatalf("expected global level=info, got %s", zlog.Logger.GetLevel().String())
	}

	Logger.Info().Msg("hello")
	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected console output, got json-like: %q", out)
	}
	if !strings.Contains(out, "hello") {
		t.Fatalf("expected message in output, got: %q", out)
	}
}

func TestInitWithWriter_InvalidLogLevel_FallsBackToInfo(t *testing.T) {
	withEnv(t, map[string]string{"LOG_LEVEL": "not-a-level", "LOG_FORMAT": "console"})

	var buf bytes.Buffer
	InitWithWriter(&buf)

	Logger.Debug().Msg("debug-should-not-print")
	Logger.Info().Msg("info-should-print")
	out := buf.String()

	if strings.Contains(out, "debug-should-not-print") {
		t.Fatalf("did not expect debug output at info level, got: %q", out)
	}
	if !strings.Contains(out, "info-should-print") {
		t.Fatalf("expected info output, got: %q", out)
	}
}

func TestInitWithWriter_JSONWithCaller(t *testing.T) {
	withEnv(t, map[string]string{"LOG_LEVEL": "debug", "LOG_FORMAT": "json", "LOG_CALLER": "true"})

	var buf bytes.Buffer
	InitWithWriter(&buf)

	Logger.Debug().Str("k", "v").Msg("hello")
	out := strings.TrimSpace(buf.String())

	if !strings.HasPrefix(out, "{") || !strings.HasSuffix(out, "}") {
		t.Fatalf("expected json object line, got: %q", out)
	}
	if !strings.Contains(out, `"k":"v"`) {
		t.Fatalf("expected k field, got: %q", out)
	}
	if !strings.Contains(out, `"caller":`) {
		t.Fatalf("expected caller field, got: %q", out)
	}
}

func TestWithCtx_AddsRequestID(t *testing.T) {
	withEnv(t, map[string]string{"LOG_LEVEL": "info", "LOG_FORMAT": "json", "LOG_CALLER": ""})

	var buf bytes.Buffer
	InitWithWriter(&buf)

	ctx := appCtx.WithRequestID(context.Background(), "rid-123")
	WithCtx(ctx).Info().Msg("scoped")
	WithCtx(context.Background()).Info().Msg("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"request_id":"rid-123"`) {
		t.Fatalf("expected request_id, got: %q", lines[0])
	}
	if strings.Contains(lines[1], "request_id") {
		t.Fatalf("did not expect request_id, got: %q", lines[1])
	}
}
