package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	return entry
}

func TestNew_Levels(t *testing.T) {
	emits := func(level, at string) bool {
		var buf bytes.Buffer
		log := New(level).Output(&buf)
		switch at {
		case "debug":
			log.Debug().Msg("x")
		case "info":
			log.Info().Msg("x")
		case "warn":
			log.Warn().Msg("x")
		}
		return buf.Len() > 0
	}

	cases := []struct {
		level, at string
		want      bool
	}{
		{"info", "info", true},
		{"info", "debug", false},
		{"debug", "debug", true},
		{"warn", "info", false},
		{"", "info", true},
		{"loud", "debug", false}, // unknown level means info
		{"loud", "info", true},
	}
	for _, c := range cases {
		if got := emits(c.level, c.at); got != c.want {
			t.Errorf("New(%q) logging at %s: emitted=%v, want %v", c.level, c.at, got, c.want)
		}
	}
}

func TestNewFromConfig_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewFromConfig(Config{Level: "debug", Service: "queue-worker"}).Output(&buf)
	l.Debug().Msg("claimed delivery")

	entry := decode(t, &buf)
	if entry["service"] != "queue-worker" || entry["level"] != "debug" || entry["message"] != "claimed delivery" {
		t.Errorf("entry = %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("missing time field")
	}
}

func TestNewFromConfig_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leadqueue.log")
	log := NewFromConfig(Config{Level: "info", Output: "file", FilePath: path, MaxSizeMB: 1, MaxFiles: 1})

	log.Info().Str("delivery_id", "abc").Msg("delivery sent")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
	if !strings.Contains(string(data), `"delivery_id":"abc"`) {
		t.Errorf("expected delivery_id in log file, got %s", data)
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New("info").Output(&buf))
	ctx = WithCorrelationID(ctx, "req-abc-123")

	if got := CorrelationIDFromContext(ctx); got != "req-abc-123" {
		t.Errorf("CorrelationIDFromContext = %q", got)
	}

	fl := FromContext(ctx)
	fl.Info().Msg("request handled")
	if entry := decode(t, &buf); entry["correlation_id"] != "req-abc-123" {
		t.Errorf("correlation_id = %v", entry["correlation_id"])
	}
}

func TestFromContext_Empty(t *testing.T) {
	ctx := context.Background()
	if CorrelationIDFromContext(ctx) != "" {
		t.Error("expected empty correlation id")
	}

	var buf bytes.Buffer
	fl := FromContext(ctx).Output(&buf)
	fl.Info().Msg("fallback")
	if entry := decode(t, &buf); entry["correlation_id"] != nil {
		t.Errorf("unexpected correlation_id %v", entry["correlation_id"])
	}
}

func TestNewCorrelationID(t *testing.T) {
	a, b := NewCorrelationID(), NewCorrelationID()
	if a == b {
		t.Error("expected unique correlation IDs")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("correlation id %q is not a UUID: %v", a, err)
	}
}
