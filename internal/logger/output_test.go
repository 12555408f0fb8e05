package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRotating_Settings(t *testing.T) {
	lj := rotating(Config{FilePath: "/var/log/leadqueue.log", MaxSizeMB: 50, MaxFiles: 5, MaxAgeDays: 14})
	if lj.Filename != "/var/log/leadqueue.log" || lj.MaxSize != 50 || lj.MaxBackups != 5 || lj.MaxAge != 14 {
		t.Errorf("unexpected rotation settings: %+v", lj)
	}
	if !lj.Compress {
		t.Error("rotated files should be compressed")
	}
}

func TestOutput_Selection(t *testing.T) {
	if w := output(Config{}); w != os.Stdout {
		t.Errorf("default output = %T, want stdout", w)
	}
	if w := output(Config{Output: "file"}); w != os.Stdout {
		t.Errorf("file without path = %T, want stdout", w)
	}
	if _, ok := output(Config{Format: "console"}).(zerolog.ConsoleWriter); !ok {
		t.Error("console format should wrap the writer")
	}
}

func TestOutput_FileCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "leadqueue.log")
	w := output(Config{Output: "file", FilePath: path, MaxSizeMB: 1, MaxFiles: 1})

	if _, err := w.Write([]byte(`{"message":"hello"}` + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("file content = %q", data)
	}
}
