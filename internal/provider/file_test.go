package provider

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFile_Send(t *testing.T) {
	dir := t.TempDir()
	p := NewFile(ProviderConfig{Type: TypeFile, Endpoint: dir})

	result, err := p.Send(context.Background(), &Message{
		ID:       "msg-456",
		From:     "sender@example.com",
		To:       []string{"recipient@example.com"},
		Subject:  "File Test",
		Category: "lembrete_vencimento",
		TextBody: "Hello from file provider",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.ProviderMessageID != "file-msg-456" {
		t.Errorf("expected provider message ID file-msg-456, got %s", result.ProviderMessageID)
	}

	path := result.Metadata["path"]
	if filepath.Dir(path) != filepath.Join(dir, "lembrete_vencimento") {
		t.Errorf("expected file under the kind directory, got %s", path)
	}
	if !strings.HasSuffix(path, "_msg-456.eml") {
		t.Errorf("unexpected file name %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	content := string(data)
	for _, want := range []string{
		"From: sender@example.com",
		"To: recipient@example.com",
		"Subject: File Test",
		"X-Tracking-Code: msg-456",
		"multipart/alternative",
		"Hello from file provider",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("file missing %q", want)
		}
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".partial-") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestFile_Send_UncategorizedAndUnsafeID(t *testing.T) {
	dir := t.TempDir()
	p := NewFile(ProviderConfig{Type: TypeFile, Endpoint: dir})

	result, err := p.Send(context.Background(), &Message{
		ID:       "msg/with/slashes",
		From:     "test@example.com",
		To:       []string{"to@example.com"},
		TextBody: "test",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	path := result.Metadata["path"]
	if filepath.Dir(path) != filepath.Join(dir, "outros") {
		t.Errorf("expected fallback directory, got %s", path)
	}
	if !strings.HasSuffix(path, "_msg_with_slashes.eml") {
		t.Errorf("expected slashes sanitized, got %s", filepath.Base(path))
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"orcamento", "orcamento"},
		{"a/b", "a_b"},
		{"  ", "fb"},
		{"..", "fb"},
	}
	for _, tt := range tests {
		if got := safeName(tt.in, "fb"); got != tt.want {
			t.Errorf("safeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFile_DefaultsAndHealth(t *testing.T) {
	if p := NewFile(ProviderConfig{Type: TypeFile}); p.outputDir != defaultOutputDir {
		t.Errorf("expected default dir, got %s", p.outputDir)
	}

	p := NewFile(ProviderConfig{Type: TypeFile, Endpoint: t.TempDir()})
	if p.GetName() != TypeFile {
		t.Errorf("expected name file, got %s", p.GetName())
	}
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
