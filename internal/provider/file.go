package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultOutputDir = "./mail_output"

// File drops each message as an .eml file, grouped in one subdirectory per
// email kind. Useful for inspecting rendered templates in a mail client.
type File struct {
	outputDir string
}

// NewFile uses ProviderConfig.Endpoint as the output directory, or
// ./mail_output when it is empty.
func NewFile(cfg ProviderConfig) *File {
	if cfg.Endpoint == "" {
		return &File{outputDir: defaultOutputDir}
	}
	return &File{outputDir: cfg.Endpoint}
}

func (f *File) GetName() string { return TypeFile }

// Send writes <dir>/<kind>/<timestamp>_<id>.eml. The file is written under a
// temporary name and renamed, so readers never see a partial message.
func (f *File) Send(_ context.Context, msg *Message) (*DeliveryResult, error) {
	dir := filepath.Join(f.outputDir, safeName(msg.Category, "outros"))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("file: create output dir: %w", err)
	}

	raw, _, err := buildMIME(msg)
	if err != nil {
		return nil, fmt.Errorf("file: build message: %w", err)
	}

	name := time.Now().Format("20060102_150405") + "_" + safeName(msg.ID, "sem-id") + ".eml"
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return nil, fmt.Errorf("file: create temp: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("file: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("file: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("file: rename to %s: %w", path, err)
	}

	return &DeliveryResult{
		ProviderMessageID: "file-" + msg.ID,
		Status:            StatusSent,
		Timestamp:         time.Now(),
		Metadata:          map[string]string{"path": path},
	}, nil
}

// HealthCheck verifies the output directory can be created.
func (f *File) HealthCheck(_ context.Context) error {
	if err := os.MkdirAll(f.outputDir, 0o750); err != nil {
		return fmt.Errorf("file: output dir not writable: %w", err)
	}
	return nil
}

// safeName keeps s usable as a single path element.
func safeName(s, fallback string) string {
	s = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		return fallback
	}
	return s
}
