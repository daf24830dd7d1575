package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var commandContext = exec.CommandContext

// Engine is the processing collaborator. Exec failures surface as errors
// carrying the tool's diagnostic output.
type Engine interface {
	WriteFile(name string, data []byte) error
	Exec(ctx context.Context, args []string) error
	ReadFile(name string) ([]byte, error)
}

// Option configures the ffmpeg engine.
type Option func(*FFmpeg)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.binary = binary
		}
	}
}

// FFmpeg runs the ffmpeg binary against a working directory that acts as the
// named file store shared by every invocation of one job.
type FFmpeg struct {
	binary  string
	workDir string
}

// NewFFmpeg creates the working directory and returns an engine bound to it.
func NewFFmpeg(workDir string, opts ...Option) (*FFmpeg, error) {
	workDir = strings.TrimSpace(workDir)
	if workDir == "" {
		return nil, errors.New("engine: working directory required")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("engine: create working directory: %w", err)
	}
	eng := &FFmpeg{binary: "ffmpeg", workDir: workDir}
	for _, opt := range opts {
		opt(eng)
	}
	return eng, nil
}

// WorkDir returns the directory backing the file store.
func (f *FFmpeg) WorkDir() string {
	return f.workDir
}

// WriteFile stores a named entry in the file store.
func (f *FFmpeg) WriteFile(name string, data []byte) error {
	path, err := f.entryPath(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("engine: write %s: %w", name, err)
	}
	return nil
}

// ReadFile retrieves a named entry from the file store.
func (f *FFmpeg) ReadFile(name string) ([]byte, error) {
	path, err := f.entryPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("engine: read %s: %w", name, err)
	}
	return data, nil
}

// Exec runs one ffmpeg invocation inside the working directory. The argv is
// the builder's output; the invocation preamble (overwrite, quiet logging)
// belongs to the adapter, not the builder.
func (f *FFmpeg) Exec(ctx context.Context, args []string) error {
	full := make([]string, 0, len(args)+5)
	full = append(full, "-hide_banner", "-nostdin", "-loglevel", "error", "-y")
	full = append(full, args...)

	cmd := commandContext(ctx, f.binary, full...)
	cmd.Dir = f.workDir
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", f.binary, err, diagnosticTail(output.String()))
	}
	return nil
}

// entryPath confines store names to the working directory.
func (f *FFmpeg) entryPath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("engine: entry name required")
	}
	if name != filepath.Base(name) {
		return "", fmt.Errorf("engine: entry name %q must not contain path separators", name)
	}
	return filepath.Join(f.workDir, name), nil
}

const maxDiagnosticLines = 4

// diagnosticTail keeps the last few stderr lines, where ffmpeg puts the
// actual failure reason.
func diagnosticTail(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > maxDiagnosticLines {
		lines = lines[len(lines)-maxDiagnosticLines:]
	}
	trimmed := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			trimmed = append(trimmed, line)
		}
	}
	if len(trimmed) == 0 {
		return "no diagnostic output"
	}
	return strings.Join(trimmed, " | ")
}

var _ Engine = (*FFmpeg)(nil)
