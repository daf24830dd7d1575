package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipper/internal/config"
	"clipper/internal/history"
	"clipper/internal/testsupport"
)

func seedHistory(t *testing.T, configPath string) {
	t.Helper()
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load test config: %v", err)
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()
	job := history.Job{
		ID:        "seed-1",
		Source:    "movie.mp4",
		Mode:      "passthrough",
		Status:    history.StatusCompleted,
		ClipCount: 3,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.RecordJob(context.Background(), job); err != nil {
		t.Fatalf("record job: %v", err)
	}
}

func TestHistoryListEmpty(t *testing.T) {
	configPath := testsupport.WriteConfigFile(t, "")
	output, err := runCommand(t, "--config", configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(output, "No recorded jobs") {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestHistoryListShowsRecordedJobs(t *testing.T) {
	configPath := testsupport.WriteConfigFile(t, "")
	seedHistory(t, configPath)

	output, err := runCommand(t, "--config", configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(output, "movie.mp4") || !strings.Contains(output, "completed") {
		t.Fatalf("job row missing: %q", output)
	}
}

func TestHistoryClear(t *testing.T) {
	configPath := testsupport.WriteConfigFile(t, "")
	seedHistory(t, configPath)

	output, err := runCommand(t, "--config", configPath, "history", "clear")
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	if !strings.Contains(output, "Removed 1 job(s)") {
		t.Fatalf("unexpected output: %q", output)
	}

	output, err = runCommand(t, "--config", configPath, "history")
	if err != nil {
		t.Fatalf("history after clear: %v", err)
	}
	if !strings.Contains(output, "No recorded jobs") {
		t.Fatalf("history should be empty: %q", output)
	}
}

func TestHistoryDisabled(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[history]\nenabled = false\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := runCommand(t, "--config", configPath, "history"); err == nil {
		t.Fatal("expected error when history is disabled")
	}
}
