package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/hylla/tavle/internal/config"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("TAVLE_DEV_MODE", "false")
	os.Exit(m.Run())
}

// fakeProgram represents fake program data used by this package.
type fakeProgram struct {
	runErr error
}

// Run runs the requested command flow.
func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

func isolateUserDirs(t *testing.T) {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", base)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))
}

func newBoardServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/board", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"todo":[{"id":"c1","title":"Ship the release","subtasks":[],"tags":[{"id":"t1","name":"urgent","color":"#fca5a5"}]}],"in_progress":[],"done":[]}`)
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":"t1","name":"urgent","color":"#fca5a5"}]`)
	})
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[]`)
	})
	mux.HandleFunc("/api/archived", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":"c9","title":"Old experiment","subtasks":[],"tags":[]}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunVersion(t *testing.T) {
	var out strings.Builder
	err := run(context.Background(), []string{"--version"}, &out, io.Discard)
	if err != nil {
		t.Fatalf("run(version) error = %v", err)
	}
	if !strings.Contains(out.String(), "tavle") {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

func TestRunInvalidFlag(t *testing.T) {
	err := run(context.Background(), []string{"--definitely-not-a-flag"}, io.Discard, io.Discard)
	if err == nil {
		t.Fatal("expected flag parse error")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	isolateUserDirs(t)
	err := run(context.Background(), []string{"launch-rockets"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestRunPathsCommand(t *testing.T) {
	isolateUserDirs(t)
	var out strings.Builder
	if err := run(context.Background(), []string{"paths"}, &out, io.Discard); err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	for _, want := range []string{"config:", "data_dir:", "cache:"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in paths output, got %q", want, out.String())
		}
	}
}

func TestRunBoardCommandPrintsTableAndCaches(t *testing.T) {
	isolateUserDirs(t)
	srv := newBoardServer(t)

	var out strings.Builder
	err := run(context.Background(), []string{"-server", srv.URL, "board"}, &out, io.Discard)
	if err != nil {
		t.Fatalf("run(board) error = %v", err)
	}
	if !strings.Contains(out.String(), "Ship the release") || !strings.Contains(out.String(), "urgent") {
		t.Fatalf("expected board table content, got %q", out.String())
	}

	// Kill the server; the command should fall back to the cached snapshot.
	srv.Close()
	out.Reset()
	err = run(context.Background(), []string{"-server", srv.URL, "board"}, &out, io.Discard)
	if err != nil {
		t.Fatalf("run(board, cached) error = %v", err)
	}
	if !strings.Contains(out.String(), "cached snapshot") || !strings.Contains(out.String(), "Ship the release") {
		t.Fatalf("expected cached fallback output, got %q", out.String())
	}
}

func TestRunTagsCommand(t *testing.T) {
	isolateUserDirs(t)
	srv := newBoardServer(t)

	var out strings.Builder
	if err := run(context.Background(), []string{"-server", srv.URL, "tags"}, &out, io.Discard); err != nil {
		t.Fatalf("run(tags) error = %v", err)
	}
	if !strings.Contains(out.String(), "urgent") || !strings.Contains(out.String(), "#fca5a5") {
		t.Fatalf("expected tag table content, got %q", out.String())
	}
}

func TestRunArchivedCommand(t *testing.T) {
	isolateUserDirs(t)
	srv := newBoardServer(t)

	var out strings.Builder
	if err := run(context.Background(), []string{"-server", srv.URL, "archived"}, &out, io.Discard); err != nil {
		t.Fatalf("run(archived) error = %v", err)
	}
	if !strings.Contains(out.String(), "Old experiment") {
		t.Fatalf("expected archived table content, got %q", out.String())
	}
}

func TestRunStartsProgram(t *testing.T) {
	isolateUserDirs(t)
	srv := newBoardServer(t)

	original := programFactory
	t.Cleanup(func() { programFactory = original })
	var started bool
	programFactory = func(tea.Model) program {
		started = true
		return fakeProgram{}
	}

	if err := run(context.Background(), []string{"-server", srv.URL}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(tui) error = %v", err)
	}
	if !started {
		t.Fatal("expected tui program to start")
	}
}

func TestRunConfigEnvOverride(t *testing.T) {
	isolateUserDirs(t)
	srv := newBoardServer(t)

	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	content := "[server]\nbase_url = \"" + srv.URL + "\"\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TAVLE_CONFIG", cfgPath)

	var out strings.Builder
	if err := run(context.Background(), []string{"tags"}, &out, io.Discard); err != nil {
		t.Fatalf("run(tags) with env config error = %v", err)
	}
	if !strings.Contains(out.String(), "urgent") {
		t.Fatalf("expected tags from env-configured server, got %q", out.String())
	}
}

func TestRunRejectsInvalidLoggingLevelFromConfig(t *testing.T) {
	isolateUserDirs(t)
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	content := "[logging]\nlevel = \"chatty\"\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	err := run(context.Background(), []string{"-config", cfgPath, "tags"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected config load failure, got %v", err)
	}
}

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("TAVLE_BOOL_TEST", "true")
	if v, ok := parseBoolEnv("TAVLE_BOOL_TEST"); !ok || !v {
		t.Fatal("expected true, ok")
	}
	t.Setenv("TAVLE_BOOL_TEST", "not-bool")
	if _, ok := parseBoolEnv("TAVLE_BOOL_TEST"); ok {
		t.Fatal("expected not-ok for garbage value")
	}
	t.Setenv("TAVLE_BOOL_TEST", "")
	if _, ok := parseBoolEnv("TAVLE_BOOL_TEST"); ok {
		t.Fatal("expected not-ok for empty value")
	}
}

func TestDevLogFilePath(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	got, err := devLogFilePath("/var/log/tavle", "tavle", now)
	if err != nil {
		t.Fatalf("devLogFilePath() error = %v", err)
	}
	if got != "/var/log/tavle/tavle-2026-03-14.log" {
		t.Fatalf("unexpected dev log path %q", got)
	}
}

func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var buf strings.Builder
	logger, err := newRuntimeLogger(&buf, "tavle", false, config.LoggingConfig{Level: "info"}, time.Now)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	logger.Info("before mute")
	logger.SetConsoleEnabled(false)
	logger.Info("after mute")
	if !strings.Contains(buf.String(), "before mute") {
		t.Fatal("expected first event on console")
	}
	if strings.Contains(buf.String(), "after mute") {
		t.Fatal("expected console muted for second event")
	}
}
