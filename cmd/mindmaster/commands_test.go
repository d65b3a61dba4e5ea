package main

import (
	"bytes"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "mindmaster ") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLevelsListShowsEveryLevel(t *testing.T) {
	out, err := run(t, "levels", "list", "--data-dir", t.TempDir())
	if err != nil {
		t.Fatalf("levels list: %v", err)
	}
	for _, want := range []string{"Make the giraffe shorter.", "DRAG", "CLICK", "20"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestLevelsValidateBuiltin(t *testing.T) {
	out, err := run(t, "levels", "validate")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "ok: 20 levels") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLevelsValidateMissingFile(t *testing.T) {
	if _, err := run(t, "levels", "validate", "/nonexistent/levels.yaml"); err == nil {
		t.Fatalf("expected an error for a missing catalog")
	}
}

func TestStatsOnEmptyDataDir(t *testing.T) {
	out, err := run(t, "stats", "--data-dir", t.TempDir())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "sessions 0") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestAuthCheckOffline(t *testing.T) {
	t.Setenv("MINDMASTER_HINT_MODE", "offline")
	out, err := run(t, "auth", "check", "1", "--data-dir", t.TempDir())
	if err != nil {
		t.Fatalf("auth check: %v", err)
	}
	if !strings.Contains(out, "oracle via offline") || !strings.Contains(out, "Things here are more mobile than they look.") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestAuthCheckUnknownLevel(t *testing.T) {
	t.Setenv("MINDMASTER_HINT_MODE", "offline")
	if _, err := run(t, "auth", "check", "99", "--data-dir", t.TempDir()); err == nil {
		t.Fatalf("expected an error for level 99")
	}
}
