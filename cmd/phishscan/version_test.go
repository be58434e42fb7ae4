package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestGetVersion tests version retrieval.
func TestGetVersion(t *testing.T) {
	t.Run("returns ldflags version when set", func(t *testing.T) {
		original := version
		defer func() { version = original }()

		version = "v1.2.3"
		if got := getVersion(); got != "v1.2.3" {
			t.Errorf("expected 'v1.2.3', got %q", got)
		}
	})

	t.Run("returns non-empty fallback", func(t *testing.T) {
		original := version
		defer func() { version = original }()

		version = ""
		if got := getVersion(); got == "" {
			t.Error("expected non-empty version fallback")
		}
	})
}

// TestGetCommit tests commit hash retrieval.
func TestGetCommit(t *testing.T) {
	t.Run("returns ldflags commit when set", func(t *testing.T) {
		original := commit
		defer func() { commit = original }()

		commit = "abc1234"
		if got := getCommit(); got != "abc1234" {
			t.Errorf("expected 'abc1234', got %q", got)
		}
	})

	t.Run("returns non-empty fallback", func(t *testing.T) {
		original := commit
		defer func() { commit = original }()

		commit = ""
		if got := getCommit(); got == "" {
			t.Error("expected non-empty commit fallback")
		}
	})
}

// TestNewVersionCmd tests the version command output.
func TestNewVersionCmd(t *testing.T) {
	cmd := NewVersionCmd()

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "phishscan version") {
		t.Errorf("expected version line, got %q", output)
	}
	if !strings.Contains(output, "commit:") {
		t.Errorf("expected commit line, got %q", output)
	}
	if !strings.Contains(output, "built:") {
		t.Errorf("expected build date line, got %q", output)
	}
}
