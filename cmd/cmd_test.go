package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DachengChen/paiERP/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestProvidersUseAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	out, err := run(t, "providers", "use", "claude-1", "--config", path)
	if err != nil {
		t.Fatalf("use: %v\n%s", err, out)
	}
	if !strings.Contains(out, "active provider: claude-1") {
		t.Errorf("use output = %q", out)
	}

	s, err := config.LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.ActiveProvider != "claude" {
		t.Errorf("saved active = %q", s.ActiveProvider)
	}

	out, err = run(t, "providers", "list", "--config", path)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var activeLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "*") {
			activeLine = line
		}
	}
	if !strings.Contains(activeLine, "claude-1") {
		t.Errorf("active marker on %q\n%s", activeLine, out)
	}
	for _, id := range []string{"openai-1", "gemini-1", "azure-1"} {
		if !strings.Contains(out, id) {
			t.Errorf("list missing %s", id)
		}
	}
}

func TestProvidersUseUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if _, err := run(t, "providers", "use", "llama-1", "--config", path); err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
}

func TestNewRuntimeDemoBackend(t *testing.T) {
	s := config.DefaultSettings()
	s.Claude.APIKey = "sk-ant"
	s.ActiveProvider = "claude"
	s.UseCORSProxy = true

	rt, err := newRuntime(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.closeBackend()

	active, ok := rt.assistant.ActiveProvider()
	if !ok || active.ID != "claude-1" || active.APIKey != "sk-ant" {
		t.Errorf("active = %+v", active)
	}
	if !rt.registry.UseCORSProxy() {
		t.Error("CORS proxy setting not applied")
	}
}

func TestNewRuntimeRejectsIncompleteNetSuite(t *testing.T) {
	s := config.DefaultSettings()
	s.Backend = config.BackendNetSuite
	if _, err := newRuntime(context.Background(), s); err == nil {
		t.Fatal("expected an error")
	}
}
