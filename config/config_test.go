package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENAI_API_KEY", "CLAUDE_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
		"AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT",
		"NETSUITE_ACCOUNT_ID", "NETSUITE_CONSUMER_KEY", "NETSUITE_CONSUMER_SECRET",
		"NETSUITE_TOKEN_ID", "NETSUITE_TOKEN_SECRET", "NETSUITE_BASE_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.ActiveProvider != "openai" || s.Backend != BackendDemo {
		t.Errorf("defaults not applied: %+v", s)
	}
	if !s.Features.ExportEnabled || s.Claude.Model != "claude-3-sonnet-20240229" {
		t.Errorf("defaults not applied: %+v", s)
	}
}

func TestSettingsSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Gemini.APIKey = "g-key"
	s.UseCORSProxy = true
	if err := s.SetActive("gemini-1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}

	got, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Gemini.APIKey != "g-key" || !got.UseCORSProxy || got.ActiveProvider != "gemini" {
		t.Errorf("reloaded = %+v", got)
	}
}

func TestLoadSettingsEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"openai":{"apiKey":"from-file","model":"gpt-4o"}}`), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-env")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://res.openai.azure.com")
	t.Setenv("NETSUITE_ACCOUNT_ID", "1234567")

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.OpenAI.APIKey != "from-env" || s.OpenAI.Model != "gpt-4o" {
		t.Errorf("OpenAI = %+v", s.OpenAI)
	}
	if s.Claude.APIKey != "anthropic-env" {
		t.Errorf("Claude key = %q", s.Claude.APIKey)
	}
	if s.Azure.BaseURL != "https://res.openai.azure.com" {
		t.Errorf("Azure base = %q", s.Azure.BaseURL)
	}
	if s.NetSuite.AccountID != "1234567" {
		t.Errorf("NetSuite account = %q", s.NetSuite.AccountID)
	}
}

func TestLoadSettingsBadJSON(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte("{not json"), 0600)

	if _, err := LoadSettings(path); err == nil || !strings.Contains(err.Error(), "parse settings") {
		t.Errorf("err = %v", err)
	}
}

func TestProviders(t *testing.T) {
	s := DefaultSettings()
	s.Claude.APIKey = "ck"
	s.Azure.BaseURL = "https://res.openai.azure.com"
	s.ActiveProvider = "claude"

	providers, active := s.Providers()
	if active != "claude-1" {
		t.Errorf("active = %q", active)
	}
	wantCost := map[string]float64{"openai-1": 0.03, "claude-1": 0.015, "gemini-1": 0.01, "azure-1": 0.03}
	for _, p := range providers {
		if p.CostPerToken != wantCost[p.ID] {
			t.Errorf("%s cost = %v", p.ID, p.CostPerToken)
		}
	}
	if providers[1].APIKey != "ck" || providers[3].BaseURL != "https://res.openai.azure.com" {
		t.Errorf("providers = %+v", providers)
	}

	s.ActiveProvider = ""
	if _, active := s.Providers(); active != "" {
		t.Errorf("active = %q, want none", active)
	}
}

func TestSetActiveUnknown(t *testing.T) {
	s := DefaultSettings()
	if err := s.SetActive("ollama-1"); err == nil {
		t.Error("expected error")
	}
	if s.ActiveProvider != "openai" {
		t.Errorf("ActiveProvider changed to %q", s.ActiveProvider)
	}
}

func TestDSN(t *testing.T) {
	c := DefaultPostgres()
	c.Password = "it's secret"
	want := `host=localhost port=5432 user=postgres password='it\'s secret' dbname=erp sslmode=disable`
	if got := c.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestLoadServerConfig(t *testing.T) {
	dir := t.TempDir()
	yaml := "PAIERP_ADDR: \":9090\"\nPAIERP_RATE_LIMIT: 5\n"
	if err := os.WriteFile(filepath.Join(dir, "paierp.yaml"), []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PAIERP_SESSION_TTL", "2h")

	cfg, err := LoadServerConfig(dir)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.RateLimit != 5 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}
