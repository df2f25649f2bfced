// settings.go holds the persisted settings blob.
//
// Settings are stored in ~/.paierp/config.json and written wholesale on
// save. API keys and NetSuite credentials can also come from environment
// variables (or a .env file), which override the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/DachengChen/paiERP/ai"
)

// Backend selects where ERP records come from.
type Backend string

const (
	BackendDemo     Backend = "demo"
	BackendNetSuite Backend = "netsuite"
	BackendPostgres Backend = "postgres"
)

// VendorSettings holds one vendor's credential and model.
type VendorSettings struct {
	APIKey string `json:"apiKey,omitempty"`
	Model  string `json:"model"`

	// BaseURL is the Azure resource endpoint, or an override for the
	// other vendors.
	BaseURL string `json:"baseUrl,omitempty"`
}

// NetSuiteConfig holds NetSuite token-based authentication settings.
type NetSuiteConfig struct {
	AccountID      string `json:"accountId"`
	ConsumerKey    string `json:"consumerKey,omitempty"`
	ConsumerSecret string `json:"consumerSecret,omitempty"`
	TokenID        string `json:"tokenId,omitempty"`
	TokenSecret    string `json:"tokenSecret,omitempty"`
	BaseURL        string `json:"baseUrl"`
}

// Configured reports whether every credential is present.
func (n NetSuiteConfig) Configured() bool {
	return n.AccountID != "" && n.ConsumerKey != "" && n.ConsumerSecret != "" &&
		n.TokenID != "" && n.TokenSecret != "" && n.BaseURL != ""
}

// Features are UI feature toggles.
type Features struct {
	VoiceInput      bool `json:"voiceInput"`
	MultiLanguage   bool `json:"multiLanguage"`
	ExportEnabled   bool `json:"exportEnabled"`
	RealTimeUpdates bool `json:"realTimeUpdates"`
}

// Settings is the top-level settings file structure.
type Settings struct {
	// ActiveProvider is a vendor key: openai, claude, gemini or azure.
	ActiveProvider string `json:"activeProvider"`

	OpenAI VendorSettings `json:"openai"`
	Claude VendorSettings `json:"claude"`
	Gemini VendorSettings `json:"gemini"`
	Azure  VendorSettings `json:"azure"`

	UseCORSProxy bool   `json:"useCorsProxy"`
	Language     string `json:"language"`

	Backend  Backend        `json:"backend"`
	NetSuite NetSuiteConfig `json:"netsuite"`
	Postgres PostgresConfig `json:"postgres"`

	Features Features `json:"features"`

	path string
}

// DefaultSettings returns sensible defaults.
func DefaultSettings() *Settings {
	return &Settings{
		ActiveProvider: string(ai.VendorOpenAI),
		OpenAI:         VendorSettings{Model: "gpt-4"},
		Claude:         VendorSettings{Model: "claude-3-sonnet-20240229"},
		Gemini:         VendorSettings{Model: "gemini-1.5-pro"},
		Azure:          VendorSettings{Model: "gpt-4"},
		Language:       "en",
		Backend:        BackendDemo,
		Postgres:       DefaultPostgres(),
		Features: Features{
			VoiceInput:      true,
			MultiLanguage:   true,
			ExportEnabled:   true,
			RealTimeUpdates: true,
		},
	}
}

// DefaultPath returns ~/.paierp/config.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".paierp", "config.json"), nil
}

// LoadDotEnv loads .env from the working directory when present. Variables
// already set in the environment win.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// LoadSettings reads the settings file at path (DefaultPath when empty);
// a missing file yields defaults. Environment overrides are applied last.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	s := DefaultSettings()
	s.path = path

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parse settings %s: %w", path, err)
		}
	}

	s.applyEnv()
	return s, nil
}

func (s *Settings) applyEnv() {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&s.OpenAI.APIKey, "OPENAI_API_KEY")
	set(&s.Claude.APIKey, "CLAUDE_API_KEY", "ANTHROPIC_API_KEY")
	set(&s.Gemini.APIKey, "GEMINI_API_KEY")
	set(&s.Azure.APIKey, "AZURE_OPENAI_API_KEY")
	set(&s.Azure.BaseURL, "AZURE_OPENAI_ENDPOINT")

	set(&s.NetSuite.AccountID, "NETSUITE_ACCOUNT_ID")
	set(&s.NetSuite.ConsumerKey, "NETSUITE_CONSUMER_KEY")
	set(&s.NetSuite.ConsumerSecret, "NETSUITE_CONSUMER_SECRET")
	set(&s.NetSuite.TokenID, "NETSUITE_TOKEN_ID")
	set(&s.NetSuite.TokenSecret, "NETSUITE_TOKEN_SECRET")
	set(&s.NetSuite.BaseURL, "NETSUITE_BASE_URL")
}

// Path returns the file the settings are saved to.
func (s *Settings) Path() string { return s.path }

// Save writes the settings to their path.
func (s *Settings) Save() error {
	if s.path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		s.path = p
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// vendor returns the settings slot for a built-in provider id.
func (s *Settings) vendor(id string) (*VendorSettings, ai.Vendor, bool) {
	switch id {
	case "openai-1":
		return &s.OpenAI, ai.VendorOpenAI, true
	case "claude-1":
		return &s.Claude, ai.VendorClaude, true
	case "gemini-1":
		return &s.Gemini, ai.VendorGemini, true
	case "azure-1":
		return &s.Azure, ai.VendorAzure, true
	}
	return nil, "", false
}

// Providers builds the provider records and the active provider id.
func (s *Settings) Providers() ([]ai.ProviderConfig, string) {
	providers := ai.DefaultProviders()
	active := ""
	for i, p := range providers {
		vs, vendor, _ := s.vendor(p.ID)
		providers[i].APIKey = vs.APIKey
		if vs.Model != "" {
			providers[i].Model = vs.Model
		}
		providers[i].BaseURL = vs.BaseURL
		if string(vendor) == s.ActiveProvider {
			active = p.ID
		}
	}
	return providers, active
}

// SetActive records the provider with the given id as active.
func (s *Settings) SetActive(id string) error {
	_, vendor, ok := s.vendor(id)
	if !ok {
		return fmt.Errorf("unknown provider %q", id)
	}
	s.ActiveProvider = string(vendor)
	return nil
}

// ApplyProvider copies a provider record's credential, model and endpoint
// back into the settings.
func (s *Settings) ApplyProvider(p ai.ProviderConfig) error {
	vs, _, ok := s.vendor(p.ID)
	if !ok {
		return fmt.Errorf("unknown provider %q", p.ID)
	}
	vs.APIKey = p.APIKey
	vs.Model = p.Model
	vs.BaseURL = p.BaseURL
	return nil
}
