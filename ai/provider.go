// Package ai is the provider adapter between paiERP and LLM vendors.
//
// Design decisions:
//   - Exactly four vendors are supported (OpenAI, Claude, Gemini, Azure
//     OpenAI). Each has one Adapter implementation; there is no plugin
//     registration.
//   - Vendors do not reliably honor the requested JSON reply shape, so every
//     reply goes through ParseResponse, which falls back to plain text.
//   - The active provider is tracked by id on the Registry, never as a flag
//     on each record, so at most one provider can be active.
//   - All blocking calls accept a context.
package ai

import (
	"context"
	"strings"
)

// Vendor identifies one of the supported LLM vendors.
type Vendor string

const (
	VendorOpenAI Vendor = "openai"
	VendorClaude Vendor = "claude"
	VendorGemini Vendor = "gemini"
	VendorAzure  Vendor = "azure"
)

// SupportedVendors lists available vendors for display.
var SupportedVendors = []Vendor{VendorOpenAI, VendorClaude, VendorGemini, VendorAzure}

// VendorOf resolves a provider display name to its vendor,
// case-insensitively. ok is false for unknown names.
func VendorOf(name string) (Vendor, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openai":
		return VendorOpenAI, true
	case "claude", "anthropic":
		return VendorClaude, true
	case "gemini", "google gemini":
		return VendorGemini, true
	case "azure", "azure openai":
		return VendorAzure, true
	default:
		return "", false
	}
}

// ProviderConfig is one configured provider. Records are replaced
// wholesale by id; there is no partial update.
type ProviderConfig struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	APIKey string `json:"apiKey"`
	Model  string `json:"model"`

	// BaseURL overrides the vendor's default endpoint. For Azure it is the
	// resource endpoint; when empty the credential doubles as the base.
	BaseURL string `json:"baseUrl,omitempty"`

	CostPerToken float64 `json:"costPerToken"`
}

// Redacted returns a copy safe for display and logs.
func (p ProviderConfig) Redacted() ProviderConfig {
	switch {
	case p.APIKey == "":
	case len(p.APIKey) > 8:
		p.APIKey = "****" + p.APIKey[len(p.APIKey)-4:]
	default:
		p.APIKey = "****"
	}
	return p
}

// Completion is a vendor's raw text reply plus its token usage, when the
// vendor reports one.
type Completion struct {
	Text   string
	Tokens int
}

// Adapter sends one prompt to one vendor.
type Adapter interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}
