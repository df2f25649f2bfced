package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/DachengChen/paiERP/applog"
)

// DefaultCORSProxy is the development relay prefixed to vendor URLs when
// the CORS proxy setting is on.
const DefaultCORSProxy = "https://cors-anywhere.herokuapp.com/"

// Endpoints holds the base URL of each vendor. Azure has no default: its
// base comes from the provider record.
type Endpoints struct {
	OpenAI string
	Claude string
	Gemini string
}

// DefaultEndpoints returns the public vendor endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		OpenAI: "https://api.openai.com/v1",
		Claude: "https://api.anthropic.com",
		Gemini: "https://generativelanguage.googleapis.com",
	}
}

// DefaultProviders returns the built-in provider records, none active and
// none with a credential.
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{ID: "openai-1", Name: "OpenAI", Model: "gpt-4", CostPerToken: 0.03},
		{ID: "claude-1", Name: "Claude", Model: "claude-3-sonnet-20240229", CostPerToken: 0.015},
		{ID: "gemini-1", Name: "Google Gemini", Model: "gemini-1.5-pro", CostPerToken: 0.01},
		{ID: "azure-1", Name: "Azure OpenAI", Model: "gpt-4", CostPerToken: 0.03},
	}
}

// Usage describes one completed vendor call.
type Usage struct {
	ProviderID string
	Vendor     Vendor
	Tokens     int
	Cost       float64
	Elapsed    time.Duration
}

// Result is a normalized response plus the usage of the call behind it.
type Result struct {
	Response Response
	Usage    Usage
}

// Option configures a Registry.
type Option func(*Registry)

// WithEndpoints overrides the vendor base URLs.
func WithEndpoints(e Endpoints) Option {
	return func(r *Registry) { r.endpoints = e }
}

// WithHTTPClient sets the client used for vendor calls.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Registry) { r.httpClient = c }
}

// WithCORSProxy sets the relay base used when the proxy is enabled.
func WithCORSProxy(base string) Option {
	return func(r *Registry) { r.proxyBase = base }
}

// WithObserver registers a callback invoked after every successful call.
func WithObserver(fn func(Usage)) Option {
	return func(r *Registry) { r.observer = fn }
}

// Registry holds provider records and the active provider id. It is safe
// for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	order     []string
	providers map[string]ProviderConfig
	activeID  string
	useProxy  bool

	proxyBase  string
	endpoints  Endpoints
	httpClient *http.Client
	observer   func(Usage)
}

// NewRegistry creates a registry holding providers in the given order.
func NewRegistry(providers []ProviderConfig, opts ...Option) *Registry {
	r := &Registry{
		providers: make(map[string]ProviderConfig, len(providers)),
		proxyBase: DefaultCORSProxy,
		endpoints: DefaultEndpoints(),
	}
	for _, p := range providers {
		r.put(p)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) put(p ProviderConfig) {
	if _, ok := r.providers[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.providers[p.ID] = p
}

// Update replaces the record with the same id, or inserts it.
func (r *Registry) Update(p ProviderConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(p)
}

// SetActive makes id the active provider, deactivating any other.
func (r *Registry) SetActive(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[id]; !ok {
		return fmt.Errorf("%w: unknown provider %q", ErrNoActiveProvider, id)
	}
	r.activeID = id
	return nil
}

// ActiveID returns the active provider id, or "" when none is active.
func (r *Registry) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// Active returns the active provider record.
func (r *Registry) Active() (ProviderConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[r.activeID]
	return p, ok
}

// Get returns the record with the given id.
func (r *Registry) Get(id string) (ProviderConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// All returns every record in insertion order.
func (r *Registry) All() []ProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ProviderConfig, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.providers[id])
	}
	return out
}

// SetUseCORSProxy toggles the development relay for all vendors.
func (r *Registry) SetUseCORSProxy(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.useProxy = on
}

// UseCORSProxy reports whether the relay is enabled.
func (r *Registry) UseCORSProxy() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.useProxy
}

// Send builds the prompt for query and promptData, dispatches it to the
// provider with the given id (or the active one when id is empty) and
// normalizes the reply.
func (r *Registry) Send(ctx context.Context, query string, promptData any, providerID string) (Response, error) {
	res, err := r.Complete(ctx, query, promptData, providerID)
	if err != nil {
		return Response{}, err
	}
	return res.Response, nil
}

// Complete is Send plus the usage of the call.
func (r *Registry) Complete(ctx context.Context, query string, promptData any, providerID string) (Result, error) {
	cfg, adapter, vendor, err := r.resolve(providerID)
	if err != nil {
		return Result{}, err
	}

	prompt := BuildPrompt(query, promptData)
	applog.AIRequest("Send", cfg.Name, map[string]string{
		"provider_id": cfg.ID,
		"model":       cfg.Model,
		"prompt":      prompt,
	})

	start := time.Now()
	out, err := adapter.Complete(ctx, prompt)
	elapsed := time.Since(start)
	applog.AIResponse("Send", cfg.Name, out.Text, err, elapsed)
	if err != nil {
		return Result{}, &ProcessingError{Provider: cfg.ID, Err: err}
	}

	usage := Usage{
		ProviderID: cfg.ID,
		Vendor:     vendor,
		Tokens:     out.Tokens,
		Cost:       float64(out.Tokens) * cfg.CostPerToken,
		Elapsed:    elapsed,
	}
	if r.observer != nil {
		r.observer(usage)
	}
	return Result{Response: ParseResponse(out.Text), Usage: usage}, nil
}

// resolve snapshots the provider and builds its adapter under the read
// lock so a concurrent Update cannot tear the record.
func (r *Registry) resolve(providerID string) (ProviderConfig, Adapter, Vendor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id := providerID
	if id == "" {
		id = r.activeID
	}
	cfg, ok := r.providers[id]
	if !ok {
		if providerID != "" {
			return cfg, nil, "", fmt.Errorf("%w: unknown provider %q", ErrNoActiveProvider, providerID)
		}
		return cfg, nil, "", ErrNoActiveProvider
	}

	vendor, ok := VendorOf(cfg.Name)
	if !ok {
		return cfg, nil, "", unsupported(cfg.Name)
	}
	if cfg.APIKey == "" {
		return cfg, nil, vendor, fmt.Errorf("%w: %s", ErrMissingCredential, cfg.Name)
	}

	base := cfg.BaseURL
	var adapter Adapter
	switch vendor {
	case VendorOpenAI:
		if base == "" {
			base = r.endpoints.OpenAI
		}
		adapter = newOpenAI(cfg, r.routed(base), r.httpClient)
	case VendorAzure:
		if base == "" {
			base = cfg.APIKey
		}
		adapter = newAzure(cfg, r.routed(base), r.httpClient)
	case VendorClaude:
		if base == "" {
			base = r.endpoints.Claude
		}
		adapter = newClaude(cfg, r.routed(base), r.httpClient)
	case VendorGemini:
		if base == "" {
			base = r.endpoints.Gemini
		}
		adapter = newGemini(cfg, r.routed(base), r.httpClient)
	default:
		return cfg, nil, vendor, unsupported(cfg.Name)
	}
	return cfg, adapter, vendor, nil
}

func (r *Registry) routed(url string) string {
	if !r.useProxy {
		return url
	}
	return strings.TrimRight(r.proxyBase, "/") + "/" + url
}
