// Package assistant runs the full question pipeline: classify, synthesize,
// fetch ERP data, ask the AI provider and enrich the answer.
//
// Design decisions:
//   - The Assistant owns no state of its own beyond its collaborators;
//     concurrent Process calls are safe because the Registry is.
//   - Every failure surfaces as a *QueryError so callers print one prefix,
//     while errors.Is still reaches the cause (e.g. ai.ErrNoActiveProvider).
package assistant

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DachengChen/paiERP/ai"
	"github.com/DachengChen/paiERP/applog"
	"github.com/DachengChen/paiERP/erp"
	"github.com/DachengChen/paiERP/intent"
	"github.com/DachengChen/paiERP/query"
)

// QueryError wraps any failure of the pipeline.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return "Query processing failed: " + e.Err.Error()
}

func (e *QueryError) Unwrap() error { return e.Err }

// QueryAnalytics records one answered question.
type QueryAnalytics struct {
	QueryID        string          `json:"queryId"`
	OriginalQuery  string          `json:"originalQuery"`
	Category       intent.Category `json:"category"`
	ProcessingTime time.Duration   `json:"processingTime"`
	Provider       string          `json:"aiProvider"`
	Tokens         int             `json:"tokens"`
	Cost           float64         `json:"cost"`
	Timestamp      time.Time       `json:"timestamp"`
}

// Stream placeholder texts.
const (
	LoadingSummary = "Processing your query..."
	LoadingInsight = "Analyzing NetSuite data..."
	ErrorSummary   = "Error processing query"
)

// Assistant answers natural-language ERP questions.
type Assistant struct {
	registry *ai.Registry
	executor *erp.Executor

	// OnAnalytics, when set, receives a record for every answered question.
	OnAnalytics func(QueryAnalytics)

	now func() time.Time
}

// New creates an assistant over a provider registry and a backend executor.
func New(registry *ai.Registry, executor *erp.Executor) *Assistant {
	return &Assistant{registry: registry, executor: executor, now: time.Now}
}

// Process answers text. providerID selects a provider explicitly; empty
// means the active one. userContext is passed to the provider verbatim.
func (a *Assistant) Process(ctx context.Context, text string, userContext any, providerID string) (ai.Response, error) {
	start := a.now()
	processed := query.Process(text)
	data := a.executor.Run(ctx, processed.Queries)

	if userContext == nil {
		userContext = map[string]any{}
	}
	promptData := map[string]any{
		"originalQuery": processed.OriginalQuery,
		"intent":        processed.Intent,
		"netSuiteData":  data,
		"userContext":   userContext,
	}

	res, err := a.registry.Complete(ctx, processed.Prompt, promptData, providerID)
	if err != nil {
		applog.L().Error("query processing failed",
			zap.String("query", text),
			zap.String("category", string(processed.Intent.Type)),
			zap.Error(err),
		)
		return ai.Response{}, &QueryError{Err: err}
	}

	resp := enrichAt(res.Response, data, processed, a.now())

	if a.OnAnalytics != nil {
		a.OnAnalytics(QueryAnalytics{
			QueryID:        uuid.NewString(),
			OriginalQuery:  text,
			Category:       processed.Intent.Type,
			ProcessingTime: a.now().Sub(start),
			Provider:       res.Usage.ProviderID,
			Tokens:         res.Usage.Tokens,
			Cost:           res.Usage.Cost,
			Timestamp:      start,
		})
	}
	return resp, nil
}

// ProcessStream is Process with two-phase updates: onUpdate first receives
// a loading placeholder, then either the final response or an error
// placeholder. The error is also returned.
func (a *Assistant) ProcessStream(ctx context.Context, text string, userContext any, providerID string, onUpdate func(ai.Response)) (ai.Response, error) {
	onUpdate(placeholder(LoadingSummary, LoadingInsight, true))

	resp, err := a.Process(ctx, text, userContext, providerID)
	if err != nil {
		onUpdate(placeholder(ErrorSummary, "Error: "+err.Error(), false))
		return ai.Response{}, err
	}

	done := false
	resp.IsLoading = &done
	onUpdate(resp)
	return resp, nil
}

func placeholder(summary, insight string, loading bool) ai.Response {
	return ai.Response{
		Data:            map[string]any{},
		Insights:        []string{insight},
		Visualizations:  []ai.Visualization{},
		Summary:         summary,
		Recommendations: []string{},
		IsLoading:       &loading,
	}
}

// Validate checks a question before it is processed.
func (a *Assistant) Validate(text string) intent.ValidationResult {
	return intent.Validate(text)
}

// UpdateProvider replaces a provider record by id.
func (a *Assistant) UpdateProvider(p ai.ProviderConfig) { a.registry.Update(p) }

// SetActiveProvider makes id the active provider.
func (a *Assistant) SetActiveProvider(id string) error { return a.registry.SetActive(id) }

// Providers returns every provider record.
func (a *Assistant) Providers() []ai.ProviderConfig { return a.registry.All() }

// ActiveProvider returns the active provider record.
func (a *Assistant) ActiveProvider() (ai.ProviderConfig, bool) { return a.registry.Active() }

// SetUseCORSProxy toggles the development relay.
func (a *Assistant) SetUseCORSProxy(on bool) { a.registry.SetUseCORSProxy(on) }

// UseCORSProxy reports whether the development relay is on.
func (a *Assistant) UseCORSProxy() bool { return a.registry.UseCORSProxy() }
