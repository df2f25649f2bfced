package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// gemini implements Adapter for the Google Gemini generateContent API.
type gemini struct {
	client *resty.Client
	url    string
	apiKey string
}

var _ Adapter = (*gemini)(nil)

func newGemini(cfg ProviderConfig, base string, hc *http.Client) *gemini {
	return &gemini{
		client: newRestyClient(hc),
		url:    fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(base, "/"), cfg.Model),
		apiKey: cfg.APIKey,
	}
}

func (g *gemini) Complete(ctx context.Context, prompt string) (Completion, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":     requestTemperature,
			"maxOutputTokens": requestMaxTokens,
		},
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", g.apiKey).
		SetBody(body).
		Post(g.url)
	if err != nil {
		return Completion{}, fmt.Errorf("gemini request failed: %w", err)
	}
	if resp.IsError() {
		return Completion{}, fmt.Errorf("gemini API error (%d): %s", resp.StatusCode(), resp.String())
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		UsageMetadata struct {
			TotalTokenCount int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return Completion{}, fmt.Errorf("gemini parse error: %w", err)
	}
	if len(result.Candidates) == 0 {
		return Completion{}, fmt.Errorf("gemini returned no candidates")
	}

	var b strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return Completion{Text: b.String(), Tokens: result.UsageMetadata.TotalTokenCount}, nil
}
