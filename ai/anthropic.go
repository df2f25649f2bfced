package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

const anthropicVersion = "2023-06-01"

// claude implements Adapter for the Anthropic Messages API.
type claude struct {
	client *resty.Client
	url    string
	apiKey string
	model  string
}

var _ Adapter = (*claude)(nil)

func newClaude(cfg ProviderConfig, base string, hc *http.Client) *claude {
	return &claude{
		client: newRestyClient(hc),
		url:    strings.TrimRight(base, "/") + "/v1/messages",
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

func (c *claude) Complete(ctx context.Context, prompt string) (Completion, error) {
	body := map[string]any{
		"model":      c.model,
		"max_tokens": requestMaxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-api-key", c.apiKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetBody(body).
		Post(c.url)
	if err != nil {
		return Completion{}, fmt.Errorf("claude request failed: %w", err)
	}
	if resp.IsError() {
		return Completion{}, fmt.Errorf("claude API error (%d): %s", resp.StatusCode(), resp.String())
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return Completion{}, fmt.Errorf("claude parse error: %w", err)
	}

	var parts []string
	for _, block := range result.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return Completion{}, fmt.Errorf("claude returned no text content")
	}
	return Completion{
		Text:   strings.Join(parts, ""),
		Tokens: result.Usage.InputTokens + result.Usage.OutputTokens,
	}, nil
}

func newRestyClient(hc *http.Client) *resty.Client {
	var c *resty.Client
	if hc != nil {
		c = resty.NewWithClient(hc)
	} else {
		c = resty.New()
	}
	return c.SetRetryCount(0)
}
