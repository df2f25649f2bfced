package ai

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	requestTemperature = 0.3
	requestMaxTokens   = 2000
	azureAPIVersion    = "2023-05-15"
)

// openAIChat implements Adapter for OpenAI and Azure OpenAI, which share
// the chat completions wire format.
type openAIChat struct {
	client *openai.Client
	model  string
	label  string
}

var _ Adapter = (*openAIChat)(nil)

func newOpenAI(cfg ProviderConfig, base string, hc *http.Client) *openAIChat {
	c := openai.DefaultConfig(cfg.APIKey)
	c.BaseURL = base
	if hc != nil {
		c.HTTPClient = hc
	}
	return &openAIChat{client: openai.NewClientWithConfig(c), model: cfg.Model, label: "openai"}
}

// newAzure targets {base}/openai/deployments/{model}/chat/completions with
// the api-key header. The model name is the deployment name, unchanged.
func newAzure(cfg ProviderConfig, base string, hc *http.Client) *openAIChat {
	c := openai.DefaultAzureConfig(cfg.APIKey, base)
	c.APIVersion = azureAPIVersion
	c.AzureModelMapperFunc = func(model string) string { return model }
	if hc != nil {
		c.HTTPClient = hc
	}
	return &openAIChat{client: openai.NewClientWithConfig(c), model: cfg.Model, label: "azure openai"}
}

func (o *openAIChat) Complete(ctx context.Context, prompt string) (Completion, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: requestTemperature,
		MaxTokens:   requestMaxTokens,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("%s request failed: %w", o.label, err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("%s returned no choices", o.label)
	}
	return Completion{
		Text:   resp.Choices[0].Message.Content,
		Tokens: resp.Usage.TotalTokens,
	}, nil
}
