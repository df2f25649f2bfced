package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// System prompt sent with OpenAI-style chat requests.
const systemPrompt = "You are a NetSuite ERP expert assistant. Provide accurate, actionable insights."

const promptPreamble = "You are an intelligent NetSuite ERP assistant. Analyze the following query and provide insights, data analysis, and recommendations."

const responseShape = `Please provide a comprehensive response in the following JSON format:
{
  "data": {},
  "insights": ["insight1", "insight2"],
  "summary": "Brief summary of findings",
  "recommendations": ["recommendation1", "recommendation2"],
  "visualizations": [
    {
      "type": "bar|line|pie|table|kpi",
      "title": "Chart Title",
      "data": []
    }
  ]
}`

// BuildPrompt renders the single prompt sent to every vendor. data is
// serialized as indented JSON; a value that cannot be serialized is
// rendered with %v.
func BuildPrompt(query string, data any) string {
	ctxText := "{}"
	if data != nil {
		if b, err := json.MarshalIndent(data, "", "  "); err == nil {
			ctxText = string(b)
		} else {
			ctxText = fmt.Sprintf("%v", data)
		}
	}

	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n\nQuery: \"")
	b.WriteString(query)
	b.WriteString("\"\n\nContext: ")
	b.WriteString(ctxText)
	b.WriteString("\n\n")
	b.WriteString(responseShape)
	return b.String()
}
