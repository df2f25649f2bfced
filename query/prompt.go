package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DachengChen/paiERP/intent"
)

const analysisInstructions = `Please provide:
1. Key insights from the data
2. Business recommendations
3. Potential risks or opportunities
4. Actionable next steps
5. Relevant visualizations to consider

Focus on providing value-added analysis that helps with business decision-making.`

// BuildPrompt renders the analysis prompt for a question and its intent.
func BuildPrompt(text string, in intent.Intent) string {
	params, err := json.Marshal(in.Parameters)
	if err != nil {
		params = []byte("{}")
	}

	var sb strings.Builder
	sb.WriteString("Analyze the following NetSuite query and provide intelligent insights:\n\n")
	fmt.Fprintf(&sb, "Original Query: %q\n", text)
	fmt.Fprintf(&sb, "Intent Type: %s\n", in.Type)
	fmt.Fprintf(&sb, "Action: %s\n", in.Action)
	fmt.Fprintf(&sb, "Entities: %s\n", strings.Join(in.Entities, ", "))
	fmt.Fprintf(&sb, "Parameters: %s\n\n", params)
	sb.WriteString(analysisInstructions)
	return sb.String()
}
