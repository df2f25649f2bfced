package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DachengChen/paiERP/ai"
)

var (
	askProvider string
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question and exit",
	Example: `  paierp ask "What's our cash flow this quarter?"
  paierp ask --provider claude-1 --json "Who are our top customers?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		rt, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer rt.Close()

		if v := rt.assistant.Validate(question); !v.Valid {
			return errors.New(strings.Join(v.Errors, "; "))
		}

		resp, err := rt.assistant.Process(cmd.Context(), question, nil, askProvider)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if askJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}
		printAnswer(out, resp)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askProvider, "provider", "", "provider id to use instead of the active one")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full response as JSON")
}

func printAnswer(w io.Writer, resp ai.Response) {
	fmt.Fprintln(w, resp.Summary)
	if len(resp.Insights) > 0 {
		fmt.Fprintln(w, "\nInsights:")
		for _, s := range resp.Insights {
			fmt.Fprintf(w, "  • %s\n", s)
		}
	}
	if len(resp.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, s := range resp.Recommendations {
			fmt.Fprintf(w, "  → %s\n", s)
		}
	}
	if len(resp.Visualizations) > 0 {
		fmt.Fprintln(w, "\nCharts:")
		for _, v := range resp.Visualizations {
			fmt.Fprintf(w, "  [%s] %s\n", v.Type, v.Title)
		}
	}
}
