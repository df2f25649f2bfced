package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List or select AI providers",
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured providers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		providers, active := settings.Providers()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "\tID\tNAME\tMODEL\tAPI KEY\tCOST/TOKEN")
		for _, p := range providers {
			marker := ""
			if p.ID == active {
				marker = "*"
			}
			key := p.Redacted().APIKey
			if key == "" {
				key = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%g\n", marker, p.ID, p.Name, p.Model, key, p.CostPerToken)
		}
		return tw.Flush()
	},
}

var providersUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Make a provider the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if err := settings.SetActive(args[0]); err != nil {
			return err
		}
		if err := settings.Save(); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "active provider: %s (%s)\n", args[0], settings.Path())
		return nil
	},
}

func init() {
	providersCmd.AddCommand(providersListCmd, providersUseCmd)
}
