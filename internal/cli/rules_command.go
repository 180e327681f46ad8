package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/supernan/redub/internal/config"
	"github.com/supernan/redub/internal/domain/normalize"
)

func newRulesCommand(ctx *commandContext) *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the normalization rule table",
	}
	rulesCmd.AddCommand(newRulesShowCommand(ctx))
	rulesCmd.AddCommand(newRulesCheckCommand(ctx))
	return rulesCmd
}

func newRulesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active rule table in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tbl, source, err := loadRuleTable(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s, %d rules\n", source, tbl.Len())
			rows := make([]table.Row, 0, tbl.Len())
			for i, rule := range tbl.Rules() {
				rows = append(rows, table.Row{i + 1, rule.From, rule.To})
			}
			fmt.Fprintln(out, renderTable(table.Row{"#", "From", "To"}, rows, 1))
			return nil
		},
	}
}

func newRulesCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the rule table applies idempotently",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tbl, source, err := loadRuleTable(cfg)
			if err != nil {
				return err
			}
			conflicts := tbl.Validate()
			out := cmd.OutOrStdout()
			if len(conflicts) == 0 {
				fmt.Fprintf(out, "%s, %d rules, no conflicts\n", source, tbl.Len())
				return nil
			}
			for _, conflict := range conflicts {
				fmt.Fprintln(out, conflict.String())
			}
			return fmt.Errorf("%d conflicts in %s", len(conflicts), source)
		},
	}
}

func loadRuleTable(cfg *config.Config) (normalize.Table, string, error) {
	if cfg.Normalize.RulesFile == "" {
		return normalize.Default(), "built-in table", nil
	}
	tbl, err := normalize.Load(cfg.Normalize.RulesFile)
	if err != nil {
		return normalize.Table{}, "", err
	}
	return tbl, cfg.Normalize.RulesFile, nil
}
