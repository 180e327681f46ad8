package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/supernan/redub/internal/runlog"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status [run-id]",
		Short: "Show recorded runs and their stage outcomes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := runlog.Open(cfg.Paths.LedgerPath)
			if err != nil {
				return fmt.Errorf("open run ledger: %w", err)
			}
			defer func() { _ = store.Close() }()

			if len(args) == 1 {
				return printRunDetail(cmd, store, args[0])
			}
			return printRunList(cmd, store, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to list")
	return cmd
}

func printRunList(cmd *cobra.Command, store *runlog.Store, limit int) error {
	runs, err := store.LatestRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No recorded runs")
		return nil
	}
	rows := make([]table.Row, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, table.Row{
			shortID(run.ID),
			filepath.Base(run.Input),
			fmt.Sprintf("%s→%s", run.SourceLang, run.TargetLang),
			string(run.Status),
			run.CreatedAt.UTC().Format("2006-01-02 15:04"),
		})
	}
	fmt.Fprintln(out, renderTable(table.Row{"Run", "Input", "Route", "Status", "Created"}, rows))
	return nil
}

func printRunDetail(cmd *cobra.Command, store *runlog.Store, idOrPrefix string) error {
	run, err := store.FindRun(cmd.Context(), idOrPrefix)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("no recorded run matches %q", idOrPrefix)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-8s %s\n", "Run:", run.ID)
	fmt.Fprintf(out, "%-8s %s\n", "Input:", run.Input)
	fmt.Fprintf(out, "%-8s %s\n", "Output:", run.OutDir)
	fmt.Fprintf(out, "%-8s %s→%s (%s)\n", "Route:", run.SourceLang, run.TargetLang, run.Strategy)
	fmt.Fprintf(out, "%-8s %s\n", "Status:", run.Status)
	if run.Error != "" {
		fmt.Fprintf(out, "%-8s %s\n", "Error:", run.Error)
	}

	stages, err := store.StagesForRun(cmd.Context(), run.ID)
	if err != nil {
		return err
	}
	if len(stages) == 0 {
		fmt.Fprintln(out, "No stage records")
		return nil
	}
	rows := make([]table.Row, 0, len(stages))
	for _, rec := range stages {
		rows = append(rows, table.Row{
			rec.Name,
			string(rec.Status),
			stageDuration(rec),
			gateCounts(rec),
			rec.Detail,
		})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(table.Row{"Stage", "Status", "Duration", "Kept/Rejected", "Detail"}, rows, 3))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func stageDuration(rec runlog.StageRecord) string {
	if rec.StartedAt.IsZero() || rec.FinishedAt.IsZero() {
		return "-"
	}
	return rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond).String()
}

// gateCounts formats the quality gate tally; only the transcription
// stage ever has one.
func gateCounts(rec runlog.StageRecord) string {
	if rec.Kept == 0 && rec.Rejected == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", rec.Kept, rec.Rejected)
}
