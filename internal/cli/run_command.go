package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/supernan/redub/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		start      float64
		end        float64
		outDir     string
		force      bool
		synthesize bool
	)

	cmd := &cobra.Command{
		Use:   "run <video>",
		Short: "Dub one clip of a video",
		Long: "Run cuts the requested range out of the video, transcribes it, " +
			"translates the transcript, and optionally synthesizes dubbed speech. " +
			"Re-running the same range resumes from the artifacts already on disk.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			input, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			res, err := pipeline.Run(cmd.Context(), pipeline.Config{
				App:        cfg,
				Input:      input,
				Start:      start,
				End:        end,
				OutDir:     outDir,
				Force:      force,
				Synthesize: synthesize,
				Logger:     ctx.log(),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s complete\n", res.RunID)
			fmt.Fprintf(out, "  clip:       %s\n", res.ClipPath)
			fmt.Fprintf(out, "  audio:      %s\n", res.AudioPath)
			fmt.Fprintf(out, "  transcript: %s (%d segments kept, %d rejected)\n",
				res.TranscriptPath, len(res.Transcript.Segments), res.GateStats.Rejected)
			fmt.Fprintf(out, "  translated: %s (%d segments)\n",
				res.TranslationPath, len(res.Translation.Segments))
			if res.DubPath != "" {
				fmt.Fprintf(out, "  dub:        %s\n", res.DubPath)
			}
			if len(res.Skipped) > 0 {
				fmt.Fprintf(out, "  resumed from artifacts: %s\n", strings.Join(res.Skipped, ", "))
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&start, "start", 0, "Clip start in seconds")
	cmd.Flags().Float64Var(&end, "end", 0, "Clip end in seconds")
	cmd.Flags().StringVarP(&outDir, "outdir", "o", "", "Artifact directory (default: derived from input name and range)")
	cmd.Flags().BoolVar(&force, "force", false, "Recompute every stage even when its artifact exists")
	cmd.Flags().BoolVar(&synthesize, "synthesize", false, "Synthesize dubbed speech after translation")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}
