package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/supernan/redub/internal/domain/subtitles"
	"github.com/supernan/redub/internal/transcript"
	"github.com/supernan/redub/internal/workflow"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <run-dir|translated.json>",
		Short: "Render a translation artifact as subtitles",
		Long: "Export reads a run's translated.json and writes an SRT or WebVTT " +
			"file next to it. Cue times come from the clip-local segment spans; " +
			"segments without target text are skipped.",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := subtitles.ParseFormat(format)
			if err != nil {
				return err
			}

			path := args[0]
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				path = filepath.Join(path, workflow.TranslationFileName)
			}
			tl, err := transcript.ReadTranslation(path)
			if err != nil {
				return err
			}

			doc, err := subtitles.Render(tl, f)
			if err != nil {
				return err
			}
			outPath := strings.TrimSuffix(path, filepath.Ext(path)) + f.Extension()
			if err := os.WriteFile(outPath, []byte(doc), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d cues)\n", outPath, cueCount(tl))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "srt", "Subtitle format (srt or vtt)")
	return cmd
}

func cueCount(tl transcript.Translation) int {
	n := 0
	for _, seg := range tl.Segments {
		if strings.TrimSpace(seg.TargetText) != "" {
			n++
		}
	}
	return n
}
