package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/depinfer/pkg/engine"
	"github.com/Sumatoshi-tech/depinfer/pkg/manifest"
	"github.com/Sumatoshi-tech/depinfer/pkg/report"
)

// GenerateCommand holds the flags of the generate command.
type GenerateCommand struct {
	opts    *globalOptions
	dryRun  bool
	format  string
	noColor bool
}

func newGenerateCommand(opts *globalOptions) *cobra.Command {
	gc := &GenerateCommand{opts: opts}

	cmd := &cobra.Command{
		Use:   "generate [root]",
		Short: "Rewrite the generated dependency block of every manifest",
		Long: `Analyze every module under root (default: current directory) and replace
the "dependencies { // GENERATED" block at the end of each manifest with
the inferred api, implementation and testImplementation edges.`,
		Args: cobra.MaximumNArgs(1),
		RunE: gc.run,
	}

	cmd.Flags().BoolVar(&gc.dryRun, "dry-run", false, "Print the changes without writing any manifest")
	cmd.Flags().StringVar(&gc.format, "format", report.FormatText, "Summary format: text, json, yaml")
	cmd.Flags().BoolVar(&gc.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (gc *GenerateCommand) run(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd, gc.opts, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	defer sess.close(ctx)

	analysis, err := sess.analyze(ctx)
	if err != nil {
		return err
	}

	outcome, applyErr := sess.engine.Apply(ctx, analysis, manifest.Patcher{DryRun: gc.dryRun})

	out := cmd.OutOrStdout()

	if gc.dryRun && gc.format == report.FormatText {
		writeErr := writeDiffs(out, outcome)
		if writeErr != nil {
			return writeErr
		}
	}

	writeErr := report.Write(out, gc.format, report.NewSummary(sess.root, analysis, &outcome), gc.noColor)
	if writeErr != nil {
		return writeErr
	}

	return applyErr
}

// writeDiffs prints the diff of every drifted manifest.
func writeDiffs(w io.Writer, outcome engine.Outcome) error {
	for _, change := range outcome.Drifted() {
		_, err := fmt.Fprintln(w, change.Diff)
		if err != nil {
			return fmt.Errorf("write diff: %w", err)
		}
	}

	return nil
}
