package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/depinfer/pkg/report"
)

// ReportCommand holds the flags of the report command.
type ReportCommand struct {
	opts    *globalOptions
	format  string
	noColor bool
}

func newReportCommand(opts *globalOptions) *cobra.Command {
	rc := &ReportCommand{opts: opts}

	cmd := &cobra.Command{
		Use:   "report [root]",
		Short: "Print the inferred dependencies",
		Long:  "Analyze every module under root and print the inferred edges without touching any manifest.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.format, "format", report.FormatText, "Output format: text, json, yaml")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (rc *ReportCommand) run(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd, rc.opts, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	defer sess.close(ctx)

	analysis, err := sess.analyze(ctx)
	if err != nil {
		return err
	}

	return report.Write(cmd.OutOrStdout(), rc.format, report.NewSummary(sess.root, analysis, nil), rc.noColor)
}
