package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/depinfer/pkg/report"
)

const stdoutPath = "-"

// GraphCommand holds the flags of the graph command.
type GraphCommand struct {
	opts   *globalOptions
	output string
}

func newGraphCommand(opts *globalOptions) *cobra.Command {
	gc := &GraphCommand{opts: opts}

	cmd := &cobra.Command{
		Use:   "graph [root]",
		Short: "Render the module graph as HTML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  gc.run,
	}

	cmd.Flags().StringVarP(&gc.output, "output", "o", "deps.html", `Output HTML file ("-" for stdout)`)

	return cmd
}

func (gc *GraphCommand) run(cmd *cobra.Command, args []string) (err error) {
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

	if gc.output == stdoutPath {
		return report.WriteGraph(cmd.OutOrStdout(), analysis.Dependencies)
	}

	fd, createErr := os.Create(gc.output)
	if createErr != nil {
		return fmt.Errorf("create %s: %w", gc.output, createErr)
	}

	defer func() {
		closeErr := fd.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("close %s: %w", gc.output, closeErr)
		}
	}()

	writeErr := report.WriteGraph(fd, analysis.Dependencies)
	if writeErr != nil {
		return writeErr
	}

	sess.providers.Logger.InfoContext(ctx, "graph written", "path", gc.output)

	return nil
}
