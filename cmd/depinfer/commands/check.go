package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/depinfer/pkg/manifest"
)

// ErrManifestDrift is returned by check when a manifest is out of date.
var ErrManifestDrift = errors.New("manifests are out of date")

// CheckCommand holds the flags of the check command.
type CheckCommand struct {
	opts   *globalOptions
	noDiff bool
}

func newCheckCommand(opts *globalOptions) *cobra.Command {
	cc := &CheckCommand{opts: opts}

	cmd := &cobra.Command{
		Use:   "check [root]",
		Short: "Fail when any manifest is out of date",
		Long: `Analyze every module under root without writing anything. Prints a diff
for each manifest whose generated block differs from the inferred one and
exits non-zero when there is any.`,
		Args: cobra.MaximumNArgs(1),
		RunE: cc.run,
	}

	cmd.Flags().BoolVar(&cc.noDiff, "no-diff", false, "Only report the drifted modules")

	return cmd
}

func (cc *CheckCommand) run(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd, cc.opts, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	defer sess.close(ctx)

	analysis, err := sess.analyze(ctx)
	if err != nil {
		return err
	}

	outcome, applyErr := sess.engine.Apply(ctx, analysis, manifest.Patcher{DryRun: true})
	if applyErr != nil {
		return applyErr
	}

	drifted := outcome.Drifted()
	if len(drifted) == 0 {
		_, writeErr := fmt.Fprintf(cmd.OutOrStdout(), "%d manifests up to date\n", len(outcome.Changes))
		if writeErr != nil {
			return fmt.Errorf("write summary: %w", writeErr)
		}

		return nil
	}

	if !cc.noDiff {
		writeErr := writeDiffs(cmd.OutOrStdout(), outcome)
		if writeErr != nil {
			return writeErr
		}
	}

	modules := make([]string, 0, len(drifted))
	for _, change := range drifted {
		modules = append(modules, change.Module)
	}

	return fmt.Errorf("%w: %v", ErrManifestDrift, modules)
}
