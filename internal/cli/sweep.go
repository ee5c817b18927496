package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/gensweep/internal/engine"
	"github.com/roach88/gensweep/internal/report"
)

// SweepReport is the output of the sweep and exec commands.
type SweepReport struct {
	engine.Result `yaml:",inline"`
}

func (r SweepReport) String() string {
	return report.Prefix + " " + r.Summary()
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete outputs the current build did not produce",
		Long: `Complete the generation opened by "start": every tracked output that was
not recorded in it is deleted, and directories left empty are pruned up to
the output root.

If the output root changed since the previous build, the old root is removed
instead (only when it lies inside the project root).

Example:
  gensweep sweep --output-root _site`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(rootOpts, cmd)
		},
	}
}

func runSweep(opts *RootOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	session, closeFn, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := resume(ctx, session); err != nil {
		return err
	}
	return sweepAndReport(opts, cmd, session)
}

func sweepAndReport(opts *RootOptions, cmd *cobra.Command, session *engine.Session) error {
	res, err := session.OnBuildComplete(commandContext(cmd))
	if err != nil {
		return WrapExitError(ExitFailure, "sweep failed", err)
	}
	opts.logger.Info("sweep complete",
		"generation", res.Generation,
		"files", res.FilesRemoved,
		"dirs", res.DirsRemoved,
		"records", res.RecordsRemoved,
		"root_changed", res.RootChanged,
	)
	return opts.formatter(cmd).Success(SweepReport{Result: res})
}
