package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// StartResult is the output of the start command.
type StartResult struct {
	Generation int64 `json:"generation" yaml:"generation"`
}

func (r StartResult) String() string {
	return fmt.Sprintf("Started generation %d", r.Generation)
}

// NewStartCommand creates the start command.
func NewStartCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Begin a new build generation",
		Long: `Advance the generation counter. Every output recorded until the next
"sweep" belongs to the new generation.

Example:
  gensweep start`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(rootOpts, cmd)
		},
	}
}

func runStart(opts *RootOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	session, closeFn, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	g, err := session.OnBuildStart(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to start generation", err)
	}
	opts.logger.Info("build started", "generation", g)
	return opts.formatter(cmd).Success(StartResult{Generation: g})
}
