package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gensweep/internal/engine"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	All bool
}

// StatusReport is the output of the status command.
type StatusReport struct {
	Generation   int64         `json:"generation" yaml:"generation"`
	OutputRoot   string        `json:"output_root" yaml:"output_root"`
	RecordedRoot string        `json:"recorded_root" yaml:"recorded_root"`
	Live         int           `json:"live" yaml:"live"`
	Stale        int           `json:"stale" yaml:"stale"`
	Entries      []engine.Mark `json:"entries,omitempty" yaml:"entries,omitempty"`
}

func (r StatusReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generation:    %d\n", r.Generation)
	fmt.Fprintf(&b, "Output root:   %s\n", r.OutputRoot)
	fmt.Fprintf(&b, "Recorded root: %s\n", r.RecordedRoot)
	fmt.Fprintf(&b, "Live outputs:  %d\n", r.Live)
	fmt.Fprintf(&b, "Stale outputs: %d", r.Stale)
	for _, m := range r.Entries {
		fmt.Fprintf(&b, "\n  %6d  %s", m.Generation, m.Path)
	}
	return b.String()
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the ledger's generation and tracked outputs",
		Long: `Show the current generation, the recorded output root, and how many
tracked outputs belong to the current generation (live) or an earlier one
(stale, removed by the next sweep).

Example:
  gensweep status
  gensweep status --all --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "list every tracked output")

	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	session, closeFn, err := openSession(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeFn()

	g, err := session.Sequencer().Current(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read generation", err)
	}
	recorded, _, err := session.Sweeper().RecordedRoot(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read output root", err)
	}
	marks, err := session.Marks(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read ledger", err)
	}

	rep := StatusReport{
		Generation:   g,
		OutputRoot:   session.OutputRoot(),
		RecordedRoot: recorded,
	}
	for _, m := range marks {
		if m.Generation >= g {
			rep.Live++
		} else {
			rep.Stale++
		}
	}
	if opts.All {
		rep.Entries = marks
	}
	return opts.formatter(cmd).Success(rep)
}
