package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Record bool
}

// ResolveResult is the output of the resolve command.
type ResolveResult struct {
	Paths    []string `json:"paths" yaml:"paths"`
	Recorded bool     `json:"recorded" yaml:"recorded"`
}

func (r ResolveResult) String() string {
	return strings.Join(r.Paths, "\n")
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the output paths of configured passthrough copies",
		Long: `Expand the passthrough entries of the config file into the output paths
they produce. Files copied verbatim are invisible to a renderer, so hosts
record them with --record during a build.

Example:
  gensweep resolve
  gensweep start && gensweep resolve --record`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Record, "record", false, "record the paths in the current generation")

	return cmd
}

func runResolve(opts *ResolveOptions, cmd *cobra.Command) error {
	paths, err := resolvePassthrough(opts.RootOptions)
	if err != nil {
		return err
	}
	res := ResolveResult{Paths: paths}
	if paths == nil {
		res.Paths = []string{}
	}

	if opts.Record {
		ctx := commandContext(cmd)
		session, closeFn, err := openSession(ctx, opts.RootOptions)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := resume(ctx, session); err != nil {
			return err
		}
		if err := recordAll(ctx, opts.RootOptions, session, paths); err != nil {
			return err
		}
		res.Recorded = true
	}

	return opts.formatter(cmd).Success(res)
}

func resolvePassthrough(opts *RootOptions) ([]string, error) {
	resolver, err := opts.config.Resolver()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to resolve passthrough", err)
	}
	paths, err := resolver.ResolveAll(opts.config.Passthrough)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to resolve passthrough", err)
	}
	opts.logger.Debug("passthrough resolved", "specs", len(opts.config.Passthrough), "paths", len(paths))
	return paths, nil
}
