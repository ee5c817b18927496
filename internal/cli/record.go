package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/gensweep/internal/engine"
	"github.com/roach88/gensweep/internal/report"
)

// recordConcurrency bounds in-flight Record calls.
const recordConcurrency = 16

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Stdin bool
}

// RecordResult is the output of the record command.
type RecordResult struct {
	Generation int64 `json:"generation" yaml:"generation"`
	Recorded   int   `json:"recorded" yaml:"recorded"`
}

func (r RecordResult) String() string {
	return fmt.Sprintf("Recorded %s in generation %d", report.Files(r.Recorded), r.Generation)
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record [paths...]",
		Short: "Mark output files as produced by the current build",
		Long: `Record output paths under the generation opened by "start".

Paths are relative to the project root unless absolute. With --stdin, one
path per line is read from standard input as well.

Example:
  gensweep record _site/index.html _site/about/index.html
  find _site -type f | gensweep record --stdin`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Stdin, "stdin", false, "also read newline-separated paths from stdin")

	return cmd
}

func runRecord(opts *RecordOptions, args []string, cmd *cobra.Command) error {
	paths := append([]string(nil), args...)
	if opts.Stdin {
		more, err := readPaths(cmd.InOrStdin())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read stdin", err)
		}
		paths = append(paths, more...)
	}
	if len(paths) == 0 {
		return NewExitError(ExitCommandError, "no output paths given")
	}

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

	return opts.formatter(cmd).Success(RecordResult{
		Generation: session.Generation(),
		Recorded:   len(paths),
	})
}

// recordAll records paths concurrently in the session's generation.
func recordAll(ctx context.Context, opts *RootOptions, session *engine.Session, paths []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recordConcurrency)
	for _, p := range paths {
		g.Go(func() error {
			opts.logger.Debug("recording output", "path", p)
			return session.OnOutputProduced(gctx, p)
		})
	}
	if err := g.Wait(); err != nil {
		if engine.IsInvalidPath(err) {
			return WrapExitError(ExitCommandError, "invalid output path", err)
		}
		return WrapExitError(ExitFailure, "failed to record outputs", err)
	}
	return nil
}

// readPaths returns the non-blank lines of r. Surrounding whitespace is
// kept; only a trailing CR is dropped.
func readPaths(r io.Reader) ([]string, error) {
	var paths []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		paths = append(paths, line)
	}
	return paths, sc.Err()
}
