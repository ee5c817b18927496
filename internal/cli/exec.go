package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/gensweep/internal/fsutil"
	"github.com/roach88/gensweep/internal/watch"
)

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exec -- <command> [args...]",
		Short: "Run a build command and clean up after it",
		Long: `Start a generation, run the build command in the project root while
watching the output root, record every file it creates or writes along with
the configured passthrough copies, and sweep once it exits successfully.

A failed build command is never followed by a sweep; its exit code is
passed through.

Example:
  gensweep exec -- hugo --destination _site
  gensweep --output-root dist exec -- npm run build`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(rootOpts, args, cmd)
		},
	}
}

func runExec(opts *RootOptions, args []string, cmd *cobra.Command) error {
	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	passthroughPaths, err := resolvePassthrough(opts)
	if err != nil {
		return err
	}

	session, closeFn, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	g, err := session.OnBuildStart(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to start generation", err)
	}
	opts.logger.Info("build started", "generation", g, "command", args[0])

	ledgerPath, err := opts.config.LedgerPath()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve ledger path", err)
	}
	ledgerDir := filepath.Dir(ledgerPath)

	outputAbs := fsutil.Resolve(session.ProjectRoot(), session.OutputRoot())
	w, err := watch.New(outputAbs, func(path string) error {
		// An output root that contains the ledger must not track it.
		if fsutil.IsInsideOrSame(path, ledgerDir) {
			return nil
		}
		opts.logger.Debug("recording output", "path", path)
		return session.OnOutputProduced(ctx, path)
	}, opts.logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to watch output root", err)
	}

	runErr := runBuild(ctx, cmd, opts, session.ProjectRoot(), args)

	if err := w.Stop(); err != nil {
		return WrapExitError(ExitFailure, "failed to record outputs", err)
	}
	opts.logger.Debug("outputs recorded", "watched", w.Seen(), "passthrough", len(passthroughPaths))

	if runErr != nil {
		opts.logger.Warn("build command failed; skipping sweep", "generation", g, "error", runErr)
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) && exitErr.ExitCode() > 0 {
			return WrapExitError(exitErr.ExitCode(), "build command failed", runErr)
		}
		return WrapExitError(ExitFailure, "build command failed", runErr)
	}

	if err := recordAll(ctx, opts, session, passthroughPaths); err != nil {
		return err
	}
	return sweepAndReport(opts, cmd, session)
}

// runBuild runs the build command in dir. Its stdout is passed through
// unless structured output would be corrupted by it.
func runBuild(ctx context.Context, cmd *cobra.Command, opts *RootOptions, dir string, args []string) error {
	build := exec.CommandContext(ctx, args[0], args[1:]...)
	build.Dir = dir
	build.Stdin = cmd.InOrStdin()
	build.Stdout = cmd.OutOrStdout()
	if opts.Format != "text" {
		build.Stdout = cmd.ErrOrStderr()
	}
	build.Stderr = cmd.ErrOrStderr()

	if err := build.Run(); err != nil {
		return fmt.Errorf("run %s: %w", args[0], err)
	}
	return nil
}
