package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/gensweep/internal/engine"
	"github.com/roach88/gensweep/internal/store"
)

// openSession opens the ledger named by the loaded config and builds a
// session over it. The returned func closes the ledger, flushing buffered
// marks.
func openSession(ctx context.Context, opts *RootOptions) (*engine.Session, func(), error) {
	path, err := opts.config.LedgerPath()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to resolve ledger path", err)
	}

	opts.logger.Debug("opening ledger", "path", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	closeFn := func() {
		if closeErr := st.Close(); closeErr != nil {
			opts.logger.Error("error closing ledger", "error", closeErr)
		}
	}

	session, err := engine.NewSession(ctx, st, engine.Config{
		ProjectRoot: opts.config.ProjectRoot,
		OutputRoot:  opts.config.OutputRoot,
		Logger:      opts.logger,
	})
	if err != nil {
		closeFn()
		if engine.IsInvalidPath(err) {
			return nil, nil, WrapExitError(ExitCommandError, "invalid output root", err)
		}
		return nil, nil, WrapExitError(ExitCommandError, "failed to start session", err)
	}
	return session, closeFn, nil
}

// resume adopts the generation opened by an earlier "start".
func resume(ctx context.Context, session *engine.Session) error {
	if _, err := session.Resume(ctx); err != nil {
		if errors.Is(err, engine.ErrNoGeneration) {
			return WrapExitError(ExitCommandError, `no build in progress; run "gensweep start" first`, err)
		}
		return WrapExitError(ExitCommandError, "failed to read generation", err)
	}
	return nil
}

// commandContext returns the command's context, or Background when the
// command is executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
