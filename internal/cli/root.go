package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/gensweep/internal/config"
)

// RootOptions holds global flags and the state every subcommand shares.
// The unexported fields are filled in by the root command before any
// subcommand runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "text" | "json" | "yaml"
	ConfigFile string

	viper  *viper.Viper
	config config.Config
	logger *slog.Logger
	runID  string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// flagKeys maps persistent flags onto config keys.
var flagKeys = []struct{ flag, key string }{
	{"project-root", config.KeyProjectRoot},
	{"output-root", config.KeyOutputRoot},
	{"input-root", config.KeyInputRoot},
	{"db", config.KeyDBPath},
}

// NewRootCommand creates the root command for the gensweep CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{viper: config.New()}

	cmd := &cobra.Command{
		Use:   "gensweep",
		Short: "gensweep - generational cleanup for build output directories",
		Long: `Tracks which files each build of a static site writes and deletes the
ones a later build no longer produces.

A build is bracketed by "start" and "sweep", with "record" in between for
every output file. "exec" does all three around a build command, watching
the output directory for written files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}

			cfg, err := config.Load(opts.viper, opts.ConfigFile)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			opts.config = cfg
			opts.runID = newRunID()
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.Format, opts.Verbose).With("run", opts.runID)
			opts.logger.Debug("config loaded",
				"project_root", cfg.ProjectRoot,
				"output_root", cfg.OutputRoot,
				"db_path", cfg.DBPath,
				"passthrough", len(cfg.Passthrough),
			)
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default .gensweep.yaml)")
	flags.String("project-root", ".", "directory that bounds every deletion")
	flags.String("output-root", "_site", "build output directory")
	flags.String("input-root", ".", "build input directory, used by passthrough mirroring")
	flags.String("db", "", "ledger database (default <project-root>/.gensweep/ledger.db)")
	for _, fk := range flagKeys {
		_ = opts.viper.BindPFlag(fk.key, flags.Lookup(fk.flag))
	}

	// Add subcommands
	cmd.AddCommand(NewStartCommand(opts))
	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))

	return cmd
}

// formatter returns an OutputFormatter writing to the command's stdout.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}
