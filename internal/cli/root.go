package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/accountcell/internal/sign"
)

// EnvPrefix is the prefix of environment variables that override flags,
// e.g. ACCOUNTCELL_DB for --db.
const EnvPrefix = "ACCOUNTCELL"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Config   string // CUE configuration package; empty uses the built-in one
	DB       string // SQLite verdict journal
	Settings string // optional YAML settings file

	// Oracle verifies witness signatures. Nil uses the strategies of the
	// configured sign algorithms.
	Oracle sign.Oracle
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// settingKeys are the persistent flags that can also be set from the
// settings file or the environment.
var settingKeys = []string{"verbose", "format", "config", "db", "settings"}

// NewRootCommand creates the root command for the accountcell CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "accountcell",
		Short: "Account cell transition verifier",
		Long: `Verify account cell state transitions of a name registry.

Transactions are read as YAML or JSON snapshots and checked against a CUE
configuration package. Batch runs are journaled to SQLite and can be
replayed to detect verdict drift after a configuration change.

Every persistent flag may also be set in a YAML settings file (--settings)
or through an ACCOUNTCELL_* environment variable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.loadSettings(v); err != nil {
				return WrapExitError(ExitCommandError, "failed to load settings", err)
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			opts.Logger = NewLogger(cmd.ErrOrStderr(), opts.Verbose)
			slog.SetDefault(opts.Logger)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.Config, "config", "", "CUE configuration package (default: built-in)")
	flags.StringVar(&opts.DB, "db", "", "path to the SQLite verdict journal")
	flags.StringVar(&opts.Settings, "settings", "", "YAML settings file")
	for _, key := range settingKeys {
		_ = v.BindPFlag(key, flags.Lookup(key))
	}

	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewJournalCommand(opts))
	cmd.AddCommand(NewCodesCommand(opts))

	return cmd
}

// loadSettings resolves the persistent flags. Explicit flags win over the
// environment, which wins over the settings file.
func (o *RootOptions) loadSettings(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("settings"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		o.Settings = path
	}

	o.Verbose = v.GetBool("verbose")
	o.Format = v.GetString("format")
	o.Config = v.GetString("config")
	o.DB = v.GetString("db")
	return nil
}

// NewLogger returns a text logger on w. Verbose enables debug output;
// otherwise only warnings and errors are written.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
