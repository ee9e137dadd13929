package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cashsync-dev/cashsync/internal/buildinfo"
	"github.com/cashsync-dev/cashsync/internal/config"
	"github.com/cashsync-dev/cashsync/internal/logger"
)

// app holds the state shared by subcommands once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg     *config.Config
	baseDir string // directory of the config file; relative config paths start here
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "cashsync",
		Short:   "Import bank CSV exports into an Excel ledger and categorize them",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", config.FileName, "path to the config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newImportCommand(a))
	rootCmd.AddCommand(newAutocatCommand(a))
	rootCmd.AddCommand(newBanksCommand(a))

	return rootCmd
}

// setup resolves the configuration and attaches a logger to the command
// context.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Resolve(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg
	a.baseDir = filepath.Dir(a.configPath)

	log := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   a.path(cfg.Logging.File),
		Out:    cmd.ErrOrStderr(),
	})
	cmd.SetContext(logger.WithContext(cmd.Context(), log))
	return nil
}

// path resolves p, taken from the config file, against the config directory.
func (a *app) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.baseDir, p)
}

// ledgerPath returns the ledger named on the command line or the configured
// one.
func (a *app) ledgerPath(args []string, pos int) string {
	if len(args) > pos {
		return args[pos]
	}
	return a.path(a.cfg.Ledger.Path)
}
