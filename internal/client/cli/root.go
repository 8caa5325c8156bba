// Package cli implements reviewctl, the command-line client for clubreviews.
//
// reviewctl plays the part of a browser: it keeps a device id and local
// review receipts in a SQLite file under --data-dir and runs the
// submission protocol against a clubreviews server.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ValidFormats are the allowed --format values.
var ValidFormats = []string{"text", "json"}

// RootOptions holds the resolved global settings for every command.
type RootOptions struct {
	ConfigFile string
	Server     string
	DataDir    string
	Timeout    time.Duration
	Verbose    bool
	Format     string

	v   *viper.Viper
	log *zap.Logger
}

// Logger returns the command logger. It is a no-op unless --verbose is set.
func (o *RootOptions) Logger() *zap.Logger {
	if o.log == nil {
		return zap.NewNop()
	}
	return o.log
}

// NewRootCommand builds the reviewctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "reviewctl",
		Short: "Browse and review organizations on a clubreviews server",
		Long: `reviewctl lists organizations, shows their ratings and reviews, and
submits one anonymous review per organization from this device.

Settings come from flags, then REVIEWCTL_* environment variables, then
$HOME/.reviewctl.yaml (or --config).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (default is $HOME/.reviewctl.yaml)")
	pf.String("server", "http://localhost:8080", "clubreviews server base URL")
	pf.String("data-dir", defaultDataDir(), "directory for the device id and local receipts")
	pf.Duration("timeout", 15*time.Second, "per-request timeout")
	pf.BoolP("verbose", "v", false, "log requests and protocol steps to stderr")
	pf.String("format", "text", "output format (text|json)")
	_ = opts.v.BindPFlags(pf)

	cmd.AddCommand(newOrgsCommand(opts))
	cmd.AddCommand(newReviewCommand(opts))
	cmd.AddCommand(newDeviceCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	return cmd
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "reviewctl")
	}
	return ".reviewctl"
}

// resolve loads the config file and environment and fills in opts.
func (o *RootOptions) resolve() error {
	v := o.v
	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".reviewctl")
	}
	v.SetEnvPrefix("REVIEWCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.ConfigFile != "" || !errors.As(err, &notFound) {
			return WrapExitError(ExitCommandError, "read config", err)
		}
	}

	o.Server = strings.TrimRight(v.GetString("server"), "/")
	o.DataDir = v.GetString("data-dir")
	o.Timeout = v.GetDuration("timeout")
	o.Verbose = v.GetBool("verbose")
	o.Format = v.GetString("format")

	if o.Server == "" {
		return NewExitError(ExitCommandError, "server URL is required")
	}
	if o.DataDir == "" {
		return NewExitError(ExitCommandError, "data directory is required")
	}
	if o.Timeout <= 0 {
		return NewExitError(ExitCommandError, "timeout must be positive")
	}
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	if o.Verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return WrapExitError(ExitCommandError, "build logger", err)
		}
		o.log = logger
		o.log.Debug("config resolved",
			zap.String("server", o.Server),
			zap.String("data_dir", o.DataDir),
			zap.String("config_file", v.ConfigFileUsed()))
	}
	return nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// Execute runs reviewctl and returns the process exit code.
func Execute(ctx context.Context) int {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}
