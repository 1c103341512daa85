// Command zed-settings-sync keeps the Zed configuration directory in sync
// with a GitHub gist.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/vittorius/zed-settings-sync/internal/config"
	"github.com/vittorius/zed-settings-sync/internal/interactive"
	"github.com/vittorius/zed-settings-sync/internal/logging"
	"github.com/vittorius/zed-settings-sync/internal/remote/gist"
	"github.com/vittorius/zed-settings-sync/internal/ui"
)

var (
	v      = config.New()
	fs     = afero.NewOsFs()
	cfg    *config.Config
	logger *slog.Logger

	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:           "zed-settings-sync",
	Short:         "Sync Zed settings files with a GitHub gist",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			ui.DisableColor()
		}

		if path, _ := cmd.Flags().GetString("config"); path != "" {
			if err := config.ReadFile(v, path); err != nil {
				return err
			}
		}

		var err error
		cfg, err = config.Load(v)
		if err != nil {
			return err
		}

		logger, closeLog, err = logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: "sync", Title: "Sync Commands:"})

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (YAML, TOML or JSON)")
	flags.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	flags.String("log-file", "", "Write logs to a rotating file instead of stderr")
	flags.String("config-dir", "", "Zed configuration directory (default: platform Zed config dir)")
	flags.Duration("request-timeout", 0, "Timeout for GitHub API requests (default 30s)")
	flags.String("api-url", "", "GitHub API root, e.g. for GitHub Enterprise")
	flags.Bool("no-color", false, "Disable colored output")

	for key, flag := range map[string]string{
		config.KeyLogLevel:       "log-level",
		config.KeyLogFile:        "log-file",
		config.KeyConfigDir:      "config-dir",
		config.KeyRequestTimeout: "request-timeout",
		config.KeyAPIURL:         "api-url",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

// credentials resolves the gist credentials: environment overrides first,
// then the settings file, then an interactive prompt.
func credentials(io *interactive.Stream) (config.Credentials, error) {
	if creds, ok := cfg.Credentials(); ok {
		return creds, nil
	}

	exists, err := afero.Exists(fs, cfg.SettingsFile())
	if err != nil {
		return config.Credentials{}, err
	}
	if exists {
		if err := io.WriteLine("Loading settings from file"); err != nil {
			return config.Credentials{}, err
		}
		return config.FromSettingsFile(fs, cfg.SettingsFile())
	}

	if err := io.WriteLine("Zed settings file not found, probably you haven't installed Zed yet?"); err != nil {
		return config.Credentials{}, err
	}
	return config.FromInteractiveIO(io, io.ReadPassword)
}

func newClient(creds config.Credentials) (*gist.Client, error) {
	opts := []gist.Option{
		gist.WithLogger(logger),
		gist.WithTimeout(cfg.RequestTimeout),
	}
	if cfg.APIURL != "" {
		opts = append(opts, gist.WithBaseURL(cfg.APIURL))
	}
	return gist.New(creds.GistID, creds.GithubToken, opts...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("Error:"), err)
		os.Exit(1)
	}
}
