package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vittorius/zed-settings-sync/internal/interactive"
	"github.com/vittorius/zed-settings-sync/internal/syncer"
	"github.com/vittorius/zed-settings-sync/internal/ui"
)

var loadCmd = &cobra.Command{
	Use:     "load",
	GroupID: "sync",
	Short:   "Load all Zed user settings files from a gist",
	Long: `Download every JSON file of the gist into the Zed configuration directory.

The GitHub token inside settings.json is restored from your credentials.
Existing files are only replaced after confirmation unless --force is given.

Credentials are taken from, in order:
  1. ZED_SETTINGS_SYNC_GIST_ID and ZED_SETTINGS_SYNC_GITHUB_TOKEN
  2. lsp.settings_sync.initialization_options in settings.json
  3. an interactive prompt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		io := interactive.Std()

		creds, err := credentials(io)
		if err != nil {
			return err
		}
		client, err := newClient(creds)
		if err != nil {
			return err
		}

		loader, err := syncer.NewLoader(client, io, syncer.LoaderConfig{
			Dir:    cfg.ConfigDir,
			Force:  force,
			Fs:     fs,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		if err := loader.LoadFiles(cmd.Context()); err != nil {
			return err
		}

		return io.WriteLine(fmt.Sprintf("%s All done.", ui.RenderPass("🟢")))
	},
}

func init() {
	loadCmd.Flags().BoolP("force", "f", false, "Force overwriting local settings files even if they exist")
	rootCmd.AddCommand(loadCmd)
}
