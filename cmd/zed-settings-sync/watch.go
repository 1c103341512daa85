package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vittorius/zed-settings-sync/internal/config"
	"github.com/vittorius/zed-settings-sync/internal/dashboard"
	"github.com/vittorius/zed-settings-sync/internal/interactive"
	"github.com/vittorius/zed-settings-sync/internal/notify"
	"github.com/vittorius/zed-settings-sync/internal/syncer"
	"github.com/vittorius/zed-settings-sync/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch [path...]",
	GroupID: "sync",
	Short:   "Push settings files to the gist whenever they change",
	Long: `Watch Zed configuration files and push every saved change to the gist.

Paths default to the Zed configuration directory. Directories are watched
recursively. The GitHub token in settings.json is masked before upload.
A failed push is reported once and not retried; the next save pushes again.

With --dashboard-port, sync notifications are also streamed to WebSocket
clients at ws://127.0.0.1:<port>/ws.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := credentials(interactive.Std())
		if err != nil {
			return err
		}
		client, err := newClient(creds)
		if err != nil {
			return err
		}

		paths := args
		if len(paths) == 0 {
			paths = []string{cfg.ConfigDir}
		}

		notifiers := notify.Multi{notify.NewLog(logger)}
		var (
			board *dashboard.Server
			svc   *syncer.Service
		)
		if cfg.DashboardPort != 0 {
			board = dashboard.NewServer(&dashboard.Config{
				Port:         cfg.DashboardPort,
				WatchedPaths: func() []string { return svc.Paths() },
				Logger:       logger,
			})
			notifiers = append(notifiers, board)
		}

		svc, err = syncer.NewService(client, &syncer.Config{
			Fs:       fs,
			Notifier: notifiers,
			Logger:   logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer svc.Close()

		for _, p := range paths {
			if err := svc.Watch(p); err != nil {
				return err
			}
			fmt.Printf("%s Watching %s\n", ui.RenderAccent("👀"), p)
		}

		if board != nil {
			if err := board.Start(); err != nil {
				return err
			}
			defer board.Stop()
			fmt.Printf("Dashboard: ws://%s/ws\n", board.Addr())
		}

		if err := svc.StartWatcher(); err != nil {
			return err
		}
		fmt.Println(ui.RenderMuted("Press Ctrl+C to stop..."))

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		<-ctx.Done()

		fmt.Println("\nStopping watcher...")
		return nil
	},
}

func init() {
	watchCmd.Flags().Int("dashboard-port", 0, "Serve sync notifications over WebSocket on this port (0 disables)")
	if err := v.BindPFlag(config.KeyDashboardPort, watchCmd.Flags().Lookup("dashboard-port")); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(watchCmd)
}
