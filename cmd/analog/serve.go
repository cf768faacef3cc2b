package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/analog/pkg/board"
	"github.com/stefanpenner/analog/pkg/config"
	"github.com/stefanpenner/analog/pkg/server"
	"github.com/stefanpenner/analog/pkg/store"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over a JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.openBoard(cmd)
			if err != nil {
				return err
			}
			defer app.close()

			if addr == "" {
				addr = app.cfg.Server.Addr
			}
			opts := server.Options{CarryIncomplete: app.cfg.Board.CarryIncomplete}
			if app.files != nil {
				opts.Changed = app.files.Changed
			}
			srv := server.New(b, app.logger, opts)

			if app.snapshotPath != "" {
				stop, err := store.Watch(app.snapshotPath, func() { srv.Reload() })
				if err != nil {
					app.logger.Warn("file watcher failed", "err", err)
				} else {
					defer stop()
				}
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			errc := make(chan error, 1)
			go func() { errc <- srv.Start(addr) }()
			fmt.Fprintf(cmd.OutOrStdout(), "Serving board on http://%s\n", addr)

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancelShutdown()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("shutting down: %w", err)
			}
			return <-errc
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the board every time another process changes it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.openBoard(cmd)
			if err != nil {
				return err
			}
			defer app.close()
			if app.snapshotPath == "" {
				return fmt.Errorf("watch needs the %s storage backend", config.BackendFile)
			}

			w := cmd.OutOrStdout()
			var mu sync.Mutex
			render := func() {
				if app.JSON {
					_ = outputJSON(w, b.Snapshot())
					return
				}
				for _, k := range board.Lists {
					printCard(w, b.Card(k))
					fmt.Fprintln(w)
				}
				fmt.Fprintln(w, capacityLine(b))
			}

			stop, err := store.Watch(app.snapshotPath, func() {
				mu.Lock()
				defer mu.Unlock()
				if app.files.Changed() && b.Reload() {
					fmt.Fprintf(w, "\n-- %s --\n", time.Now().Format(time.Kitchen))
					render()
				}
			})
			if err != nil {
				return fmt.Errorf("watching %s: %w", app.snapshotPath, err)
			}
			defer stop()

			mu.Lock()
			render()
			mu.Unlock()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			<-ctx.Done()
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.loadConfig(cmd); err != nil {
				return err
			}
			data, err := app.cfg.Redacted().Marshal()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", config.Path(app.dataDir()), data)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml to the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(app.dataDir())
			wrote, err := config.WriteDefault(app.dataDir())
			if err != nil {
				return err
			}
			if !wrote {
				fmt.Fprintf(cmd.OutOrStdout(), "Config already exists: %s\n", path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	})
	return cmd
}
