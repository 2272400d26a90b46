package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/slopewatch/slopewatch-go/cmd"
	"github.com/slopewatch/slopewatch-go/internal/api"
	"github.com/slopewatch/slopewatch-go/internal/browser"
	"github.com/slopewatch/slopewatch-go/internal/cli"
	"github.com/slopewatch/slopewatch-go/internal/conf"
	"github.com/slopewatch/slopewatch-go/internal/console"
	"github.com/slopewatch/slopewatch-go/internal/httpclient"
	"github.com/slopewatch/slopewatch-go/internal/logging"
	"github.com/slopewatch/slopewatch-go/internal/notify"
	"github.com/slopewatch/slopewatch-go/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	settings, err := conf.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
	}
	logging.Init(level)
	if settings.Main.Log.Enabled {
		_, closeLog, err := logging.NewFileLogger(settings.Main.Log.Path, "main", level)
		if err != nil {
			logging.Warn("could not open log file", "path", settings.Main.Log.Path, "error", err)
		} else if closeLog != nil {
			defer func() {
				if err := closeLog(); err != nil {
					logging.Warn("failed to close log file", "error", err)
				}
			}()
		}
	}

	tokenPath, err := conf.TokenFilePath()
	if err != nil {
		return fmt.Errorf("resolving token path: %w", err)
	}
	store := session.NewStore(tokenPath)
	if err := store.Load(); err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	hc := httpclient.New(&httpclient.Config{
		DefaultTimeout: settings.Server.Timeout,
	})
	defer hc.Close()

	apiClient := api.NewClient(settings.Server.URL, hc)
	apiClient.SetTokenProvider(store.Token)

	notifier := notify.NewConsole(nil)

	// Any authenticated request answered 401 ends the session everywhere.
	apiClient.SetUnauthorizedHook(func() {
		store.Clear()
		notifier.Warning("session expired, please log in again")
	})

	ctx := &cli.Context{
		Settings: settings,
		API:      apiClient,
		Session:  store,
		Notifier: notifier,
	}
	ctx.Console = console.New(console.Config{
		API:      apiClient,
		Notifier: notifier,
		Confirm:  ctx.Confirm,
	})
	ctx.Browser = browser.New(browser.Config{
		API:      apiClient,
		Notifier: notifier,
		Confirm:  browser.Confirmer(ctx.Confirm),
	})

	rootCmd := cmd.RootCommand(ctx)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(runCtx)
}
