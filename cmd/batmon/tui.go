package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/batmon/pkg/client"
	"github.com/charlie0129/batmon/pkg/config"
	"github.com/charlie0129/batmon/pkg/display"
	"github.com/charlie0129/batmon/pkg/display/tui"
	"github.com/charlie0129/batmon/pkg/events"
	"github.com/charlie0129/batmon/pkg/monitor"
	"github.com/charlie0129/batmon/pkg/notifier"
)

func NewTUICommand() *cobra.Command {
	remote := false

	cmd := &cobra.Command{
		Use:     "tui",
		Short:   "Show the battery level in the terminal",
		GroupID: gDisplay,
		Long: `Show the battery level in the terminal.

By default the battery is monitored in-process and nothing is shared with the daemon. With --remote the display follows, and starts or stops, the monitor of the running daemon.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if remote {
				return runRemoteTUI(ctx)
			}
			return runLocalTUI(ctx)
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Drive the monitor of the batmon daemon instead of monitoring in-process.")

	return cmd
}

func runRemoteTUI(ctx context.Context) error {
	opts := []display.Option{}
	if conf, err := apiClient.GetConfig(); err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	} else if conf.LowThreshold != nil {
		opts = append(opts, display.WithLowThreshold(*conf.LowThreshold))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	subscribe := func() (<-chan events.Event, error) {
		return apiClient.SubscribeEvents(ctx)
	}

	// The daemon sends its monitor state and last level first.
	ch, err := subscribe()
	if err != nil {
		return err
	}

	m := tui.New(apiClient, ch, opts...).WithReconnect(subscribe, client.ReconnectInterval)
	return tui.Run(ctx, m)
}

func runLocalTUI(ctx context.Context) error {
	conf, err := config.NewFile(configPath)
	if err != nil {
		logrus.Warnf("failed to load config, using defaults: %v", err)
		conf = config.NewFileFromConfig(nil, "")
	}

	n, err := notifier.New(conf.Source(), conf.PollInterval())
	if err != nil {
		return fmt.Errorf("failed to set up battery source: %w", err)
	}
	defer func() {
		if err := n.Close(); err != nil {
			logrus.Errorf("failed to close battery source: %v", err)
		}
	}()

	hub := events.NewHub()
	defer hub.Close()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	mon := monitor.New(n, hub)
	defer func() {
		if err := mon.Stop(); err != nil {
			logrus.Errorf("failed to stop battery monitor: %v", err)
		}
	}()

	m := tui.New(mon, ch, display.WithLowThreshold(conf.LowThreshold()))
	if conf.AutoStart() {
		// The monitor.state event brings the display along.
		if err := mon.Start(ctx); err != nil {
			return fmt.Errorf("failed to start battery monitor: %w", err)
		}
	}

	return tui.Run(ctx, m)
}
