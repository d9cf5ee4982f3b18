package main

import (
	"fmt"

	"github.com/distatus/battery"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/batmon/pkg/config"
	"github.com/charlie0129/batmon/pkg/display"
)

type statusData struct {
	running     bool
	level       *int
	batteryInfo *battery.Battery
	config      *config.RawFileConfig
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	running, err := apiClient.GetMonitor()
	if err != nil {
		return nil, fmt.Errorf("failed to get monitor status: %w", err)
	}

	var level *int
	l, ok, err := apiClient.GetLevel()
	if err != nil {
		return nil, fmt.Errorf("failed to get battery level: %w", err)
	}
	if ok {
		level = &l
	}

	// A desktop without a battery still has a useful status.
	bat, err := apiClient.GetBatteryInfo()
	if err != nil {
		logrus.Debugf("failed to get battery info: %v", err)
		bat = nil
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	return &statusData{
		running:     running,
		level:       level,
		batteryInfo: bat,
		config:      conf,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current status of batmon",
		Long:    `Get batmon status, battery info, and configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			conf := config.NewFileFromConfig(data.config, "")
			state := display.Derive(data.level, data.running, conf.LowThreshold())

			// Monitor.
			cmd.Println(bold("Monitor status:"))
			cmd.Printf("  Monitoring: %s %s\n", bool2Text(data.running), colored(state.StatusText, state.StatusColor))
			cmd.Printf("  Battery level: %s\n", colored(state.LevelText, state.LevelColor))
			if data.level == nil && !data.running {
				cmd.Println("    Run `batmon start' to follow the battery level.")
			}

			cmd.Println()

			// Battery Info.
			cmd.Println(bold("Battery status:"))
			if data.batteryInfo == nil {
				cmd.Println("  No battery found.")
			} else {
				bat := data.batteryInfo
				cmd.Printf("  State: %s\n", bold("%s", bat.State.String()))
				cmd.Printf("  Energy: %s\n", bold("%.1f / %.1f Wh", bat.Current/1e3, bat.Full/1e3))
				if bat.Design > 0 {
					cmd.Printf("  Health: %s\n", bold("%.0f%%", bat.Full/bat.Design*100))
				}
				cmd.Printf("  Charge rate: %s\n", bold("%.1f W", bat.ChargeRate/1e3))
				cmd.Printf("  Voltage: %s\n", bold("%.2f V", bat.Voltage))
			}

			cmd.Println()

			// Config.
			cmd.Println(bold("Configuration:"))
			cmd.Printf("  Battery source: %s\n", bold("%s", conf.Source()))
			cmd.Printf("  Poll interval: %s\n", bold("%s", conf.PollInterval()))
			cmd.Printf("  Low threshold: %s\n", bold("%d%%", conf.LowThreshold()))
			cmd.Printf("  Start monitoring when the daemon starts: %s\n", bool2Text(conf.AutoStart()))
			cmd.Printf("  Allow non-root users to access the daemon: %s\n", bool2Text(conf.AllowNonRootAccess()))
			return nil
		},
	}
}
