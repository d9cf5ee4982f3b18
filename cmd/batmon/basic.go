package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/batmon/pkg/config"
	"github.com/charlie0129/batmon/pkg/display"
	"github.com/charlie0129/batmon/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewLevelCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "level",
		Short:   "Print the battery level",
		GroupID: gBasic,
		Long: `Print the last battery level seen by the daemon.

The level is kept while the monitor is stopped, so it may be stale. Prints
"unknown" if the monitor has not seen a valid reading yet.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level, ok, err := apiClient.GetLevel()
			if err != nil {
				return fmt.Errorf("failed to get battery level: %w", err)
			}

			if !ok {
				cmd.Println(display.TextUnknown)
				return nil
			}
			cmd.Println(display.LevelText(level))

			return nil
		},
	}
}

func NewStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Short:   "Start monitoring the battery level",
		GroupID: gBasic,
		RunE: func(_ *cobra.Command, _ []string) error {
			ret, err := apiClient.SetMonitor(true)
			if err != nil {
				return fmt.Errorf("failed to start battery monitor: %w", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}
}

func NewStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "stop",
		Short:   "Stop monitoring the battery level",
		GroupID: gBasic,
		RunE: func(_ *cobra.Command, _ []string) error {
			ret, err := apiClient.SetMonitor(false)
			if err != nil {
				return fmt.Errorf("failed to stop battery monitor: %w", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}
}

func NewLowThresholdCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "low-threshold [percentage]",
		Short:   "Set the low battery threshold",
		GroupID: gAdvanced,
		Long: fmt.Sprintf(`Set the low battery threshold.

Levels at or below this percentage are shown in red, levels above it in green. This is a percentage from %d to %d, the default is %d.`,
			config.MinLowThreshold, config.MaxLowThreshold, display.DefaultLowThreshold),
		RunE: func(_ *cobra.Command, args []string) error {
			threshold, err := parseIntArg(args, "threshold")
			if err != nil {
				return err
			}

			ret, err := apiClient.SetLowThreshold(threshold)
			if err != nil {
				return fmt.Errorf("failed to set low threshold: %w", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			logrus.Infof("successfully set low threshold to %d%%", threshold)

			return nil
		},
	}
}

func NewAutoStartCommand() *cobra.Command {
	return newEnableDisableCommand(
		"auto-start",
		"start monitoring when the daemon starts",
		"Start monitoring the battery level as soon as the daemon starts, without waiting for `batmon start'.",
		func() (string, error) {
			return apiClient.SetAutoStart(true)
		},
		func() (string, error) {
			return apiClient.SetAutoStart(false)
		},
	)
}
