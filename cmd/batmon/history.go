package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/batmon/pkg/config"
	"github.com/charlie0129/batmon/pkg/display"
)

func NewHistoryCommand() *cobra.Command {
	last := time.Duration(0)

	cmd := &cobra.Command{
		Use:     "history",
		Short:   "Print recent battery levels",
		GroupID: gBasic,
		Long: `Print the battery levels recorded by the daemon, oldest first.

The daemon keeps the readings in memory, so the history starts over when it restarts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			readings, err := apiClient.GetHistory(last)
			if err != nil {
				return fmt.Errorf("failed to get battery history: %w", err)
			}

			rawConf, err := apiClient.GetConfig()
			if err != nil {
				return fmt.Errorf("failed to get config: %w", err)
			}
			conf := config.NewFileFromConfig(rawConf, "")

			if len(readings) == 0 {
				cmd.Println("No battery readings yet.")
				return nil
			}

			for _, r := range readings {
				s := display.Derive(&r.Percentage, false, conf.LowThreshold())
				cmd.Printf("%s  %s\n", r.Time.Local().Format(time.DateTime), colored(s.LevelText, s.LevelColor))
			}

			return nil
		},
	}

	cmd.Flags().DurationVar(&last, "last", 0, "Only print levels from this long ago, e.g. 30m. All levels are printed by default.")

	return cmd
}
