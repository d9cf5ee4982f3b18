package gui

import (
	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/batmon/pkg/client"
	"github.com/charlie0129/batmon/pkg/version"
)

func NewTrayCommand(unixSocketPath func() string, groupID string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tray",
		Short:   "Show the battery level in the system tray",
		GroupID: groupID,
		Long: `Show the battery level in the system tray.

The tray app talks to the batmon daemon, which must be running. Use the menu to start or stop monitoring.`,
		Run: func(_ *cobra.Command, _ []string) {
			Run(unixSocketPath())
		},
	}

	return cmd
}

// Run shows the tray until the user quits.
func Run(unixSocketPath string) {
	logrus.WithFields(logrus.Fields{
		"version":   version.Version,
		"gitCommit": version.GitCommit,
	}).Info("batmon tray")

	t := newTray(client.NewClient(unixSocketPath))
	systray.Run(t.onReady, t.onExit)
}
