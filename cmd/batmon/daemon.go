package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/batmon/pkg/daemon"
	"github.com/charlie0129/batmon/pkg/version"
)

var (
	// alwaysAllowNonRootAccess indicates whether to always allow non-root users to access the batmon daemon.
	alwaysAllowNonRootAccess = false
)

func NewDaemonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "daemon",
		Hidden:  true,
		Short:   "Run batmon daemon in the foreground",
		GroupID: gAdvanced,
		Long: `Run the batmon daemon in the foreground.

The daemon serves the API on the unix socket and owns the battery monitor. Battery updates come
from the configured source ("upower", "poll" or "auto", which tries UPower first). The monitor
starts with the daemon when autoStart is set in the config; otherwise it waits for "batmon start"
or a display to start it.

Edits to the config file are picked up automatically, as is SIGHUP. Changing the source or poll
interval needs a restart. Usually started by systemd after "batmon install".`,
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("batmon daemon starting")
			return daemon.Run(configPath, unixSocketPath, alwaysAllowNonRootAccess)
		},
	}

	f := cmd.Flags()

	f.BoolVar(&alwaysAllowNonRootAccess, "always-allow-non-root-access", false,
		"Always allow non-root users to access the daemon.")

	return cmd
}
