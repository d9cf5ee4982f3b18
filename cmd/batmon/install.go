package main

import (
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/batmon/pkg/config"
	daemonutils "github.com/charlie0129/batmon/pkg/utils/daemon"
)

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	allowNonRootAccess := false

	cmd := &cobra.Command{
		Use:     "install",
		Short:   "Install batmon (system-wide)",
		GroupID: gInstallation,
		Long: `Install batmon daemon as a systemd service (system-wide).

This makes batmon run in the background and automatically start on boot. You must run this command as root.

By default, only root user is allowed to access the batmon daemon. If you want to allow non-root users, i.e., you, to start and stop monitoring, you can use the --allow-non-root-access flag, so you don't have to use sudo every time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.NewFile(configPath)
			if err != nil {
				return err
			}

			conf.SetAllowNonRootAccess(allowNonRootAccess)
			if allowNonRootAccess {
				logrus.Info("non-root users are allowed to access the batmon daemon.")
			} else {
				logrus.Info("only root user is allowed to access the batmon daemon.")
			}

			// Save first, the service reads the config as soon as it starts.
			err = conf.Save()
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to save config")
			}

			err = daemonutils.Install(configPath, unixSocketPath)
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to install daemon: %w. Are you root?", err)
			}

			logrus.Infof("installation succeeded")

			exePath, _ := os.Executable()

			cmd.Printf("`systemd' will use current binary (%s) at startup so please make sure you do not move this binary. Once this binary is moved or deleted, you will need to run ``batmon install'' again.\n", exePath)

			return nil
		},
	}

	cmd.Flags().BoolVar(&allowNonRootAccess, "allow-non-root-access", false, "Allow non-root users to access batmon daemon.")

	return cmd
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "uninstall",
		Short:   "Uninstall batmon (system-wide)",
		GroupID: gInstallation,
		Long: `Uninstall batmon daemon from systemd (system-wide).

This stops batmon and removes its systemd unit.

You must run this command as root.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := daemonutils.Uninstall()
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to uninstall daemon: %w", err)
			}

			cmd.Printf("successfully uninstalled %s\n", daemonutils.UnitPath())

			cmd.Printf("Your config is kept in %s, in case you want to use `batmon' again. If you want a complete uninstall, you can remove both config file and batmon itself manually.\n", configPath)

			return nil
		},
	}

	return cmd
}
