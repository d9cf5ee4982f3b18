package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/charlie0129/batmon/pkg/client"
	"github.com/charlie0129/batmon/pkg/gui"
)

var (
	logLevel       = "info"
	unixSocketPath = "/run/batmon.sock"
	configPath     = "/etc/batmon.json"
)

var apiClient = client.NewClient(unixSocketPath)

var (
	gBasic        = "Basic:"
	gDisplay      = "Display:"
	gAdvanced     = "Advanced:"
	gInstallation = "Installation:"
	commandGroups = []string{
		gBasic,
		gDisplay,
		gAdvanced,
		gInstallation,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

// loadGlobals resolves global flags, letting BATMON_* env vars fill in
// flags that were not set on the command line.
func loadGlobals() {
	logLevel = viper.GetString("log-level")
	configPath = viper.GetString("config")
	unixSocketPath = viper.GetString("daemon-socket")
	apiClient = client.NewClient(unixSocketPath)
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: batmon daemon is not running")
		fmt.Fprintln(os.Stderr, "Is the daemon running? Have you installed it?")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or reinstall the daemon with the '--allow-non-root-access' flag to grant permissions to your user")
	}
}

func main() {
	// batmon does not need to use much.
	if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(2)
	}

	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batmon",
		Short: "batmon monitors the battery level on Linux",
		Long: `batmon monitors the battery level on Linux.

A background daemon follows battery changes through UPower (or by polling
/sys/class/power_supply) and shows the level in a terminal UI or the system tray.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loadGlobals()

			err := setupLogger()
			if err != nil {
				return err
			}

			// The daemon and install commands do not talk to a daemon.
			if cmd.GroupID == gInstallation || cmd.Name() == "daemon" {
				return nil
			}

			if clientVersion, daemonVersion, err := getVersion(); err == nil {
				if daemonVersion != clientVersion {
					logrus.WithFields(logrus.Fields{
						"clientVersion": clientVersion,
						"daemonVersion": daemonVersion,
					}).Warn("Version mismatch between client and daemon. batmon may not work as expected. Reinstall the daemon with this binary.")
				}
			}

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringP("log-level", "l", logLevel, "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.String("config", configPath, "config file path")
	globalFlags.String("daemon-socket", unixSocketPath, "batmon daemon unix socket path")

	viper.SetEnvPrefix("BATMON")
	// e.g., BATMON_DAEMON_SOCKET for --daemon-socket
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for _, name := range []string{"log-level", "config", "daemon-socket"} {
		_ = viper.BindPFlag(name, globalFlags.Lookup(name))
	}

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewStatusCommand(),
		NewLevelCommand(),
		NewHistoryCommand(),
		NewStartCommand(),
		NewStopCommand(),
		NewLowThresholdCommand(),
		NewAutoStartCommand(),
		NewTUICommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
		gui.NewTrayCommand(func() string { return unixSocketPath }, gDisplay),
	)

	return cmd
}
