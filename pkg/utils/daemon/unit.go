package daemon

import (
	"fmt"
	"strings"
)

const unitTemplate = `[Unit]
Description=batmon battery monitor
After=upower.service

[Service]
Type=simple
ExecStart={{exe}} daemon --config {{config}} --daemon-socket {{socket}}
ExecReload=/bin/kill -HUP $MAINPID
Restart=on-failure

[Install]
WantedBy=multi-user.target
`

// renderUnit fills in the systemd unit for the given binary and paths.
func renderUnit(exePath, configPath, socketPath string) string {
	return strings.NewReplacer(
		"{{exe}}", quoteArg(exePath),
		"{{config}}", quoteArg(configPath),
		"{{socket}}", quoteArg(socketPath),
	).Replace(unitTemplate)
}

// quoteArg quotes s for an ExecStart line if it contains spaces.
func quoteArg(s string) string {
	if !strings.ContainsAny(s, " \t\"\\") {
		return s
	}
	return fmt.Sprintf("%q", s)
}
