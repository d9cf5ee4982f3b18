package gui

const (
	trayTooltip     = "batmon - Battery Monitor"
	startTooltip    = "Start monitoring the battery level"
	stopTooltip     = "Stop monitoring the battery level"
	statusTooltip   = "Whether the batmon daemon is monitoring the battery level"
	quitTooltip     = "Quit the tray app, the batmon daemon keeps running"
	offlineTitle    = "🚫 Offline"
	connectingTitle = "🔋 Loading..."
)
