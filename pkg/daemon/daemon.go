package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batmon/pkg/config"
	"github.com/charlie0129/batmon/pkg/events"
	"github.com/charlie0129/batmon/pkg/monitor"
	"github.com/charlie0129/batmon/pkg/notifier"
)

// Daemon is the background monitoring service. It owns the battery
// monitor and the event hub, and exposes both over HTTP.
type Daemon struct {
	conf    config.Config
	hub     *events.Hub
	monitor *monitor.Monitor
	history *LevelHistory

	// readBatteries backs /battery-info.
	readBatteries notifier.BatteryReader
}

// New returns a Daemon monitoring n. The monitor is not started.
func New(conf config.Config, n notifier.Notifier, readBatteries notifier.BatteryReader) *Daemon {
	hub := events.NewHub()
	history := NewLevelHistory(DefaultHistorySize)
	return &Daemon{
		conf:          conf,
		hub:           hub,
		monitor:       monitor.New(n, historyPublisher{hub: hub, history: history}),
		history:       history,
		readBatteries: readBatteries,
	}
}

func (d *Daemon) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/config", d.getConfig)
	router.GET("/level", d.getLevel)
	router.GET("/history", d.getHistory)
	router.GET("/monitor", d.getMonitor)
	router.PUT("/monitor", d.setMonitor)
	router.GET("/events", d.streamEvents)
	router.GET("/battery-info", d.getBatteryInfo)
	router.PUT("/low-threshold", d.setLowThreshold)
	router.PUT("/auto-start", d.setAutoStart)
	router.GET("/version", getVersion)

	return router
}

// Shutdown stops the monitor and disconnects all event subscribers.
func (d *Daemon) Shutdown() {
	logrus.Info("stopping battery monitor")
	if err := d.monitor.Stop(); err != nil {
		logrus.Errorf("failed to stop battery monitor: %v", err)
	}
	d.hub.Close()
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	conf, err := config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	n, err := notifier.New(conf.Source(), conf.PollInterval())
	if err != nil {
		logrus.Fatalf("failed to set up battery source: %v", err)
	}
	defer func() {
		if err := n.Close(); err != nil {
			logrus.Errorf("failed to close battery source: %v", err)
		}
	}()

	d := New(conf, n, batteryGetAll)
	router := d.Router()

	reload := func() {
		source, interval := conf.Source(), conf.PollInterval()
		err := conf.Load()
		if err != nil {
			logrus.Errorf("failed to reload config: %v", err)
			return
		}
		if conf.Source() != source || conf.PollInterval() != interval {
			logrus.Warn("battery source settings changed, restart the daemon to apply them")
		}
		logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")
	}

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			reload()
		}
	}()

	watchCtx, stopWatching := context.WithCancel(context.Background())
	defer stopWatching()
	go func() {
		if err := watchConfig(watchCtx, configPath, reload); err != nil {
			logrus.Warnf("config file changes will not be picked up automatically: %v", err)
		}
	}()

	srv := &http.Server{
		Handler: router,
	}

	// A stale socket from a crashed daemon would make Listen fail.
	if err := os.Remove(unixSocketPath); err != nil && !os.IsNotExist(err) {
		logrus.Fatal(err)
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	if conf.AutoStart() {
		if err := d.monitor.Start(context.Background()); err != nil {
			logrus.Errorf("failed to start battery monitor: %v", err)
		}
	}

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	// Event streams only end when the hub closes, so do this before
	// shutting down the http server.
	d.Shutdown()

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	logrus.Info("exiting")
	return nil
}
