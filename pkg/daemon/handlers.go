package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/distatus/battery"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batmon/pkg/config"
	"github.com/charlie0129/batmon/pkg/version"
)

var batteryGetAll = battery.GetAll

func (d *Daemon) getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(d.conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func (d *Daemon) getLevel(c *gin.Context) {
	r, ok := d.monitor.Last()
	if !ok {
		c.IndentedJSON(http.StatusNotFound, "no battery reading yet")
		return
	}

	c.IndentedJSON(http.StatusOK, r.Percentage)
}

func (d *Daemon) getHistory(c *gin.Context) {
	last := c.Query("last")
	if last == "" {
		c.IndentedJSON(http.StatusOK, d.history.Records())
		return
	}

	dur, err := time.ParseDuration(last)
	if err != nil || dur <= 0 {
		if err == nil {
			err = fmt.Errorf("duration must be positive, got %s", last)
		}
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	c.IndentedJSON(http.StatusOK, d.history.In(dur))
}

func (d *Daemon) getMonitor(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, d.monitor.Running())
}

func (d *Daemon) setMonitor(c *gin.Context) {
	var enabled bool
	if err := c.BindJSON(&enabled); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if enabled == d.monitor.Running() {
		c.IndentedJSON(http.StatusOK, fmt.Sprintf("battery monitor is already %s", enabledText(enabled)))
		return
	}

	var err error
	if enabled {
		// The request context ends with the request, the subscription
		// must not.
		err = d.monitor.Start(context.Background())
	} else {
		err = d.monitor.Stop()
	}
	if err != nil {
		logrus.Errorf("setMonitor failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("battery monitor %s", enabledText(enabled)))
}

func (d *Daemon) getBatteryInfo(c *gin.Context) {
	batteries, err := d.readBatteries()
	if err != nil && len(batteries) == 0 {
		logrus.Errorf("getBatteryInfo failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	for _, bat := range batteries {
		if bat == nil {
			continue
		}
		c.IndentedJSON(http.StatusOK, bat)
		return
	}

	logrus.Errorf("no batteries found")
	c.IndentedJSON(http.StatusInternalServerError, "no batteries found")
	_ = c.AbortWithError(http.StatusInternalServerError, errors.New("no batteries found"))
}

func (d *Daemon) setLowThreshold(c *gin.Context) {
	var t int
	if err := c.BindJSON(&t); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if t < config.MinLowThreshold || t > config.MaxLowThreshold {
		err := fmt.Errorf("low threshold must be between %d and %d, got %d", config.MinLowThreshold, config.MaxLowThreshold, t)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	d.conf.SetLowThreshold(t)
	if err := d.conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set low threshold to %d", t)

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("levels at or below %d%% are now shown as low", t))
}

func (d *Daemon) setAutoStart(c *gin.Context) {
	var a bool
	if err := c.BindJSON(&a); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	d.conf.SetAutoStart(a)
	if err := d.conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set auto start to %t", a)

	c.IndentedJSON(http.StatusCreated, "ok")
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

func enabledText(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
