package client

import (
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"time"

	sysbattery "github.com/distatus/battery"
	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/batmon/pkg/battery"
	"github.com/charlie0129/batmon/pkg/config"
	"github.com/charlie0129/batmon/pkg/display"
)

var _ display.ServiceController = &Client{}

// GetLevel returns the last battery percentage seen by the daemon. ok is
// false if the monitor has not seen a valid reading yet.
func (c *Client) GetLevel() (level int, ok bool, err error) {
	ret, err := c.Get("/level")
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, pkgerrors.Wrapf(err, "failed to get battery level")
	}
	level, err = strconv.Atoi(ret)
	if err != nil {
		return 0, false, pkgerrors.Wrapf(err, "failed to unmarshal battery level")
	}
	return level, true, nil
}

// GetHistory returns the readings of the last duration, or all of them if
// last is zero, oldest first.
func (c *Client) GetHistory(last time.Duration) ([]battery.Reading, error) {
	path := "/history"
	if last > 0 {
		path += "?last=" + url.QueryEscape(last.String())
	}
	ret, err := c.Get(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get battery history")
	}

	var readings []battery.Reading
	if err := json.Unmarshal([]byte(ret), &readings); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal battery history")
	}
	return readings, nil
}

func (c *Client) GetMonitor() (bool, error) {
	ret, err := c.Get("/monitor")
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to get monitor status")
	}
	return parseBoolResponse(ret)
}

func (c *Client) SetMonitor(enabled bool) (string, error) {
	ret, err := c.Put("/monitor", strconv.FormatBool(enabled))
	if err != nil {
		return "", err
	}
	return unquote(ret), nil
}

func (c *Client) StartMonitoring() error {
	_, err := c.SetMonitor(true)
	return pkgerrors.Wrapf(err, "failed to start battery monitor")
}

func (c *Client) StopMonitoring() error {
	_, err := c.SetMonitor(false)
	return pkgerrors.Wrapf(err, "failed to stop battery monitor")
}

func (c *Client) SetLowThreshold(t int) (string, error) {
	ret, err := c.Put("/low-threshold", strconv.Itoa(t))
	if err != nil {
		return "", err
	}
	return unquote(ret), nil
}

func (c *Client) SetAutoStart(enabled bool) (string, error) {
	ret, err := c.Put("/auto-start", strconv.FormatBool(enabled))
	if err != nil {
		return "", err
	}
	return unquote(ret), nil
}

func (c *Client) GetBatteryInfo() (*sysbattery.Battery, error) {
	ret, err := c.Get("/battery-info")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get battery info")
	}

	var bat sysbattery.Battery
	if err := json.Unmarshal([]byte(ret), &bat); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal battery info")
	}

	return &bat, nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	return unquote(ret), nil
}

// unquote strips the quotes gin puts around JSON string responses.
func unquote(s string) string {
	var v string
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

func parseBoolResponse(resp string) (bool, error) {
	switch resp {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, pkgerrors.Errorf("unexpected response: %s", resp)
	}
}
