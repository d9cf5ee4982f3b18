package notifier

import (
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Source names accepted by New.
const (
	SourceAuto   = "auto"
	SourceUPower = "upower"
	SourcePoll   = "poll"
)

// New returns the Notifier for source. SourceAuto prefers UPower and falls
// back to polling if UPower is not reachable.
func New(source string, pollInterval time.Duration) (Notifier, error) {
	switch source {
	case SourceUPower:
		return NewUPower()
	case SourcePoll:
		return NewPoll(pollInterval), nil
	case SourceAuto, "":
		u, err := NewUPower()
		if err == nil {
			logrus.Info("using upower as battery source")
			return u, nil
		}
		logrus.WithField("interval", pollInterval).Infof("upower unavailable (%v), polling battery state instead", err)
		return NewPoll(pollInterval), nil
	default:
		return nil, pkgerrors.Wrapf(ErrUnknownSource, "%q", source)
	}
}
