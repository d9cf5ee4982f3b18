package notifier

import "errors"

var (
	// ErrUPowerUnavailable is returned when UPower is not on the system bus.
	ErrUPowerUnavailable = errors.New("upower not found on system bus")

	// ErrUnknownSource is returned by New for an unsupported source name.
	ErrUnknownSource = errors.New("unknown battery source")
)
