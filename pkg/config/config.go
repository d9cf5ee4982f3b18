package config

import "time"

type Config interface {
	Source() string
	PollInterval() time.Duration
	LowThreshold() int
	AutoStart() bool
	AllowNonRootAccess() bool

	SetSource(string)
	SetPollInterval(time.Duration)
	SetLowThreshold(int)
	SetAutoStart(bool)
	SetAllowNonRootAccess(bool)

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
