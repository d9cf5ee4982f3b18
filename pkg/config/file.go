package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batmon/pkg/utils/ptr"
)

const (
	MinLowThreshold = 1
	MaxLowThreshold = 99
)

var defaultFileConfig = &RawFileConfig{
	Source:              ptr.To("auto"),
	PollIntervalSeconds: ptr.To(10),
	LowThreshold:        ptr.To(20),
	// Monitoring is a user decision, like pressing start in the display.
	AutoStart:          ptr.To(false),
	AllowNonRootAccess: ptr.To(false),
}

var _ Config = &File{}

// File is a Config backed by a JSON file. Unset fields read as defaults
// and are not written back.
type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

// RawFileConfig is the on-disk and over-the-wire form of the config.
type RawFileConfig struct {
	Source              *string `json:"source,omitempty"`
	PollIntervalSeconds *int    `json:"pollIntervalSeconds,omitempty"`
	LowThreshold        *int    `json:"lowThreshold,omitempty"`
	AutoStart           *bool   `json:"autoStart,omitempty"`
	AllowNonRootAccess  *bool   `json:"allowNonRootAccess,omitempty"`
}

// NewFile loads configPath. A missing file gives the defaults.
func NewFile(configPath string) (*File, error) {
	f := NewFileFromConfig(nil, configPath)
	if err := f.Load(); err != nil {
		return nil, err
	}
	return f, nil
}

// NewFileFromConfig wraps c, e.g. a config fetched from the daemon.
func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}
	return &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	return &RawFileConfig{
		Source:              ptr.To(c.Source()),
		PollIntervalSeconds: ptr.To(int(c.PollInterval() / time.Second)),
		LowThreshold:        ptr.To(c.LowThreshold()),
		AutoStart:           ptr.To(c.AutoStart()),
		AllowNonRootAccess:  ptr.To(c.AllowNonRootAccess()),
	}, nil
}

// valueOr returns *v, or *def if v is nil.
func valueOr[T any](v, def *T) T {
	if v != nil {
		return *v
	}
	return *def
}

func (f *File) view(fn func(c *RawFileConfig)) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.c == nil {
		panic("config is nil")
	}
	fn(f.c)
}

func (f *File) update(fn func(c *RawFileConfig)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.c == nil {
		panic("config is nil")
	}
	fn(f.c)
}

func (f *File) Source() (source string) {
	f.view(func(c *RawFileConfig) {
		source = valueOr(c.Source, defaultFileConfig.Source)
	})
	return source
}

func (f *File) PollInterval() time.Duration {
	var seconds int
	f.view(func(c *RawFileConfig) {
		seconds = valueOr(c.PollIntervalSeconds, defaultFileConfig.PollIntervalSeconds)
	})
	if seconds <= 0 {
		seconds = *defaultFileConfig.PollIntervalSeconds
	}
	return time.Duration(seconds) * time.Second
}

func (f *File) LowThreshold() int {
	var threshold int
	f.view(func(c *RawFileConfig) {
		threshold = valueOr(c.LowThreshold, defaultFileConfig.LowThreshold)
	})
	if threshold < MinLowThreshold || threshold > MaxLowThreshold {
		logrus.Warnf("low threshold %d out of range, using default", threshold)
		threshold = *defaultFileConfig.LowThreshold
	}
	return threshold
}

func (f *File) AutoStart() (autoStart bool) {
	f.view(func(c *RawFileConfig) {
		autoStart = valueOr(c.AutoStart, defaultFileConfig.AutoStart)
	})
	return autoStart
}

func (f *File) AllowNonRootAccess() (allow bool) {
	f.view(func(c *RawFileConfig) {
		allow = valueOr(c.AllowNonRootAccess, defaultFileConfig.AllowNonRootAccess)
	})
	return allow
}

func (f *File) SetSource(s string) {
	f.update(func(c *RawFileConfig) { c.Source = &s })
}

func (f *File) SetPollInterval(d time.Duration) {
	if d < time.Second {
		panic("poll interval must be at least 1s")
	}
	seconds := int(d / time.Second)
	f.update(func(c *RawFileConfig) { c.PollIntervalSeconds = &seconds })
}

func (f *File) SetLowThreshold(i int) {
	if i < MinLowThreshold || i > MaxLowThreshold {
		panic("low threshold must be between 1 and 99")
	}
	f.update(func(c *RawFileConfig) { c.LowThreshold = &i })
}

func (f *File) SetAutoStart(b bool) {
	f.update(func(c *RawFileConfig) { c.AutoStart = &b })
}

func (f *File) SetAllowNonRootAccess(b bool) {
	f.update(func(c *RawFileConfig) { c.AllowNonRootAccess = &b })
}

// Load replaces the config with the content of the file. A missing or
// empty file resets everything to defaults.
func (f *File) Load() error {
	b, err := os.ReadFile(f.filepath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	conf := &RawFileConfig{}
	if len(bytes.TrimSpace(b)) > 0 {
		if err := json.Unmarshal(b, conf); err != nil {
			return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
		}
	}

	f.mu.Lock()
	f.c = conf
	f.mu.Unlock()

	return nil
}

// Save writes the config through a temporary file, so readers such as the
// daemon's file watcher never see a partial file.
func (f *File) Save() error {
	f.mu.RLock()
	if f.c == nil {
		f.mu.RUnlock()
		return pkgerrors.New("config is nil")
	}
	b, err := json.MarshalIndent(f.c, "", "  ")
	f.mu.RUnlock()
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to marshal config")
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.filepath), "."+filepath.Base(f.filepath)+".*")
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create temporary file for %s", f.filepath)
	}
	defer func() {
		// No-op once renamed.
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		return pkgerrors.Wrapf(err, "failed to write %s", tmp.Name())
	}
	if err := tmp.Chmod(0644); err != nil {
		logrus.Warnf("failed to chmod %s: %v", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.Wrapf(err, "failed to close %s", tmp.Name())
	}

	if err := os.Rename(tmp.Name(), f.filepath); err != nil {
		return pkgerrors.Wrapf(err, "failed to save config to %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"source":             f.Source(),
		"pollInterval":       f.PollInterval().String(),
		"lowThreshold":       f.LowThreshold(),
		"autoStart":          f.AutoStart(),
		"allowNonRootAccess": f.AllowNonRootAccess(),
	}
}
