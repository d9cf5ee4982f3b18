package daemon

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// watchConfig calls reload whenever the config file is written or replaced,
// until ctx is done. The parent directory is watched because editors often
// save by renaming a temporary file over the config file.
func watchConfig(ctx context.Context, configPath string, reload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	configPath = filepath.Clean(configPath)
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		return pkgerrors.Wrapf(err, "failed to watch %s", filepath.Dir(configPath))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != configPath || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			logrus.WithField("op", ev.Op.String()).Debugf("config file %s changed", configPath)
			reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logrus.Warnf("config file watcher error: %v", err)
		}
	}
}
