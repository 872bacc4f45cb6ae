// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Manages reload hooks fired when the config file changes.

package control

import (
	"errors"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// ErrNoConfigFile is returned by Watch when no file was loaded.
var ErrNoConfigFile = errors.New("no config file to watch")

// OnReload registers a hook that receives the freshly decoded config.
// Hooks run on the watcher goroutine.
func (c *Config) OnReload(fn func(*Config)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Watch starts watching the config file and fires reload hooks on change.
// Only settings whose hooks apply them take effect; the listen address and
// capacity are fixed for the life of the process.
func (c *Config) Watch(log logrus.FieldLogger) error {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return ErrNoConfigFile
	}
	c.v.OnConfigChange(func(e fsnotify.Event) { c.handleChange(e, log) })
	c.v.WatchConfig()
	return nil
}

func (c *Config) handleChange(e fsnotify.Event, log logrus.FieldLogger) {
	next, err := decode(c.v)
	if err != nil {
		log.WithError(err).WithField("file", e.Name).Warn("ignoring invalid config change")
		return
	}
	c.mu.Lock()
	hooks := make([]func(*Config), len(c.hooks))
	copy(hooks, c.hooks)
	c.mu.Unlock()
	for _, fn := range hooks {
		fn(next)
	}
}

// LogLevelHook re-applies log_level to logger.
func LogLevelHook(logger *logrus.Logger) func(*Config) {
	return func(cfg *Config) {
		lvl, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return
		}
		if lvl != logger.GetLevel() {
			logger.SetLevel(lvl)
			logger.Infof("log level changed to %s", lvl)
		}
	}
}
