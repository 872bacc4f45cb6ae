// File: control/config_test.go
// Author: momentics <momentics@gmail.com>

package control

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"
	"github.com/momentics/pingpong/reactor"
	"github.com/momentics/pingpong/server"
	"github.com/momentics/pingpong/transport/tcp"
	"github.com/sirupsen/logrus"
)

func load(t *testing.T, args ...string) *Config {
	t.Helper()
	cfg, err := LoadConfig(NewFlagSet("test"), args)
	if err != nil {
		t.Fatalf("LoadConfig(%v): %v", args, err)
	}
	return cfg
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := load(t)
	if diff := cmp.Diff(server.DefaultConfig(), cfg.ServerConfig()); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.CPUAffinity != -1 {
		t.Errorf("CPUAffinity = %d, want -1", cfg.CPUAffinity)
	}
	if cfg.ListenAddr != DefaultListenAddr || cfg.MaxEvents != reactor.DefaultMaxEvents || cfg.Backlog != tcp.DefaultBacklog {
		t.Errorf("listener defaults = %q/%d/%d", cfg.ListenAddr, cfg.MaxEvents, cfg.Backlog)
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	writeFile(t, file, "listen_addr: 127.0.0.1:7000\nmax_connections: 10\nmax_line: 64\n")
	t.Setenv("PINGPONG_MAX_CONNECTIONS", "20")
	t.Setenv("PINGPONG_CPU_AFFINITY", "0")

	cfg := load(t, "--config", file, "--max_line", "256")

	if cfg.ListenAddr != "127.0.0.1:7000" {
		t.Errorf("ListenAddr = %q, want value from file", cfg.ListenAddr)
	}
	if cfg.MaxConnections != 20 {
		t.Errorf("MaxConnections = %d, want env value 20", cfg.MaxConnections)
	}
	if cfg.MaxLine != 256 {
		t.Errorf("MaxLine = %d, want flag value 256", cfg.MaxLine)
	}
	if cfg.CPUAffinity != 0 {
		t.Errorf("CPUAffinity = %d, want env value 0", cfg.CPUAffinity)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string][]string{
		"zero capacity":  {"--max_connections", "0"},
		"bad log level":  {"--log_level", "loud"},
		"missing file":   {"--config", "/nonexistent/pingpong.yaml"},
		"unknown flag":   {"--bogus"},
		"empty address":  {"--listen_addr", ""},
		"negative lines": {"--max_line=-1"},
		"zero events":    {"--max_events", "0"},
		"negative queue": {"--backlog=-1"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(NewFlagSet("test"), args); err == nil {
				t.Errorf("LoadConfig(%v) succeeded", args)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pingpong.log")
	cfg := load(t, "--log_level", "debug", "--log_file_path", path)

	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %s, want debug", logger.GetLevel())
	}
	logger.Info("accepted a new client socket")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
}

func TestWatchWithoutFile(t *testing.T) {
	cfg := load(t)
	if err := cfg.Watch(logrus.New()); err != ErrNoConfigFile {
		t.Errorf("Watch() = %v, want ErrNoConfigFile", err)
	}
}

func TestReloadAppliesLogLevel(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, file, "log_level: info\n")
	cfg := load(t, "--config", file)

	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	cfg.OnReload(LogLevelHook(logger))

	var seen *Config
	cfg.OnReload(func(c *Config) { seen = c })

	writeFile(t, file, "log_level: warn\n")
	if err := cfg.v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}
	cfg.handleChange(fsnotify.Event{Name: file, Op: fsnotify.Write}, logger)

	if logger.GetLevel() != logrus.WarnLevel {
		t.Errorf("level = %s, want warn", logger.GetLevel())
	}
	if seen == nil || seen.LogLevel != "warn" {
		t.Errorf("reload hook saw %+v", seen)
	}

	writeFile(t, file, "log_level: nonsense\n")
	if err := cfg.v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}
	seen = nil
	cfg.handleChange(fsnotify.Event{Name: file, Op: fsnotify.Write}, logger)
	if seen != nil || logger.GetLevel() != logrus.WarnLevel {
		t.Errorf("invalid change was applied: level=%s seen=%v", logger.GetLevel(), seen)
	}
}

func TestReloadHooksRunOnSnapshot(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, file, "log_level: info\n")
	cfg := load(t, "--config", file)

	var calls []string
	cfg.OnReload(func(*Config) {
		calls = append(calls, "first")
		cfg.OnReload(func(*Config) { calls = append(calls, "late") })
	})
	cfg.OnReload(func(*Config) { calls = append(calls, "second") })

	ev := fsnotify.Event{Name: file, Op: fsnotify.Write}
	cfg.handleChange(ev, logrus.New())
	if diff := cmp.Diff([]string{"first", "second"}, calls); diff != "" {
		t.Errorf("first reload calls mismatch (-want +got):\n%s", diff)
	}

	calls = nil
	cfg.handleChange(ev, logrus.New())
	want := []string{"first", "second", "late"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("second reload calls mismatch (-want +got):\n%s", diff)
	}
}
