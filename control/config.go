// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Layered configuration: defaults, YAML file, environment, then flags.

package control

import (
	"fmt"
	"strings"
	"sync"

	"github.com/momentics/pingpong/reactor"
	"github.com/momentics/pingpong/server"
	"github.com/momentics/pingpong/transport/tcp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envVarPrefix = "PINGPONG"

// DefaultListenAddr is the bind address used when none is configured.
const DefaultListenAddr = "0.0.0.0:6567"

// Config contains every option of the pingpong process.
type Config struct {
	// Address the listening socket binds to.
	ListenAddr string `mapstructure:"listen_addr"`
	// Fixed number of concurrent client connections.
	MaxConnections int `mapstructure:"max_connections"`
	// Initial read buffer capacity per connection.
	MaxLine int `mapstructure:"max_line"`
	// Readiness events fetched per wait.
	MaxEvents int `mapstructure:"max_events"`
	// listen(2) backlog.
	Backlog int `mapstructure:"backlog"`
	// CPU the event loop thread is pinned to, -1 leaves it unpinned.
	CPUAffinity int `mapstructure:"cpu_affinity"`
	// Minimum level of a log required to be written. Options: debug, info, warn, error
	LogLevel string `mapstructure:"log_level"`
	// Full path to file to which logs will be written. Blank will write to stdout.
	LogFilePath string `mapstructure:"log_file_path"`
	// Optional YAML config file.
	ConfigFile string `mapstructure:"config"`

	v     *viper.Viper
	mu    sync.Mutex
	hooks []func(*Config)
}

func setDefaults(v *viper.Viper) {
	d := server.DefaultConfig()
	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("max_connections", d.MaxConnections)
	v.SetDefault("max_line", d.MaxLine)
	v.SetDefault("max_events", reactor.DefaultMaxEvents)
	v.SetDefault("backlog", tcp.DefaultBacklog)
	v.SetDefault("cpu_affinity", -1)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file_path", "")
	v.SetDefault("config", "")
}

// NewFlagSet declares the command line flags understood by LoadConfig.
func NewFlagSet(name string) *pflag.FlagSet {
	d := server.DefaultConfig()
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("listen_addr", DefaultListenAddr, "address to listen on")
	fs.Int("max_connections", d.MaxConnections, "maximum concurrent connections")
	fs.Int("max_line", d.MaxLine, "initial per-connection line buffer size")
	fs.Int("max_events", reactor.DefaultMaxEvents, "readiness events per poll")
	fs.Int("backlog", tcp.DefaultBacklog, "listen backlog")
	fs.Int("cpu_affinity", -1, "pin the event loop to this CPU, -1 to disable")
	fs.String("log_level", "info", "log level: debug, info, warn, error")
	fs.String("log_file_path", "", "log file path, stdout when empty")
	fs.StringP("config", "c", "", "path to a YAML config file")
	return fs
}

// LoadConfig parses args with fs and merges every configuration source.
func LoadConfig(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}
	v.SetEnvPrefix(envVarPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.v = v
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the listener, reactor and server settings and the log level.
func (c *Config) Validate() error {
	switch {
	case c.ListenAddr == "":
		return fmt.Errorf("invalid config: listen address is empty")
	case c.MaxEvents <= 0:
		return fmt.Errorf("invalid config: max events must be positive, got %d", c.MaxEvents)
	case c.Backlog < 0:
		return fmt.Errorf("invalid config: backlog must not be negative, got %d", c.Backlog)
	}
	if err := c.ServerConfig().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ServerConfig extracts the settings consumed by the server package.
func (c *Config) ServerConfig() *server.Config {
	return &server.Config{
		MaxConnections: c.MaxConnections,
		MaxLine:        c.MaxLine,
	}
}
