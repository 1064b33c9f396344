package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/projecteru2/logview/common"

	"github.com/docker/go-units"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"
)

// SourceConfig describes where the log comes from
type SourceConfig struct {
	Type         string   `yaml:"type" default:"command"`
	PrintCommand []string `yaml:"print_command"`
	ClearCommand []string `yaml:"clear_command"`
	File         string   `yaml:"file"`
}

// PollConfig .
type PollConfig struct {
	Interval        time.Duration `yaml:"interval" default:"5s"`
	Timeout         time.Duration `yaml:"timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"3s"`
}

// ClearConfig .
type ClearConfig struct {
	Timeout time.Duration `yaml:"timeout" default:"10s"`
}

// BufferConfig caps the in-memory log
type BufferConfig struct {
	MaxLines int    `yaml:"max_lines" default:"1000"`
	MaxSize  string `yaml:"max_size" default:"1M"`
}

// MaxBytes parses MaxSize, e.g. "512K" or "2M"
func (b BufferConfig) MaxBytes() (int64, error) {
	if b.MaxSize == "" {
		return common.DefaultMaxBytes, nil
	}
	return units.RAMInBytes(b.MaxSize)
}

// APIConfig contain api config
type APIConfig struct {
	Addr string `yaml:"addr" default:"127.0.0.1:7520"`
}

// SessionConfig .
type SessionConfig struct {
	TTL time.Duration `yaml:"ttl" default:"30m"`
}

// MetricsConfig contain metrics config
type MetricsConfig struct {
	Statsd string        `yaml:"statsd"`
	Prefix string        `yaml:"prefix" default:"logview"`
	Step   time.Duration `yaml:"step" default:"10s"`
}

// LogConfig contain log config
type LogConfig struct {
	Journal bool `yaml:"journal"`
}

// Config contain all configs
type Config struct {
	PidFile string `yaml:"pid" default:"/tmp/logview.pid"`

	Source  SourceConfig  `yaml:"source"`
	Poll    PollConfig    `yaml:"poll"`
	Clear   ClearConfig   `yaml:"clear"`
	Buffer  BufferConfig  `yaml:"buffer"`
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// Prepare overrides config from cli flags and validates the result
func (config *Config) Prepare(c *cli.Context) error {
	if c.String("pidfile") != "" {
		config.PidFile = c.String("pidfile")
	}
	if c.String("source") != "" {
		config.Source.Type = c.String("source")
	}
	if c.String("print-command") != "" {
		config.Source.PrintCommand = strings.Fields(c.String("print-command"))
	}
	if c.String("clear-command") != "" {
		config.Source.ClearCommand = strings.Fields(c.String("clear-command"))
	}
	if c.String("log-file") != "" {
		config.Source.File = c.String("log-file")
	}
	if c.Duration("poll-interval") > 0 {
		config.Poll.Interval = c.Duration("poll-interval")
	}
	if c.Int("buffer-max-lines") > 0 {
		config.Buffer.MaxLines = c.Int("buffer-max-lines")
	}
	if c.String("buffer-max-size") != "" {
		config.Buffer.MaxSize = c.String("buffer-max-size")
	}
	if c.String("api-addr") != "" {
		config.API.Addr = c.String("api-addr")
	}
	if c.String("statsd") != "" {
		config.Metrics.Statsd = c.String("statsd")
	}
	if c.Duration("metrics-step") > 0 {
		config.Metrics.Step = c.Duration("metrics-step")
	}
	if c.Bool("journal") {
		config.Log.Journal = true
	}
	return config.validate()
}

func (config *Config) validate() error {
	if config.Source.Type == "" {
		config.Source.Type = common.CommandSource
	}
	switch config.Source.Type {
	case common.CommandSource:
		if len(config.Source.PrintCommand) == 0 {
			config.Source.PrintCommand = common.DefaultPrintCommand
		}
		if len(config.Source.ClearCommand) == 0 {
			config.Source.ClearCommand = common.DefaultClearCommand
		}
	case common.FileSource:
		if config.Source.File == "" {
			config.Source.File = common.DefaultLogFile
		}
	case common.MocksSource:
	default:
		return errors.Wrapf(common.ErrInvalidSourceType, "%q", config.Source.Type)
	}

	if config.Poll.Interval <= 0 {
		config.Poll.Interval = common.DefaultPollInterval
	}
	if config.Poll.Timeout <= 0 {
		config.Poll.Timeout = common.DefaultCommandTimeout
	}
	if config.Poll.ShutdownTimeout <= 0 {
		config.Poll.ShutdownTimeout = common.DefaultShutdownTimeout
	}
	if config.Clear.Timeout <= 0 {
		config.Clear.Timeout = common.DefaultCommandTimeout
	}
	if config.Buffer.MaxLines <= 0 {
		config.Buffer.MaxLines = common.DefaultMaxLines
	}
	if _, err := config.Buffer.MaxBytes(); err != nil {
		return errors.Wrapf(err, "invalid buffer.max_size %q", config.Buffer.MaxSize)
	}
	if config.Session.TTL <= 0 {
		config.Session.TTL = common.DefaultSessionTTL
	}
	return nil
}

// Print config
func (config *Config) Print() {
	bs, err := yaml.Marshal(config)
	if err != nil {
		log.Errorf("[config] marshal config failed %v", err)
		return
	}
	log.Debugf("---- current config ----\n%s", string(bs))
}

func (config *Config) String() string {
	return fmt.Sprintf("source=%s interval=%v api=%s", config.Source.Type, config.Poll.Interval, config.API.Addr)
}
