package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	notificationmodel "catalogadmin/pkg/notification/domain/model"
)

const appID = "catalogadmin"

type config struct {
	ServeAddress            string        `envconfig:"serve_address" default:":8080" yaml:"serve_address"`
	CatalogURL              string        `envconfig:"catalog_url" default:"https://dummyjson.com" yaml:"catalog_url"`
	CatalogTimeout          time.Duration `envconfig:"catalog_timeout" default:"30s" yaml:"catalog_timeout"`
	RateLimit               float64       `envconfig:"rate_limit" default:"0" yaml:"rate_limit"`
	RateBurst               int           `envconfig:"rate_burst" default:"1" yaml:"rate_burst"`
	LogLevel                string        `envconfig:"log_level" default:"info" yaml:"log_level"`
	LogFormat               string        `envconfig:"log_format" default:"json" yaml:"log_format"`
	DefaultPageSize         int           `envconfig:"default_page_size" default:"10" yaml:"default_page_size"`
	InboxCapacity           int           `envconfig:"inbox_capacity" default:"100" yaml:"inbox_capacity"`
	NotifyChannel           string        `envconfig:"notify_channel" default:"log" yaml:"notify_channel"`
	FakeAddress             string        `envconfig:"fake_address" default:":8081" yaml:"fake_address"`
	SeedPath                string        `envconfig:"seed_path" default:"data/products.json" yaml:"seed_path"`
	ShutdownTimeout         time.Duration `envconfig:"shutdown_timeout" default:"10s" yaml:"shutdown_timeout"`
	ServerReadTimeout       time.Duration `envconfig:"server_read_timeout" default:"15s" yaml:"server_read_timeout"`
	ServerReadHeaderTimeout time.Duration `envconfig:"server_read_header_timeout" default:"5s" yaml:"server_read_header_timeout"`
	ServerWriteTimeout      time.Duration `envconfig:"server_write_timeout" default:"45s" yaml:"server_write_timeout"`
	ServerIdleTimeout       time.Duration `envconfig:"server_idle_timeout" default:"60s" yaml:"server_idle_timeout"`
}

// parseConfig reads CATALOGADMIN_* variables, then lets the YAML file at path override
// whatever keys it sets.
func parseConfig(path string) (*config, error) {
	c := new(config)
	if err := envconfig.Process(appID, c); err != nil {
		return nil, errors.Wrap(err, "failed to parse env")
	}
	if path == "" {
		return c, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open config %s", path)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "failed to decode config %s", path)
	}
	return c, nil
}

func (c *config) notificationChannel() (notificationmodel.NotificationChannel, error) {
	switch strings.ToLower(c.NotifyChannel) {
	case "", "log":
		return notificationmodel.Log, nil
	case "inbox":
		return notificationmodel.Inbox, nil
	}
	return 0, errors.Errorf("unknown notify channel %q", c.NotifyChannel)
}

func initLogger(c *config) (*logrus.Logger, error) {
	logger := logrus.New()
	switch strings.ToLower(c.LogFormat) {
	case "", "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, errors.Errorf("unknown log format %q", c.LogFormat)
	}

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse log level")
	}
	logger.SetLevel(level)
	return logger, nil
}
