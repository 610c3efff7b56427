// Package config loads a RealtimeContainer's settings from CLI flags, an
// optional config file, and environment variables, layered together: flag
// defaults are the bottom tier, a config file (if present) overrides
// them, and VANTAGE_-prefixed environment variables take precedence over
// both.
package config

import (
	"flag"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/daviswx/vantage-driver/pkg/device"
	"github.com/daviswx/vantage-driver/pkg/realtime"
	"github.com/daviswx/vantage-driver/pkg/vanterr"
)

// Config is the flat settings struct a RealtimeContainer is built from.
type Config struct {
	DevicePath       string        `mapstructure:"device_path"`
	BaudRate         int           `mapstructure:"baud_rate"`
	Model            string        `mapstructure:"model"`
	UpdateInterval   time.Duration `mapstructure:"update_interval"`
	ReconnectBackoff time.Duration `mapstructure:"reconnect_backoff"`
	OnCreate         string        `mapstructure:"on_create"`

	RedisAddr string `mapstructure:"redis_addr"`
	RedisPass string `mapstructure:"redis_pass"`
	RedisDB   int    `mapstructure:"redis_db"`
}

// Load parses CLI flags out of args, layers in a config file and
// VANTAGE_-prefixed environment variables via viper, and returns the
// merged Config. MissingDevicePath is returned if no path is ultimately
// supplied by any source.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("vantage-driver", flag.ContinueOnError)

	devicePath := fs.String("device", "", "Serial device path (e.g. /dev/ttyUSB0)")
	baudRate := fs.Int("baud", 19200, "Serial baud rate")
	model := fs.String("model", "pro2", "Console model: pro, vue, or pro2")
	updateInterval := fs.Duration("update-interval", 60*time.Second, "Period between fetch cycles")
	reconnectBackoff := fs.Duration("reconnect-backoff", 30*time.Second, "Backoff before retrying a failed open")
	onCreate := fs.String("on-create", "wait-for-first-update", "Startup gate: do-nothing, wait-until-open, wait-for-first-update, wait-for-first-valid-update")
	configFile := fs.String("config", "", "Optional path to a YAML config file")
	redisAddr := fs.String("redis-addr", "", "Optional Redis address for event mirroring, e.g. localhost:6379")
	redisPass := fs.String("redis-pass", "", "Redis password")
	redisDB := fs.Int("redis-db", 0, "Redis database number")

	if err := fs.Parse(args); err != nil {
		return nil, vanterr.Wrap(vanterr.InvalidSchema, "config.Load: parsing flags", err)
	}

	v := viper.New()
	v.SetEnvPrefix("VANTAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("device_path", *devicePath)
	v.SetDefault("baud_rate", *baudRate)
	v.SetDefault("model", *model)
	v.SetDefault("update_interval", *updateInterval)
	v.SetDefault("reconnect_backoff", *reconnectBackoff)
	v.SetDefault("on_create", *onCreate)
	v.SetDefault("redis_addr", *redisAddr)
	v.SetDefault("redis_pass", *redisPass)
	v.SetDefault("redis_db", *redisDB)

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, vanterr.Wrap(vanterr.InvalidSchema, "config.Load: reading config file", err)
		}
	}

	cfg := &Config{
		DevicePath:       v.GetString("device_path"),
		BaudRate:         v.GetInt("baud_rate"),
		Model:            v.GetString("model"),
		UpdateInterval:   v.GetDuration("update_interval"),
		ReconnectBackoff: v.GetDuration("reconnect_backoff"),
		OnCreate:         v.GetString("on_create"),
		RedisAddr:        v.GetString("redis_addr"),
		RedisPass:        v.GetString("redis_pass"),
		RedisDB:          v.GetInt("redis_db"),
	}

	if cfg.DevicePath == "" {
		return nil, vanterr.New(vanterr.MissingDevicePath, "config.Load")
	}
	return cfg, nil
}

// ParsedModel parses the configured model name into a device.Model.
func (c *Config) ParsedModel() (device.Model, error) {
	switch strings.ToLower(c.Model) {
	case "pro":
		return device.ModelPro, nil
	case "vue":
		return device.ModelVue, nil
	case "pro2":
		return device.ModelPro2, nil
	default:
		return 0, vanterr.New(vanterr.UnsupportedDeviceModel, "config.ParsedModel: "+c.Model)
	}
}

// ParsedGate parses the configured startup gate name into a realtime.Gate.
func (c *Config) ParsedGate() (realtime.Gate, error) {
	switch strings.ToLower(c.OnCreate) {
	case "do-nothing":
		return realtime.DoNothing, nil
	case "wait-until-open":
		return realtime.WaitUntilOpen, nil
	case "wait-for-first-update":
		return realtime.WaitForFirstUpdate, nil
	case "wait-for-first-valid-update":
		return realtime.WaitForFirstValidUpdate, nil
	default:
		return 0, vanterr.New(vanterr.InvalidSchema, "config.ParsedGate: unknown on-create gate "+c.OnCreate)
	}
}
