package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	appDirName     = "milestone-metrics"
	configFileName = "config.json"
	envPrefix      = "MILESTONES"
)

var ErrMissing = errors.New("config file not found")

type Config struct {
	Jira     Jira     `mapstructure:"jira"`
	InfluxDB InfluxDB `mapstructure:"influxdb"`
}

type Jira struct {
	Host string `mapstructure:"host"`
	User string `mapstructure:"user"`
	Pass string `mapstructure:"pass"`
}

type InfluxDB struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	User      string `mapstructure:"user"`
	Pass      string `mapstructure:"pass"`
	Database  string `mapstructure:"database"`
	SSL       bool   `mapstructure:"ssl"`
	VerifySSL bool   `mapstructure:"verify_ssl"`
}

// Error is returned for any problem reading or validating the config file.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// DefaultPath prefers config.json in the working directory, then the XDG
// config location.
func DefaultPath() (string, error) {
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, appDirName, configFileName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}

	return filepath.Join(home, ".config", appDirName, configFileName), nil
}

func Load(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, &Error{Path: path, Err: ErrMissing}
		}
		return Config{}, &Error{Path: path, Err: err}
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, &Error{Path: path, Err: fmt.Errorf("parse: %w", err)}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, &Error{Path: path, Err: fmt.Errorf("decode: %w", err)}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, &Error{Path: path, Err: err}
	}
	return cfg, nil
}

// Every key gets a default so AutomaticEnv can override keys absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("jira.host", "")
	v.SetDefault("jira.user", "")
	v.SetDefault("jira.pass", "")
	v.SetDefault("influxdb.host", "")
	v.SetDefault("influxdb.port", 8086)
	v.SetDefault("influxdb.user", "")
	v.SetDefault("influxdb.pass", "")
	v.SetDefault("influxdb.database", "")
	v.SetDefault("influxdb.ssl", false)
	v.SetDefault("influxdb.verify_ssl", true)
}

func (c Config) validate() error {
	var missing []string
	if strings.TrimSpace(c.Jira.Host) == "" {
		missing = append(missing, "jira.host")
	}
	if strings.TrimSpace(c.InfluxDB.Host) == "" {
		missing = append(missing, "influxdb.host")
	}
	if strings.TrimSpace(c.InfluxDB.Database) == "" {
		missing = append(missing, "influxdb.database")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required keys: %s", strings.Join(missing, ", "))
	}
	if c.InfluxDB.Port <= 0 || c.InfluxDB.Port > 65535 {
		return fmt.Errorf("influxdb.port out of range: %d", c.InfluxDB.Port)
	}
	return nil
}
