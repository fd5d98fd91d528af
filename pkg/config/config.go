// Package config loads layered service configuration with viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config exposes loaded settings.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string
	GetAll() map[string]interface{}
	// Unmarshal decodes every setting into target using mapstructure tags.
	Unmarshal(target interface{}) error
	// FileUsed is the config file that was read, or "" when only defaults and env applied.
	FileUsed() string
}

type viperConfig struct {
	v *viper.Viper
}

func (c *viperConfig) GetString(key string) string {
	return c.v.GetString(key)
}

func (c *viperConfig) GetInt(key string) int {
	return c.v.GetInt(key)
}

func (c *viperConfig) GetBool(key string) bool {
	return c.v.GetBool(key)
}

func (c *viperConfig) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

func (c *viperConfig) GetAll() map[string]interface{} {
	return c.v.AllSettings()
}

func (c *viperConfig) Unmarshal(target interface{}) error {
	return c.v.Unmarshal(target)
}

func (c *viperConfig) FileUsed() string {
	return c.v.ConfigFileUsed()
}

const configDir = "configs"

// Options controls where settings come from.
type Options struct {
	// ServiceName names the default file configs/<name>.yaml.
	ServiceName string
	// EnvPrefix prefixes overriding env vars; "." in keys becomes "_".
	EnvPrefix string
	// Path overrides the file location. CONFIG_PATH is used when empty.
	Path string
	// Defaults registers every known key so env overrides reach Unmarshal.
	Defaults map[string]interface{}
}

// Load reads defaults, then the YAML file if present, then env overrides.
func Load(opts Options) (Config, error) {
	v := viper.New()
	for key, value := range opts.Defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := opts.Path
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	explicit := path != ""
	if !explicit {
		path = filepath.Join(configDir, opts.ServiceName+".yaml")
	}

	if _, err := os.Stat(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
		return &viperConfig{v: v}, nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return &viperConfig{v: v}, nil
}
