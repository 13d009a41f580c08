package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config represents the vboxkit configuration.
type Config struct {
	// VBoxManage is the hypervisor CLI binary, resolved through PATH
	// when not absolute.
	VBoxManage string `mapstructure:"vboxmanage"`

	Defaults Defaults `mapstructure:"defaults"`
	ExtPack  ExtPack  `mapstructure:"extpack"`

	// SessionsDir overrides the session descriptor directory.
	SessionsDir string `mapstructure:"sessions_dir"`
}

// Defaults contains default values for command execution.
type Defaults struct {
	// Timeout bounds each hypervisor CLI invocation, e.g. "30s".
	Timeout string `mapstructure:"timeout"`
}

// ExtPack configures the extension pack installation pipeline.
type ExtPack struct {
	// ConfigURL is the trusted configuration source listing per-version
	// download URLs and checksums.
	ConfigURL string `mapstructure:"config_url"`

	// TmpDir holds downloaded artifacts; empty uses the system temp dir.
	TmpDir string `mapstructure:"tmp_dir"`
}

// CommandTimeout returns the parsed per-command timeout, falling back to
// 30 seconds on a malformed value.
func (c *Config) CommandTimeout() time.Duration {
	d, err := time.ParseDuration(c.Defaults.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Load loads the configuration from path, or from
// ~/.vboxkit/config.yaml when path is empty. A missing default file
// falls back to defaults; a missing explicit file is an error.
func Load(path string) (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	setDefaults(home)

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(filepath.Join(home, ".vboxkit"))

		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
			// No config file, use defaults.
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(home string) {
	viper.SetDefault("vboxmanage", "VBoxManage")
	viper.SetDefault("defaults.timeout", "30s")
	viper.SetDefault("extpack.config_url", "https://cernvm.cern.ch/releases/webapi/hypervisor.config")
	viper.SetDefault("extpack.tmp_dir", "")
	viper.SetDefault("sessions_dir", filepath.Join(home, ".vboxkit", "sessions"))
}

// ConfigDir returns the vboxkit configuration directory path.
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".vboxkit"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	configDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(configDir, 0755)
}
