package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/chmdznr/nexus-npm-sync/pkg/models"
)

// ErrTemplateCreated signals that no usable configuration existed, so a
// placeholder template was written for the operator to fill in. Runs must
// halt on it rather than sync against placeholder endpoints.
var ErrTemplateCreated = errors.New("configuration template created")

const envPrefix = "NXSYNC"

// Load reads the sync configuration from path. A missing file is replaced
// with a template and reported via ErrTemplateCreated; so is an unreadable
// one. Every key can be overridden through the environment, e.g.
// NXSYNC_SOURCE_PASSWORD or NXSYNC_SETTINGS_BATCH_SIZE.
func Load(path string) (*models.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logrus.Info("Configuration file not found, creating default configuration...")
		if err := WriteTemplate(path); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w at %s", ErrTemplateCreated, path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		logrus.WithError(err).Error("Error loading configuration")
		logrus.Info("Creating new default configuration...")
		if err := WriteTemplate(path); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w at %s", ErrTemplateCreated, path)
	}

	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteTemplate writes the placeholder configuration to path.
func WriteTemplate(path string) error {
	data, err := json.MarshalIndent(models.DefaultConfig(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding default configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing configuration template: %w", err)
	}
	logrus.WithField("config", path).Info("Created default configuration file")
	logrus.Info("Please update the configuration file with your actual credentials and settings")
	return nil
}

func setDefaults(v *viper.Viper) {
	defaults := models.DefaultConfig().Settings
	v.SetDefault("settings.batch_size", defaults.BatchSize)
	v.SetDefault("settings.download_timeout", defaults.DownloadTimeout)
	v.SetDefault("settings.upload_timeout", defaults.UploadTimeout)
	v.SetDefault("settings.request_timeout", defaults.RequestTimeout)
	v.SetDefault("settings.cache_timeout", defaults.CacheTimeout)
	v.SetDefault("settings.batch_delay", defaults.BatchDelay)
	v.SetDefault("settings.max_pages", defaults.MaxPages)
	v.SetDefault("archive.use_ssl", true)
}

func validate(cfg *models.Config) error {
	if cfg.Source.NexusURL == "" || cfg.Source.Repository == "" {
		return errors.New("source nexus_url and repository are required")
	}
	if cfg.Target.NexusURL == "" || cfg.Target.Repository == "" {
		return errors.New("target nexus_url and repository are required")
	}
	if cfg.Settings.BatchSize <= 0 {
		return errors.New("settings batch_size must be positive")
	}
	if cfg.Settings.MaxPages <= 0 {
		return errors.New("settings max_pages must be positive")
	}
	if cfg.Archive.Enabled && (cfg.Archive.Endpoint == "" || cfg.Archive.Bucket == "") {
		return errors.New("archive endpoint and bucket are required when the archive is enabled")
	}
	return nil
}
