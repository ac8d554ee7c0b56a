package models

import (
	"strings"
	"time"
)

// RegistryConfig identifies one Nexus endpoint and the repository to work
// against. Empty credentials mean anonymous access.
type RegistryConfig struct {
	NexusURL   string `json:"nexus_url" mapstructure:"nexus_url"`
	Repository string `json:"repository" mapstructure:"repository"`
	Username   string `json:"username" mapstructure:"username"`
	Password   string `json:"password" mapstructure:"password"`
}

// NpmRegistryURL returns the npm-facing URL of the configured repository,
// the form npm clients put in their registry setting.
func (r RegistryConfig) NpmRegistryURL() string {
	return strings.TrimRight(r.NexusURL, "/") + "/repository/" + r.Repository + "/"
}

// Settings are the operational knobs of a run. Timeouts and the batch delay
// are whole seconds.
type Settings struct {
	BatchSize       int `json:"batch_size" mapstructure:"batch_size"`
	DownloadTimeout int `json:"download_timeout" mapstructure:"download_timeout"`
	UploadTimeout   int `json:"upload_timeout" mapstructure:"upload_timeout"`
	RequestTimeout  int `json:"request_timeout" mapstructure:"request_timeout"`
	CacheTimeout    int `json:"cache_timeout" mapstructure:"cache_timeout"`
	BatchDelay      int `json:"batch_delay" mapstructure:"batch_delay"`
	MaxPages        int `json:"max_pages" mapstructure:"max_pages"`
}

func (s Settings) DownloadTimeoutDuration() time.Duration {
	return time.Duration(s.DownloadTimeout) * time.Second
}

func (s Settings) UploadTimeoutDuration() time.Duration {
	return time.Duration(s.UploadTimeout) * time.Second
}

func (s Settings) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

func (s Settings) CacheTimeoutDuration() time.Duration {
	return time.Duration(s.CacheTimeout) * time.Second
}

func (s Settings) BatchDelayDuration() time.Duration {
	return time.Duration(s.BatchDelay) * time.Second
}

// ArchiveConfig points at an optional S3-compatible bucket that receives an
// audit copy of every tarball pushed to a hosted target.
type ArchiveConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	Endpoint  string `json:"endpoint" mapstructure:"endpoint"`
	Bucket    string `json:"bucket" mapstructure:"bucket"`
	Prefix    string `json:"prefix" mapstructure:"prefix"`
	AccessKey string `json:"access_key" mapstructure:"access_key"`
	SecretKey string `json:"secret_key" mapstructure:"secret_key"`
	UseSSL    bool   `json:"use_ssl" mapstructure:"use_ssl"`
}

// Config is the full sync configuration.
type Config struct {
	Source   RegistryConfig `json:"source" mapstructure:"source"`
	Target   RegistryConfig `json:"target" mapstructure:"target"`
	Settings Settings       `json:"settings" mapstructure:"settings"`
	Archive  ArchiveConfig  `json:"archive" mapstructure:"archive"`
}

// DefaultConfig returns the template written when no configuration exists.
// The angle-bracket placeholders are meant to be replaced by the operator.
func DefaultConfig() Config {
	return Config{
		Source: RegistryConfig{
			NexusURL:   "https://<source.nexus>",
			Repository: "<reponame>",
			Username:   "<login>",
			Password:   "<pass>",
		},
		Target: RegistryConfig{
			NexusURL:   "https://<nexus cached proxy>",
			Repository: "<repo>",
			Username:   "<username>",
			Password:   "<pass>",
		},
		Settings: Settings{
			BatchSize:       10,
			DownloadTimeout: 60,
			UploadTimeout:   120,
			RequestTimeout:  30,
			CacheTimeout:    60,
			BatchDelay:      1,
			MaxPages:        1000,
		},
		Archive: ArchiveConfig{
			Enabled: false,
			UseSSL:  true,
		},
	}
}
