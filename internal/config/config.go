package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath       = "config.toml"
	DefaultDownloadDir      = "/tmp/foxyfetch"
	DefaultMaxUploadMB      = 50
	DefaultLocalAPIUploadMB = 2000
	DefaultMaxDurationSecs  = 2 * 60 * 60
	DefaultPGHost           = "127.0.0.1"
	DefaultPGPort           = 5432
	DefaultPGUser           = "postgres"
	DefaultPGDatabase       = "foxyfetch"
	DefaultPGSSLMode        = "disable"
	DefaultCallbackCacheTTL = "24h"
	DefaultGIFWidth         = 480
	DefaultGIFFPS           = 12
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Telegram TelegramConfig `toml:"telegram"`
	Download DownloadConfig `toml:"download"`
	Convert  ConvertConfig  `toml:"convert"`
	Postgres PostgresConfig `toml:"postgres"`
	Callback CallbackConfig `toml:"callback"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
	// APIEndpoint points at a local Bot API server when set; raises the
	// upload ceiling from 50 MB to 2000 MB.
	APIEndpoint string  `toml:"api_endpoint"`
	AdminIDs    []int64 `toml:"admin_ids"`
}

type DownloadConfig struct {
	Dir string `toml:"dir"`
	// MaxUploadMB of 0 means derive from the API endpoint in use.
	MaxUploadMB     int `toml:"max_upload_mb"`
	MaxDurationSecs int `toml:"max_duration_secs"`
}

type ConvertConfig struct {
	FFmpegPath string `toml:"ffmpeg_path"`
	GIFWidth   int    `toml:"gif_width"`
	GIFFPS     int    `toml:"gif_fps"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

type CallbackConfig struct {
	// CacheTTL is how long hash payloads stay resolvable.
	CacheTTL string `toml:"cache_ttl"`
}

// MaxUploadBytes returns the effective Telegram upload ceiling.
func (c Config) MaxUploadBytes() int64 {
	mb := c.Download.MaxUploadMB
	if mb <= 0 {
		mb = DefaultMaxUploadMB
		if c.Telegram.APIEndpoint != "" {
			mb = DefaultLocalAPIUploadMB
		}
	}
	return int64(mb) * 1024 * 1024
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// MigrateURL is the DSN in the scheme golang-migrate's pgx5 driver
// expects.
func (c PostgresConfig) MigrateURL() string {
	return fmt.Sprintf(
		"pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// TTL parses the configured cache lifetime, falling back to the
// default on bad input.
func (c CallbackConfig) TTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultCallbackCacheTTL)
	}
	return d
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Download: DownloadConfig{
			Dir:             DefaultDownloadDir,
			MaxDurationSecs: DefaultMaxDurationSecs,
		},
		Convert: ConvertConfig{
			FFmpegPath: "ffmpeg",
			GIFWidth:   DefaultGIFWidth,
			GIFFPS:     DefaultGIFFPS,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Callback: CallbackConfig{
			CacheTTL: DefaultCallbackCacheTTL,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
