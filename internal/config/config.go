// Package config loads the bot configuration from a YAML file, BOT_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"time"
)

// ErrValidation is wrapped by every configuration validation failure.
var ErrValidation = errors.New("validation error")

// Supported chat platforms.
const (
	PlatformTelegram = "telegram"
	PlatformDiscord  = "discord"
)

// Supported task store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Config is the complete application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Platform  string          `mapstructure:"platform"  validate:"required,oneof=telegram discord"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Discord   DiscordConfig   `mapstructure:"discord"`
	Store     StoreConfig     `mapstructure:"store"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Tracker   TrackerConfig   `mapstructure:"tracker"`
	Prayer    PrayerConfig    `mapstructure:"prayer"`
	TikTok    TikTokConfig    `mapstructure:"tiktok"`
	HTTP      HTTPConfig      `mapstructure:"http"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the Telegram bot settings. Commands use the "/" prefix.
type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

// DiscordConfig holds the Discord bot settings.
type DiscordConfig struct {
	Token  string `mapstructure:"token"`
	Prefix string `mapstructure:"prefix" validate:"required,max=5"`
}

// StoreConfig selects where channel states are persisted.
type StoreConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=file sqlite"`
	Path    string `mapstructure:"path"    validate:"required"`
}

// SchedulerConfig holds the scheduled task settings.
type SchedulerConfig struct {
	// Timezone is the IANA zone cron expressions are evaluated in.
	Timezone string                `mapstructure:"timezone" validate:"required"`
	Tasks    map[string]TaskConfig `mapstructure:"tasks"    validate:"dive"`
}

// TaskConfig configures one scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// TrackerConfig holds the task tracker settings.
type TrackerConfig struct {
	BatchPromptTimeout time.Duration `mapstructure:"batch_prompt_timeout" validate:"min=1m"`
	TaskPromptTimeout  time.Duration `mapstructure:"task_prompt_timeout"  validate:"min=1m"`
}

// PrayerConfig holds the prayer reminder settings. Reminders are disabled
// without a channel.
type PrayerConfig struct {
	ChannelID string       `mapstructure:"channel_id"`
	APIURL    string       `mapstructure:"api_url" validate:"required,url"`
	Method    int          `mapstructure:"method"  validate:"min=0,max=99"`
	Prayers   []string     `mapstructure:"prayers" validate:"min=1,dive,required"`
	Cities    []CityConfig `mapstructure:"cities"  validate:"dive"`
}

// CityConfig is one location prayer times are tracked for.
type CityConfig struct {
	Key      string `mapstructure:"key"      validate:"required"`
	Name     string `mapstructure:"name"     validate:"required"`
	Country  string `mapstructure:"country"  validate:"required"`
	Timezone string `mapstructure:"timezone" validate:"required"`
	// Mention is prepended to reminders, e.g. a user mention.
	Mention string `mapstructure:"mention"`
	Flag    string `mapstructure:"flag"`
}

// TikTokConfig holds the profile challenge settings. The challenge is disabled
// without a channel.
type TikTokConfig struct {
	ChannelID         string          `mapstructure:"channel_id"`
	Accounts          []AccountConfig `mapstructure:"accounts"            validate:"dive"`
	ChallengeEnd      time.Time       `mapstructure:"challenge_end"`
	PointsPerFollower int             `mapstructure:"points_per_follower" validate:"min=0"`
	PointsPerLike     int             `mapstructure:"points_per_like"     validate:"min=0"`
	UserAgent         string          `mapstructure:"user_agent"          validate:"required"`
}

// AccountConfig is one profile taking part in the challenge.
type AccountConfig struct {
	Username         string `mapstructure:"username"          validate:"required"`
	URL              string `mapstructure:"url"               validate:"required,url"`
	Name             string `mapstructure:"name"              validate:"required"`
	InitialFollowers int    `mapstructure:"initial_followers" validate:"min=0"`
	InitialLikes     int    `mapstructure:"initial_likes"     validate:"min=0"`
	ImageURL         string `mapstructure:"image_url"`
}

// HTTPConfig holds the outbound HTTP and connection settings.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"min=1s,max=5m"`
	// BreakerFailures is the number of consecutive failures that open a host's
	// circuit breaker.
	BreakerFailures uint32        `mapstructure:"breaker_failures" validate:"min=1"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"  validate:"min=1s"`
	// ConnectAttempts bounds the retries of the initial chat platform connection.
	ConnectAttempts uint          `mapstructure:"connect_attempts" validate:"min=1,max=20"`
	ConnectDelay    time.Duration `mapstructure:"connect_delay"    validate:"min=100ms"`
}

// Token returns the token of the configured platform.
func (c *Config) Token() string {
	if c.Platform == PlatformDiscord {
		return c.Discord.Token
	}
	return c.Telegram.Token
}

// CommandPrefix returns the command prefix of the configured platform.
func (c *Config) CommandPrefix() string {
	if c.Platform == PlatformDiscord {
		return c.Discord.Prefix
	}
	return "/"
}
