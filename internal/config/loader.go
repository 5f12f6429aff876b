package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Default values for optional configuration parameters.
const (
	DefaultLogLevel = "info"
	DefaultPlatform = PlatformTelegram

	DefaultDiscordPrefix = "!"

	DefaultStoreBackend = StoreFile
	DefaultStorePath    = "tasks.json"

	DefaultSchedulerTimezone = "UTC"

	DefaultBatchPromptTimeout = 24 * time.Hour
	DefaultTaskPromptTimeout  = time.Hour

	DefaultPrayerAPIURL = "http://api.aladhan.com/v1/timingsByCity"
	DefaultPrayerMethod = 3 // ISNA

	DefaultPointsPerFollower = 20
	DefaultPointsPerLike     = 1
	DefaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	DefaultHTTPTimeout     = 15 * time.Second
	DefaultBreakerFailures = 5
	DefaultBreakerTimeout  = time.Minute
	DefaultConnectAttempts = 5
	DefaultConnectDelay    = 2 * time.Second
)

// DefaultPrayers are the prayers reminders are sent for.
var DefaultPrayers = []string{"Fajr", "Maghrib"}

// DefaultTasks are the scheduled tasks and their cron schedules.
var DefaultTasks = map[string]TaskConfig{
	"morning_reminder":  {Enabled: true, Schedule: "0 6 * * *"},
	"evening_check":     {Enabled: true, Schedule: "0 22 * * *"},
	"prayer_check":      {Enabled: true, Schedule: "* * * * *"},
	"tiktok_report":     {Enabled: true, Schedule: "0 10 * * *"},
	"store_maintenance": {Enabled: true, Schedule: "0 3 * * 0"},
}

// LoadConfig reads the configuration file at path (a missing file is fine),
// applies BOT_* environment overrides over the defaults and validates the
// result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("platform", DefaultPlatform)
	v.SetDefault("telegram.token", "")
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.prefix", DefaultDiscordPrefix)

	v.SetDefault("store.backend", DefaultStoreBackend)
	v.SetDefault("store.path", DefaultStorePath)

	v.SetDefault("scheduler.timezone", DefaultSchedulerTimezone)
	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}

	v.SetDefault("tracker.batch_prompt_timeout", DefaultBatchPromptTimeout)
	v.SetDefault("tracker.task_prompt_timeout", DefaultTaskPromptTimeout)

	v.SetDefault("prayer.channel_id", "")
	v.SetDefault("prayer.api_url", DefaultPrayerAPIURL)
	v.SetDefault("prayer.method", DefaultPrayerMethod)
	v.SetDefault("prayer.prayers", DefaultPrayers)

	v.SetDefault("tiktok.channel_id", "")
	v.SetDefault("tiktok.points_per_follower", DefaultPointsPerFollower)
	v.SetDefault("tiktok.points_per_like", DefaultPointsPerLike)
	v.SetDefault("tiktok.user_agent", DefaultUserAgent)

	v.SetDefault("http.timeout", DefaultHTTPTimeout)
	v.SetDefault("http.breaker_failures", DefaultBreakerFailures)
	v.SetDefault("http.breaker_timeout", DefaultBreakerTimeout)
	v.SetDefault("http.connect_attempts", DefaultConnectAttempts)
	v.SetDefault("http.connect_delay", DefaultConnectDelay)
}

// Validate checks the struct tags and the rules that span sections.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if c.Token() == "" {
		return fmt.Errorf("%w: %s.token is required", ErrValidation, c.Platform)
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("%w: scheduler.timezone: %v", ErrValidation, err)
	}
	for _, city := range c.Prayer.Cities {
		if _, err := time.LoadLocation(city.Timezone); err != nil {
			return fmt.Errorf("%w: prayer city %s timezone: %v", ErrValidation, city.Key, err)
		}
	}
	if c.TikTok.ChannelID != "" && len(c.TikTok.Accounts) < 2 {
		return fmt.Errorf("%w: tiktok challenge needs at least two accounts", ErrValidation)
	}
	return nil
}
