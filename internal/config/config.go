package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath   string `envconfig:"DB_PATH" default:"./data/attendance.db"`
	// UTCOffsetMin shifts "today" by a fixed number of minutes from UTC.
	// 330 = UTC+5:30. Deliberately not a timezone: no tz database, no DST.
	UTCOffsetMin int    `envconfig:"UTC_OFFSET_MIN" default:"330"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr     string `envconfig:"HTTP_ADDR" default:":8080"`
	// ReminderHour is the local hour (0..23) at which unmarked working days
	// trigger a nudge.
	ReminderHour int `envconfig:"REMINDER_HOUR" default:"20"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
