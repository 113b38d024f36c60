package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed schedule.yaml
var scheduleYAML []byte

type Config struct {
	Database  DatabaseConfig
	Directory DirectoryConfig
	Storage   StorageConfig
	Web       WebConfig
	Schedule  ScheduleConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// DirectoryConfig points at an optional external HR directory.
// When URL is empty, employees and cameras are served from the primary store.
type DirectoryConfig struct {
	URL string // MariaDB DSN, e.g. hr:hr@tcp(hr-db:3306)/hr
}

type StorageConfig struct {
	Dir       string // root directory for stored face images
	ThumbSize int    // max thumbnail dimension in pixels (default 320)
}

type WebConfig struct {
	APIToken string // bearer token required for mutating endpoints (empty disables auth)
}

type ScheduleConfig struct {
	Workday WorkdayConfig `yaml:"workday"`
}

type WorkdayConfig struct {
	Start        string `yaml:"start"`         // "HH:MM" local time
	GraceMinutes int    `yaml:"grace_minutes"` // minutes after start still counted as on time
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envDefault reads an environment variable with a fallback default.
func envDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var schedule ScheduleConfig
	if err := yaml.Unmarshal(scheduleYAML, &schedule); err != nil {
		// Embedded file, so this can only break at build time.
		panic("failed to unmarshal embedded schedule.yaml: " + err.Error())
	}
	if s := os.Getenv("WORKDAY_START"); s != "" {
		schedule.Workday.Start = s
	}
	schedule.Workday.GraceMinutes = envInt("WORKDAY_GRACE_MINUTES", schedule.Workday.GraceMinutes)

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Directory: DirectoryConfig{
			URL: os.Getenv("DIRECTORY_DATABASE_URL"),
		},
		Storage: StorageConfig{
			Dir:       envDefault("STORAGE_DIR", "./data/faces"),
			ThumbSize: envInt("STORAGE_THUMB_SIZE", 320),
		},
		Web: WebConfig{
			APIToken: os.Getenv("API_TOKEN"),
		},
		Schedule: schedule,
	}
}
