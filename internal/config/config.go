package config

// Config holds engine configuration loaded from environment variables.
// This struct uses github.com/caarlos0/env for automatic environment
// variable parsing.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis configuration
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// MilestoneConfigPath points at a YAML threshold-table file.
	// Empty means the built-in tables.
	MilestoneConfigPath string `env:"MILESTONE_CONFIG_PATH"`

	// TimeTravelDays shifts the engine's "now" by whole days for
	// developer testing. Refused outside non-production environments.
	TimeTravelDays int `env:"TIME_TRAVEL_DAYS" envDefault:"0"`
}

// RedisAddr joins the host and port options.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}
