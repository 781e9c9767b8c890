package config

import "time"

// Storage backends for the durable token slot.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// Config holds runtime settings for the session client.
//
// Fields:
//   - ServerBaseURL: root of the identity API, e.g. http://localhost:5000/api.
//   - RequestTimeout: per-request bound applied by the HTTP client; 0 disables it.
//   - StorageBackend: "sqlite" or "redis".
//   - DatabasePath: SQLite file used when StorageBackend is "sqlite".
//   - RedisAddr, RedisKeyPrefix: Redis location and key namespace.
//   - PhoneRegion: default region for displaying phone numbers.
//   - LogLevel: debug, info, warn, error or off.
type Config struct {
	ServerBaseURL  string
	RequestTimeout time.Duration
	StorageBackend string
	DatabasePath   string
	RedisAddr      string
	RedisKeyPrefix string
	PhoneRegion    string
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://localhost:5000/api"
	c.RequestTimeout = 10 * time.Second
	c.StorageBackend = StorageSQLite
	c.DatabasePath = "session.db"
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisKeyPrefix = "gophauth:"
	c.PhoneRegion = "US"
	c.LogLevel = "info"
}

// LoadConfig applies defaults, then a JSON file (if -c/-config is given),
// then command-line flags. Later sources win.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
