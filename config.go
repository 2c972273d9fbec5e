package dbmysql

import (
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds the facility configuration loaded from environment variables.
//
// The fidelity defaults (BigNumberStrings, DateStrings, Timezone) are
// correctness decisions, not cosmetics: switching them off reintroduces
// float precision loss and host-local timezone conversion for every caller.
type Config struct {
	// Host and Port locate the MySQL server.
	Host string
	Port string
	// User, Password and Database are the connection credentials.
	User     string
	Password string
	Database string
	// ConnectionLimit caps the number of concurrent physical connections.
	ConnectionLimit int
	// Timezone is the fixed session offset so temporal values are
	// driver-normalized rather than host-local.
	Timezone string
	// BigNumberStrings keeps large/precise numeric columns as exact text
	// instead of floating point.
	BigNumberStrings bool
	// DateStrings keeps temporal columns as text instead of parsed
	// calendar values, avoiding implicit timezone conversion.
	DateStrings bool
	// StreamConcurrency restricts the number of concurrent streaming
	// queries against the pool. Zero disables the limit.
	StreamConcurrency int64
	// ConnectTimeout is the dial timeout for new physical connections.
	ConnectTimeout time.Duration
}

// DefaultConfig returns a Config with the load-bearing defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Host:              "localhost",
		Port:              "3306",
		User:              "root",
		Database:          "mysql",
		ConnectionLimit:   100,
		Timezone:          "+00:00",
		BigNumberStrings:  true,
		DateStrings:       true,
		StreamConcurrency: 3,
		ConnectTimeout:    10 * time.Second,
	}
}

// LoadConfig builds a Config from environment variables, falling back to
// DefaultConfig values.
func LoadConfig() *Config {
	def := DefaultConfig()
	return &Config{
		Host:              getEnv("MYSQL_HOST", def.Host),
		Port:              getEnv("MYSQL_PORT", def.Port),
		User:              getEnv("MYSQL_USER", def.User),
		Password:          getEnv("MYSQL_PASSWORD", def.Password),
		Database:          getEnv("MYSQL_DATABASE", def.Database),
		ConnectionLimit:   getEnvInt("MYSQL_CONNECTION_LIMIT", def.ConnectionLimit),
		Timezone:          getEnv("MYSQL_TIMEZONE", def.Timezone),
		BigNumberStrings:  getEnvBool("MYSQL_BIG_NUMBER_STRINGS", def.BigNumberStrings),
		DateStrings:       getEnvBool("MYSQL_DATE_STRINGS", def.DateStrings),
		StreamConcurrency: int64(getEnvInt("MYSQL_STREAM_CONCURRENCY", int(def.StreamConcurrency))),
		ConnectTimeout:    getEnvDuration("MYSQL_CONNECT_TIMEOUT", def.ConnectTimeout),
	}
}

// DSN renders the driver connection string.
//
// DateStrings maps to ParseTime=false so DATE/DATETIME columns arrive as
// text. BigNumberStrings maps to client-side interpolation, which keeps
// queries on the text protocol so numeric columns arrive as exact text
// rather than binary-protocol floats.
func (c *Config) DSN() string {
	drv := mysql.NewConfig()
	drv.User = c.User
	drv.Passwd = c.Password
	drv.Net = "tcp"
	drv.Addr = c.Host + ":" + c.Port
	drv.DBName = c.Database
	drv.Timeout = c.ConnectTimeout
	drv.ParseTime = !c.DateStrings
	drv.InterpolateParams = c.BigNumberStrings
	if c.Timezone != "" {
		drv.Params = map[string]string{
			"time_zone": "'" + c.Timezone + "'",
		}
	}
	return drv.FormatDSN()
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
