package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Config struct {
	AppPort        string
	LogLevel       string
	RequestTimeout time.Duration

	StoreDriver string

	MongoURI string
	MongoDB  string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	SQLitePath string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	// Loan policy: due_date defaults to loan_date + LoanPeriodDays unless
	// the client sends one; extend adds LoanExtensionDays.
	LoanPeriodDays    int
	LoanExtensionDays int
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("config: ignoring non-integer value", "key", k, "value", v)
	}
	return d
}

// Load reads .env when present, then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("config: .env not loaded", "err", err)
	}
	return &Config{
		AppPort:        getenv("APP_PORT", "8080"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		RequestTimeout: time.Duration(getint("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,

		StoreDriver: strings.ToLower(getenv("STORE_DRIVER", DriverMongo)),

		MongoURI: getenv("MONGO_URI", "mongodb://mongo-db:27017"),
		MongoDB:  getenv("MONGO_DB", "mediatheque"),

		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "mediatheque"),
		MySQLUser: getenv("MYSQL_USER", "mediatheque"),
		MySQLPass: getenv("MYSQL_PASS", "mediatheque"),

		SQLitePath: getenv("SQLITE_PATH", "mediatheque.db"),

		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisDB:      getint("REDIS_DB", 0),
		IdempTTLSecs: getint("IDEMPOTENCY_TTL_SECONDS", 300),

		LoanPeriodDays:    getint("LOAN_PERIOD_DAYS", 14),
		LoanExtensionDays: getint("LOAN_EXTENSION_DAYS", 7),
	}
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" || c.MongoDB == "" {
			return errors.New("missing Mongo config (MONGO_URI/MONGO_DB)")
		}
	case DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want mongo, mysql or sqlite)", c.StoreDriver)
	}
	if c.LoanPeriodDays <= 0 || c.LoanExtensionDays <= 0 {
		return errors.New("LOAN_PERIOD_DAYS and LOAN_EXTENSION_DAYS must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// SQLDSN returns the DSN for the relational drivers.
func (c *Config) SQLDSN() string {
	if c.StoreDriver == DriverSQLite {
		return c.SQLitePath
	}
	return c.MySQLDSN()
}

func (c *Config) LoanPeriod() time.Duration {
	return time.Duration(c.LoanPeriodDays) * 24 * time.Hour
}

func (c *Config) LoanExtension() time.Duration {
	return time.Duration(c.LoanExtensionDays) * 24 * time.Hour
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

// SlogLevel maps LOG_LEVEL onto slog levels; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
