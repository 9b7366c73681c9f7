package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/url"
	"strconv"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DefaultSessionSecret = "development_secret_change_in_production"
)

type Config struct {
	AppEnv string `mapstructure:"APP_ENV"`
	Port   string `mapstructure:"PORT"`

	DBDriver          string        `mapstructure:"DB_DRIVER"`
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            int           `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSLMODE"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`

	SessionSecret string        `mapstructure:"SESSION_SECRET"`
	SessionStore  string        `mapstructure:"SESSION_STORE"`
	SessionMaxAge time.Duration `mapstructure:"SESSION_MAX_AGE"`
	JWTSecret     string        `mapstructure:"JWT_SECRET"`

	RedisURL      string `mapstructure:"REDIS_URL"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	RateLimitMax           int           `mapstructure:"RATE_LIMIT_MAX"`
	RateLimitWindow        time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`
	AuthRateLimitPerMinute int           `mapstructure:"AUTH_RATE_LIMIT_PER_MINUTE"`
	AuthRateLimitBurst     int           `mapstructure:"AUTH_RATE_LIMIT_BURST"`

	LinksRequireAuth bool     `mapstructure:"LINKS_REQUIRE_AUTH"`
	TrustedProxies   []string `mapstructure:"TRUSTED_PROXIES"`
}

// LoadConfig reads settings from the environment, after merging an optional
// .env file from the working directory. Variables already set win over .env.
func LoadConfig() (config Config, err error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("unable to read .env file, %v", err)
	}

	v := viper.New()
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("PORT", "4000")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "db_links")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("SESSION_SECRET", DefaultSessionSecret)
	v.SetDefault("SESSION_STORE", "database")
	v.SetDefault("SESSION_MAX_AGE", "24h")
	v.SetDefault("JWT_SECRET", "jwt_secret_change_in_production")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("RATE_LIMIT_MAX", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "15m")
	v.SetDefault("AUTH_RATE_LIMIT_PER_MINUTE", 20)
	v.SetDefault("AUTH_RATE_LIMIT_BURST", 10)
	v.SetDefault("LINKS_REQUIRE_AUTH", false)
	v.SetDefault("TRUSTED_PROXIES", []string{})

	v.AutomaticEnv()
	if err = v.BindEnv("APP_ENV", "APP_ENV", "NODE_ENV"); err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		log.Printf("unable to decode into struct, %v", err)
		return
	}

	err = config.Validate()
	return
}

// Validate rejects settings that are only acceptable for local development.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.DBDriver)
	}
	switch c.SessionStore {
	case "database", "cookie":
	default:
		return fmt.Errorf("unsupported session store: %s", c.SessionStore)
	}
	if c.IsProduction() && (c.SessionSecret == "" || c.SessionSecret == DefaultSessionSecret) {
		return errors.New("SESSION_SECRET must be set in production")
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("rate limit max and window must be positive")
	}
	if c.AuthRateLimitPerMinute <= 0 || c.AuthRateLimitBurst <= 0 {
		return errors.New("auth rate limit per minute and burst must be positive")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

func (c Config) dbAddr() string {
	return net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort))
}

func (c Config) mysqlConfig() *mysqldriver.Config {
	mc := mysqldriver.NewConfig()
	mc.User = c.DBUser
	mc.Passwd = c.DBPassword
	mc.Net = "tcp"
	mc.Addr = c.dbAddr()
	mc.DBName = c.DBName
	mc.ParseTime = true
	mc.Loc = time.UTC
	// Updates report matched rows, so an unchanged edit is not mistaken for a missing link.
	mc.ClientFoundRows = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc
}

// GormDSN returns the data source name for the configured gorm dialector.
func (c Config) GormDSN() string {
	switch c.DBDriver {
	case "mysql":
		return c.mysqlConfig().FormatDSN()
	case "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
	default:
		return c.DBName
	}
}

// MigrateURL returns the golang-migrate database URL. SQLite is migrated by
// gorm and has no migrate URL.
func (c Config) MigrateURL() string {
	switch c.DBDriver {
	case "mysql":
		return "mysql://" + c.mysqlConfig().FormatDSN()
	case "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.DBUser, c.DBPassword),
			Host:     c.dbAddr(),
			Path:     "/" + c.DBName,
			RawQuery: url.Values{"sslmode": []string{c.DBSSLMode}}.Encode(),
		}
		return u.String()
	default:
		return ""
	}
}
