package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverMongo    = "mongodb"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	SessionStoreCookie = "cookie"
	SessionStoreRedis  = "redis"
)

type Config struct {
	DBDriver   string `yaml:"db_driver"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBDSN      string `yaml:"db_dsn"`

	MongoURI      string `yaml:"mongodb_uri"`
	MongoDatabase string `yaml:"mongodb_database"`

	SessionStore  string `yaml:"session_store"`
	RedisHost     string `yaml:"redis_host"`
	RedisPort     string `yaml:"redis_port"`
	SessionSecret string `yaml:"session_secret"`

	JWTSecret string        `yaml:"jwt_secret"`
	JWTTTL    time.Duration `yaml:"jwt_ttl"`

	GinMode      string `yaml:"gin_mode"`
	Port         string `yaml:"port"`
	OpenAIAPIKey string `yaml:"openai_api_key"`

	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
	AdminName     string `yaml:"admin_name"`

	OverdueDigestInterval time.Duration `yaml:"overdue_digest_interval"`
	Timezone              string        `yaml:"timezone"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		DBDriver:              DriverSQLite,
		DBHost:                "localhost",
		DBPort:                "3306",
		DBUser:                "taskuser",
		DBPassword:            "taskpassword",
		DBName:                "task_manager",
		DBDSN:                 "task_manager.db",
		MongoURI:              "mongodb://localhost:27017",
		MongoDatabase:         "task_manager",
		SessionStore:          SessionStoreCookie,
		RedisHost:             "localhost",
		RedisPort:             "6379",
		SessionSecret:         "default-secret-key-change-me",
		JWTSecret:             "default-jwt-secret-change-me",
		JWTTTL:                24 * time.Hour,
		GinMode:               "debug",
		Port:                  "8080",
		AdminName:             "Administrator",
		OverdueDigestInterval: time.Hour,
		Timezone:              "UTC",
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CONFIG_FILE (if any) and environment variables, in increasing precedence.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the values present in a YAML file.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBPort = getEnv("DB_PORT", c.DBPort)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)
	c.DBDSN = getEnv("DB_DSN", c.DBDSN)
	c.MongoURI = getEnv("MONGODB_URI", c.MongoURI)
	c.MongoDatabase = getEnv("MONGODB_DATABASE", c.MongoDatabase)
	c.SessionStore = getEnv("SESSION_STORE", c.SessionStore)
	c.RedisHost = getEnv("REDIS_HOST", c.RedisHost)
	c.RedisPort = getEnv("REDIS_PORT", c.RedisPort)
	c.SessionSecret = getEnv("SESSION_SECRET", c.SessionSecret)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	c.Port = getEnv("PORT", c.Port)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.AdminEmail = getEnv("ADMIN_EMAIL", c.AdminEmail)
	c.AdminPassword = getEnv("ADMIN_PASSWORD", c.AdminPassword)
	c.AdminName = getEnv("ADMIN_NAME", c.AdminName)
	c.Timezone = getEnv("TIMEZONE", c.Timezone)

	var err error
	if c.JWTTTL, err = getDuration("JWT_TTL", c.JWTTTL); err != nil {
		return err
	}
	if c.OverdueDigestInterval, err = getDuration("OVERDUE_DIGEST_INTERVAL", c.OverdueDigestInterval); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMongo, DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.SessionStore {
	case SessionStoreCookie, SessionStoreRedis:
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.SessionStore)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.OverdueDigestInterval < time.Second || c.OverdueDigestInterval%time.Second != 0 {
		return fmt.Errorf("OVERDUE_DIGEST_INTERVAL must be a positive whole number of seconds, got %s", c.OverdueDigestInterval)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
