package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug LogLevel = "debug"
	Info  LogLevel = "info"
	Warn  LogLevel = "warn"
	Error LogLevel = "error"
)

const envPrefix = "TP_"

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func IsDebug() bool {
	return os.Getenv(envPrefix+"DEBUG") == "true"
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, postgres or mysql
	Path string `yaml:"path"` // sqlite only
	DSN  string `yaml:"dsn"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type TelegramConfig struct {
	Enabled  bool             `yaml:"enabled"`
	BotToken string           `yaml:"botToken"`
	Users    map[int64]string `yaml:"users"` // telegram user id -> panel username
}

type Config struct {
	Listen              string          `yaml:"listen"`
	Port                int             `yaml:"port"`
	BasePath            string          `yaml:"basePath"`
	LogLevel            LogLevel        `yaml:"logLevel"`
	Database            DatabaseConfig  `yaml:"database"`
	SessionSecret       string          `yaml:"sessionSecret"`
	SessionMaxAge       int             `yaml:"sessionMaxAge"` // minutes, 0 means browser session
	AllowRegister       bool            `yaml:"allowRegister"`
	ChangeRetentionDays int             `yaml:"changeRetentionDays"`
	RateLimit           RateLimitConfig `yaml:"rateLimit"`
	Telegram            TelegramConfig  `yaml:"telegram"`
}

func Default() *Config {
	return &Config{
		Listen:   "",
		Port:     3001,
		BasePath: "/",
		LogLevel: Info,
		Database: DatabaseConfig{
			Type: "sqlite",
			Path: filepath.Join(defaultDBFolder(), GetName()+".db"),
		},
		SessionMaxAge:       0,
		AllowRegister:       true,
		ChangeRetentionDays: 30,
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   15 * time.Minute,
		},
	}
}

func defaultDBFolder() string {
	dbFolder := os.Getenv(envPrefix + "DB_FOLDER")
	if dbFolder != "" {
		return dbFolder
	}
	return "db"
}

// Load builds the configuration from defaults, then the optional YAML file
// at path, then a .env file in the working directory, then TP_* variables.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if IsDebug() {
		c.LogLevel = Debug
	}
	return c, c.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(envPrefix + "LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(envPrefix + "PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPORT: %w", envPrefix, err)
		}
		c.Port = port
	}
	if v := os.Getenv(envPrefix + "BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.LogLevel = LogLevel(strings.ToLower(v))
	}
	if v := os.Getenv(envPrefix + "DB_TYPE"); v != "" {
		c.Database.Type = v
	}
	if v := os.Getenv(envPrefix + "DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(envPrefix + "DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(envPrefix + "SESSION_SECRET"); v != "" {
		c.SessionSecret = v
	}
	if v := os.Getenv(envPrefix + "ALLOW_REGISTER"); v != "" {
		allow, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sALLOW_REGISTER: %w", envPrefix, err)
		}
		c.AllowRegister = allow
	}
	if v := os.Getenv(envPrefix + "TELEGRAM_TOKEN"); v != "" {
		c.Telegram.BotToken = v
		c.Telegram.Enabled = true
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.LogLevel {
	case Debug, Info, Warn, Error:
	default:
		return fmt.Errorf("unknown log level: %q", c.LogLevel)
	}
	switch c.Database.Type {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database path is required for sqlite")
		}
	case "postgres", "mysql":
		if c.Database.DSN == "" {
			return fmt.Errorf("database dsn is required for %s", c.Database.Type)
		}
	default:
		return fmt.Errorf("unknown database type: %q", c.Database.Type)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.RateLimit.Requests < 0 || c.RateLimit.Window < 0 {
		return errors.New("rate limit must not be negative")
	}
	if c.ChangeRetentionDays < 0 {
		return errors.New("changeRetentionDays must not be negative")
	}
	if !strings.HasPrefix(c.BasePath, "/") {
		c.BasePath = "/" + c.BasePath
	}
	if !strings.HasSuffix(c.BasePath, "/") {
		c.BasePath += "/"
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Listen, c.Port)
}
