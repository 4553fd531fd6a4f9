package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"PriceOracle/internal/trainer"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	DataSource DataSource         `yaml:"data_source"`
	Indicators Indicators         `yaml:"indicators"`
	Training   Training           `yaml:"training"`
	Model      trainer.ArchConfig `yaml:"model"`
	Cache      Cache              `yaml:"cache"`
	Database   Database           `yaml:"database"`
	Telegram   Telegram           `yaml:"telegram"`
	Schedule   Schedule           `yaml:"schedule"`
	Server     Server             `yaml:"server"`
	Log        Log                `yaml:"log"`
	Tracing    Tracing            `yaml:"tracing"`
	Proxy      string             `yaml:"proxy"`
}

type DataSource struct {
	Provider string        `yaml:"provider" default:"alphavantage" validate:"oneof=alphavantage mock"`
	BaseURL  string        `yaml:"base_url" default:"https://www.alphavantage.co/query" validate:"url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
}

type Indicators struct {
	SMAPeriod int `yaml:"sma_period" default:"20" validate:"gt=0"`
	RSIPeriod int `yaml:"rsi_period" default:"14" validate:"gt=0"`
}

// Training holds the window length and the fit knobs.
type Training struct {
	Window              int `yaml:"window" default:"10" validate:"gt=0"`
	trainer.TrainConfig `yaml:",inline"`
}

type Cache struct {
	Backend    string        `yaml:"backend" default:"memory" validate:"oneof=none memory redis"`
	TTL        time.Duration `yaml:"ttl" default:"6h" validate:"gte=0"`
	MaxEntries int           `yaml:"max_entries" default:"256" validate:"gt=0"`
	Redis      Redis         `yaml:"redis"`
}

type Redis struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
	Prefix   string `yaml:"prefix" default:"priceoracle"`
}

type Database struct {
	SQLitePath string `yaml:"sqlite_path" default:"data/price_oracle.db"`
}

type Telegram struct {
	Enabled     bool          `yaml:"enabled"`
	BotToken    string        `yaml:"bot_token"`
	ChatID      string        `yaml:"chat_id"`
	PollTimeout time.Duration `yaml:"poll_timeout" default:"30s"`
}

type Schedule struct {
	Enabled   bool     `yaml:"enabled"`
	Cron      string   `yaml:"cron" default:"0 30 18 * * 1-5"`
	Watchlist []string `yaml:"watchlist"`
}

type Server struct {
	Enabled         bool          `yaml:"enabled" default:"true"`
	Addr            string        `yaml:"addr" default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

type Log struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	Output string `yaml:"output" default:"stdout"`
}

type Tracing struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name" default:"price-oracle"`
}

var validate = validator.New()

// Load starts from the struct defaults, overlays the YAML file and then applies
// environment variable overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// Path returns CONFIG_PATH or DefaultPath.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.Schedule.Watchlist = strings.Split(v, ",")
	}
	if v := os.Getenv("TRAINING_EPOCHS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Training.Epochs = n
		}
	}
}

// Validate checks field constraints and the rules that span sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("invalid %s: failed %q (value %v)", e.Namespace(), e.Tag(), e.Value())
		}
		return err
	}
	if c.DataSource.Provider == "alphavantage" && c.DataSource.APIKey == "" {
		return fmt.Errorf("data_source.api_key is required for the alphavantage provider")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required")
		}
	}
	if c.Schedule.Enabled && len(c.Schedule.Watchlist) == 0 {
		return fmt.Errorf("schedule.watchlist cannot be empty when the schedule is enabled")
	}
	return nil
}
