package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider     string        `yaml:"provider"` // yahoo, alpaca or mock
		Timeout      time.Duration `yaml:"timeout"`
		AlpacaKey    string        `yaml:"alpaca_key"`
		AlpacaSecret string        `yaml:"alpaca_secret"`
		AlpacaURL    string        `yaml:"alpaca_url"`
		AlpacaFeed   string        `yaml:"alpaca_feed"`
		MockPrice    float64       `yaml:"mock_price"`
	} `yaml:"data_source"`
	Defaults struct {
		Symbol        string  `yaml:"symbol"`
		MaxLossPct    float64 `yaml:"max_loss_pct"`
		ATRMultiplier float64 `yaml:"atr_multiplier"`
		Weeks         int     `yaml:"weeks"`
	} `yaml:"defaults"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env and the YAML file at path, then applies environment
// variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.DataSource.Provider, "DATA_PROVIDER")
	setString(&c.DataSource.AlpacaKey, "ALPACA_API_KEY")
	setString(&c.DataSource.AlpacaSecret, "ALPACA_SECRET_KEY")
	setString(&c.DataSource.AlpacaURL, "ALPACA_DATA_URL")
	setString(&c.DataSource.AlpacaFeed, "ALPACA_FEED")
	setString(&c.Defaults.Symbol, "DEFAULT_SYMBOL")
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&c.Schedule.DailyCron, "CRON_DAILY")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Proxy, "HTTPS_PROXY")

	if v := os.Getenv("MAX_LOSS_PCT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MAX_LOSS_PCT: %w", err)
		}
		c.Defaults.MaxLossPct = f
	}
	if v := os.Getenv("ATR_MULTIPLIER"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("ATR_MULTIPLIER: %w", err)
		}
		c.Defaults.ATRMultiplier = f
	}
	if v := os.Getenv("LOOKBACK_WEEKS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LOOKBACK_WEEKS: %w", err)
		}
		c.Defaults.Weeks = n
	}
	if v := os.Getenv("LOG_DEVELOPMENT"); v != "" {
		c.Log.Development, _ = strconv.ParseBool(v)
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.DataSource.Provider = strings.ToLower(strings.TrimSpace(c.DataSource.Provider))
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.DataSource.MockPrice == 0 {
		c.DataSource.MockPrice = 100
	}
	if c.Defaults.Symbol == "" {
		c.Defaults.Symbol = "TSLA"
	}
	if c.Defaults.MaxLossPct == 0 {
		c.Defaults.MaxLossPct = 10
	}
	if c.Defaults.ATRMultiplier == 0 {
		c.Defaults.ATRMultiplier = 2
	}
	if c.Defaults.Weeks == 0 {
		c.Defaults.Weeks = 12
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 30 16 * * 1-5"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "alpaca":
		if c.DataSource.AlpacaKey == "" || c.DataSource.AlpacaSecret == "" {
			return fmt.Errorf("data_source.alpaca_key and alpaca_secret are required for the alpaca provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not one of yahoo, alpaca, mock", c.DataSource.Provider)
	}
	if c.Defaults.MaxLossPct < 5 || c.Defaults.MaxLossPct > 20 {
		return fmt.Errorf("defaults.max_loss_pct must be within [5, 20]")
	}
	if c.Defaults.ATRMultiplier < 1 || c.Defaults.ATRMultiplier > 3 {
		return fmt.Errorf("defaults.atr_multiplier must be within [1, 3]")
	}
	if c.Defaults.Weeks < 4 || c.Defaults.Weeks > 52 {
		return fmt.Errorf("defaults.weeks must be within [4, 52]")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether Telegram delivery is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
