// Package config loads the bot's full configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/vipbot/core/config"
	coredatabase "github.com/m3rciful/vipbot/core/database"
)

// PaymentsConfig configures both payment methods.
type PaymentsConfig struct {
	// Price is the subscription price in USD, e.g. "10.00".
	Price       string `yaml:"price" envconfig:"VIP_PRICE_USD"`
	StarsAmount int    `yaml:"stars_amount" envconfig:"VIP_STARS_AMOUNT"`
	// StarsProviderToken is passed as the invoice provider token. Stars
	// (XTR) invoices accept an empty token.
	StarsProviderToken string `yaml:"stars_provider_token" envconfig:"TELEGRAM_STARS_TOKEN"`

	Crypto CryptoConfig `yaml:"crypto"`

	// priceDecimal caches the parsed Price after Normalize.
	priceDecimal decimal.Decimal
}

// CryptoConfig configures the external crypto invoice provider.
type CryptoConfig struct {
	BaseURL     string `yaml:"base_url" envconfig:"CRYPTO_API_URL"`
	APIKey      string `yaml:"api_key" envconfig:"CRYPTO_API_KEY"`
	BotURL      string `yaml:"bot_url" envconfig:"CRYPTO_BOT_URL"`
	CallbackURL string `yaml:"callback_url" envconfig:"CRYPTO_CALLBACK_URL"`
	SuccessURL  string `yaml:"success_url" envconfig:"CRYPTO_SUCCESS_URL"`
	CancelURL   string `yaml:"cancel_url" envconfig:"CRYPTO_CANCEL_URL"`
}

// VIPConfig holds the VIP subscription settings.
type VIPConfig struct {
	DurationDays int    `yaml:"duration_days" envconfig:"VIP_DURATION_DAYS"`
	ChannelLink  string `yaml:"channel_link" envconfig:"VIP_CHANNEL_LINK"`
}

// Config is the application configuration: the reusable core plus the
// bot's own sections.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Payments PaymentsConfig      `yaml:"payments"`
	VIP      VIPConfig           `yaml:"vip"`
}

// CoreConfig returns the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// Price returns the parsed subscription price. Valid only after Load.
func (c *Config) Price() decimal.Decimal {
	return c.Payments.priceDecimal
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills in defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return err
	}

	p := &cfg.Payments
	if strings.TrimSpace(p.Price) == "" {
		p.Price = "10.00"
	}
	price, err := decimal.NewFromString(strings.TrimSpace(p.Price))
	if err != nil {
		return fmt.Errorf("invalid payments.price %q: %w", p.Price, err)
	}
	if price.Sign() <= 0 {
		return fmt.Errorf("payments.price must be > 0, got %q", p.Price)
	}
	p.priceDecimal = price

	if p.StarsAmount <= 0 {
		p.StarsAmount = 100
	}

	c := &p.Crypto
	if strings.TrimSpace(c.BaseURL) != "" {
		c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
		if strings.TrimSpace(c.APIKey) == "" {
			return fmt.Errorf("payments.crypto.api_key is required when base_url is set")
		}
		if strings.TrimSpace(c.CallbackURL) == "" {
			if base := strings.TrimSpace(cfg.Core.Webhook.URL); base != "" {
				c.CallbackURL = strings.TrimRight(base, "/") + "/crypto_webhook"
			}
		}
		if strings.TrimSpace(c.SuccessURL) == "" {
			c.SuccessURL = c.BotURL
		}
		if strings.TrimSpace(c.CancelURL) == "" {
			c.CancelURL = c.BotURL
		}
	}

	if cfg.VIP.DurationDays <= 0 {
		cfg.VIP.DurationDays = 30
	}
	return nil
}
