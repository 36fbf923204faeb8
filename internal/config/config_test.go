package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalYAML = `
telegram:
  token: "123456:test-token"
  admin_id: 99
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Price().StringFixed(2); got != "10.00" {
		t.Errorf("Price = %s, want 10.00", got)
	}
	if cfg.Payments.StarsAmount != 100 {
		t.Errorf("StarsAmount = %d, want 100", cfg.Payments.StarsAmount)
	}
	if cfg.VIP.DurationDays != 30 {
		t.Errorf("DurationDays = %d, want 30", cfg.VIP.DurationDays)
	}
	if cfg.CoreConfig().Telegram.AdminID != 99 {
		t.Errorf("AdminID = %d, want 99", cfg.CoreConfig().Telegram.AdminID)
	}
}

func TestLoadCryptoSection(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
telegram:
  token: "123456:test-token"
payments:
  price: "12.50"
  stars_provider_token: "stars-tok"
  crypto:
    base_url: "https://api.provider.example/v1/"
    api_key: "k1"
    bot_url: "https://t.me/vip_bot"
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Payments.Crypto.BaseURL; got != "https://api.provider.example/v1" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", got)
	}
	if got := cfg.Payments.Crypto.SuccessURL; got != "https://t.me/vip_bot" {
		t.Errorf("SuccessURL = %q, want bot URL default", got)
	}
	if got := cfg.Price().StringFixed(2); got != "12.50" {
		t.Errorf("Price = %s, want 12.50", got)
	}
	if got := cfg.Payments.StarsProviderToken; got != "stars-tok" {
		t.Errorf("StarsProviderToken = %q, want stars-tok", got)
	}
}

func TestLoadCryptoRequiresAPIKey(t *testing.T) {
	_, err := Load(writeConfig(t, `
telegram:
  token: "123456:test-token"
payments:
  crypto:
    base_url: "https://api.provider.example"
`))
	if err == nil {
		t.Fatal("Load succeeded, want missing api_key error")
	}
}

func TestLoadInvalidPrice(t *testing.T) {
	for _, price := range []string{"free", "-1", "0"} {
		t.Run(price, func(t *testing.T) {
			_, err := Load(writeConfig(t, minimalYAML+"payments:\n  price: \""+price+"\"\n"))
			if err == nil {
				t.Fatalf("Load accepted price %q", price)
			}
		})
	}
}

func TestLoadMissingToken(t *testing.T) {
	if _, err := Load(writeConfig(t, "telegram:\n  admin_id: 1\n")); err == nil {
		t.Fatal("Load succeeded without telegram token")
	}
}
