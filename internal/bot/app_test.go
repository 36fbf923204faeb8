package bot

import (
	"testing"

	"github.com/m3rciful/vipbot/internal/config"
	"github.com/m3rciful/vipbot/internal/session"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := &config.Config{}
	cfg.Core.Telegram.Token = "123456:test-token"
	cfg.Core.Telegram.AdminID = 99
	if err := config.Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	flow := NewFlow(session.NewManager(), nil, &stubGranter{}, cfg.Price())
	return &App{cfg: cfg, handlers: NewHandlers(flow, cfg)}
}

// Every reply keyboard button must resolve to its command through the alias
// lookup the text router uses.
func TestRegistryButtonAliases(t *testing.T) {
	reg := newTestApp(t).Registry()

	cases := []struct {
		text string
		want string
	}{
		{btnBuy, "/buy"},
		{btnInfo, "/info"},
		{btnStars, "/pay_stars"},
		{btnCrypto, "/pay_crypto"},
		{btnCancel, "/cancel"},
		{"/buy", "/buy"},
		{"/check_payment", "/check_payment"},
	}
	for _, tc := range cases {
		key, cmd, ok := reg.LookupCommand(tc.text)
		if !ok {
			t.Errorf("LookupCommand(%q) not found", tc.text)
			continue
		}
		if key != tc.want {
			t.Errorf("LookupCommand(%q) = %q, want %q", tc.text, key, tc.want)
		}
		if cmd.Handler == nil {
			t.Errorf("LookupCommand(%q) has nil handler", tc.text)
		}
	}
}

// Free text that matches nothing must stay unmatched so the text route drops
// it silently.
func TestRegistryUnknownTextUnmatched(t *testing.T) {
	reg := newTestApp(t).Registry()

	for _, text := range []string{"hello", "/unknown", "pay"} {
		if _, _, ok := reg.LookupCommand(text); ok {
			t.Errorf("LookupCommand(%q) matched, want miss", text)
		}
	}
	if reg.TextFallback() != nil {
		t.Error("text fallback set; unmatched text should be dropped")
	}
}

func TestRegistryMenuHidesInternalCommands(t *testing.T) {
	reg := newTestApp(t).Registry()

	visible := map[string]bool{}
	for _, c := range reg.ListCommands(true) {
		visible[c.Text] = true
	}
	for _, want := range []string{"/start", "/info", "/buy", "/vip", "/check_payment"} {
		if !visible[want] {
			t.Errorf("%s missing from the command menu", want)
		}
	}
	for _, hidden := range []string{"/pay_stars", "/pay_crypto", "/cancel", "/grants"} {
		if visible[hidden] {
			t.Errorf("%s should not appear in the command menu", hidden)
		}
	}
}

func TestRegistryAdminCommand(t *testing.T) {
	reg := newTestApp(t).Registry()

	_, cmd, ok := reg.LookupCommand("/grants")
	if !ok {
		t.Fatal("/grants not registered")
	}
	if !cmd.AdminOnly || !cmd.Hidden {
		t.Errorf("/grants AdminOnly=%v Hidden=%v, want both true", cmd.AdminOnly, cmd.Hidden)
	}
}

func TestRegistryCryptoCancelCallback(t *testing.T) {
	reg := newTestApp(t).Registry()

	if _, ok := reg.GetCallback(cbCryptoCancel); !ok {
		t.Errorf("callback %q not registered", cbCryptoCancel)
	}
}
