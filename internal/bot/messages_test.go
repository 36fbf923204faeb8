package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/vipbot/internal/vip"
)

func TestPaymentOptionsMessage(t *testing.T) {
	msg := paymentOptionsMessage(decimal.RequireFromString("10.00"))
	for _, want := range []string{"Telegram Stars", "Crypto", "$10/month"} {
		if !strings.Contains(msg, want) {
			t.Errorf("options message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"10.00", "10"},
		{"10", "10"},
		{"12.50", "12.50"},
		{"9.99", "9.99"},
	}
	for _, tc := range cases {
		if got := formatPrice(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Errorf("formatPrice(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestVIPActiveMessage(t *testing.T) {
	g := &vip.Grant{
		UserID:    42,
		ExpiresAt: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
	}
	msg := vipActiveMessage(g, "https://t.me/+secret")
	if !strings.Contains(msg, "01 Jul 2025") {
		t.Errorf("message missing expiry date:\n%s", msg)
	}
	if !strings.Contains(msg, "https://t.me/+secret") {
		t.Errorf("message missing channel link:\n%s", msg)
	}

	if msg := vipActiveMessage(g, ""); strings.Contains(msg, "Join the channel") {
		t.Errorf("link line present without a configured link:\n%s", msg)
	}

	if msg := vipActiveMessage(g, "https://t.me/vip_channel"); !strings.Contains(msg, `vip\_channel`) {
		t.Errorf("underscore in link not escaped:\n%s", msg)
	}
}

func TestStarsInvoice(t *testing.T) {
	inv := starsInvoice("vip_access_42_1748779200", 100, "prov-token")
	if inv.Currency != "XTR" {
		t.Errorf("Currency = %q, want XTR", inv.Currency)
	}
	if inv.Token != "prov-token" {
		t.Errorf("Token = %q, want provider token from config", inv.Token)
	}
	if inv.Payload != "vip_access_42_1748779200" {
		t.Errorf("Payload = %q", inv.Payload)
	}
	if inv.Start != "vip-subscription" {
		t.Errorf("Start = %q", inv.Start)
	}
	if len(inv.Prices) != 1 {
		t.Fatalf("Prices = %d entries, want 1", len(inv.Prices))
	}
	if inv.Prices[0].Label != "VIP Access (1 Month)" || inv.Prices[0].Amount != 100 {
		t.Errorf("Price = %+v", inv.Prices[0])
	}

	// Stars invoices stay valid with no provider token configured.
	if inv := starsInvoice("p", 100, ""); inv.Token != "" {
		t.Errorf("Token = %q, want empty", inv.Token)
	}
}

func TestGrantsOverviewMessage(t *testing.T) {
	if got := grantsOverviewMessage(nil); got != "No grants recorded yet." {
		t.Errorf("empty overview = %q", got)
	}
	grants := []vip.Grant{
		{ID: 3, UserID: 42, ExpiresAt: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)},
	}
	msg := grantsOverviewMessage(grants)
	if !strings.Contains(msg, "#3 user 42 until 2025-07-01 12:00") {
		t.Errorf("overview = %q", msg)
	}
}
