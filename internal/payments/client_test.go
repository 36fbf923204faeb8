package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		CallbackURL: "https://bot.example.com/crypto_webhook",
		SuccessURL:  "https://t.me/vip_test_bot",
		CancelURL:   "https://t.me/vip_test_bot",
	}, srv.Client())
	c.now = fixedNow
	return c
}

func TestCreateInvoice(t *testing.T) {
	var gotBody invoiceRequest
	var gotAPIKey, gotRequestID string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/invoice" {
			t.Errorf("path = %s, want /invoice", r.URL.Path)
		}
		gotAPIKey = r.Header.Get("x-api-key")
		gotRequestID = r.Header.Get("X-Request-ID")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          4387501,
			"invoice_url": "https://pay.example.com/invoice/4387501",
			"pay_address": "TXabc123def456",
		})
	})

	inv, err := c.CreateInvoice(context.Background(), 42, decimal.RequireFromString("10.00"))
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	if gotAPIKey != "test-key" {
		t.Errorf("x-api-key = %q, want %q", gotAPIKey, "test-key")
	}
	if gotRequestID == "" {
		t.Error("X-Request-ID header missing")
	}
	if gotBody.PriceAmount != 10.0 {
		t.Errorf("price_amount = %v, want 10", gotBody.PriceAmount)
	}
	if gotBody.PriceCurrency != "usd" {
		t.Errorf("price_currency = %q, want usd", gotBody.PriceCurrency)
	}
	if gotBody.PayCurrency != "usdt" {
		t.Errorf("pay_currency = %q, want usdt", gotBody.PayCurrency)
	}
	wantOrder := "vip_42_" + "1748779200"
	if gotBody.OrderID != wantOrder {
		t.Errorf("order_id = %q, want %q", gotBody.OrderID, wantOrder)
	}
	if gotBody.IPNCallbackURL != "https://bot.example.com/crypto_webhook" {
		t.Errorf("ipn_callback_url = %q", gotBody.IPNCallbackURL)
	}

	if inv.ID != "4387501" {
		t.Errorf("ID = %q, want 4387501", inv.ID)
	}
	if inv.PayAddress != "TXabc123def456" {
		t.Errorf("PayAddress = %q", inv.PayAddress)
	}
	if inv.OrderID != wantOrder {
		t.Errorf("OrderID = %q, want %q", inv.OrderID, wantOrder)
	}
	if !inv.CreatedAt.Equal(fixedNow()) {
		t.Errorf("CreatedAt = %v", inv.CreatedAt)
	}
	if want := fixedNow().Add(time.Hour); !inv.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", inv.ExpiresAt, want)
	}
}

func TestCreateInvoiceStringID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"inv-777","invoice_url":"https://pay.example.com/i/777","pay_address":"TXwallet"}`))
	})

	inv, err := c.CreateInvoice(context.Background(), 7, decimal.RequireFromString("10.00"))
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if inv.ID != "inv-777" {
		t.Errorf("ID = %q, want inv-777", inv.ID)
	}
}

func TestCreateInvoiceStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"invalid api key"}`))
	})

	_, err := c.CreateInvoice(context.Background(), 1, decimal.RequireFromString("10.00"))
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if perr.Kind != KindStatus {
		t.Errorf("Kind = %v, want KindStatus", perr.Kind)
	}
	if perr.Code() != "PROVIDER_STATUS" {
		t.Errorf("Code() = %q", perr.Code())
	}
}

func TestCreateInvoiceMalformed(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{"id": `},
		{"missing pay_address", `{"id":"1","invoice_url":"https://x"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.CreateInvoice(context.Background(), 1, decimal.RequireFromString("10.00"))
			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("err = %v, want *Error", err)
			}
			if perr.Kind != KindMalformed {
				t.Errorf("Kind = %v, want KindMalformed", perr.Kind)
			}
		})
	}
}

func TestCreateInvoiceNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"}, nil)
	c.now = fixedNow

	_, err := c.CreateInvoice(context.Background(), 1, decimal.RequireFromString("10.00"))
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if perr.Kind != KindNetwork {
		t.Errorf("Kind = %v, want KindNetwork", perr.Kind)
	}
	if perr.Code() != "PROVIDER_NETWORK" {
		t.Errorf("Code() = %q", perr.Code())
	}
}
