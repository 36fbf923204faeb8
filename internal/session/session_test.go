package session

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestManagerStarsLifecycle(t *testing.T) {
	m := NewManager()

	if _, ok := m.Stars(1); ok {
		t.Fatal("fresh manager should hold no stars marker")
	}

	m.SetStars(1, StarsPending{UserID: 1, Payload: "vip_access_1_100", CreatedAt: time.Now()})
	p, ok := m.Stars(1)
	if !ok || p.Payload != "vip_access_1_100" {
		t.Fatalf("unexpected marker: %+v ok=%v", p, ok)
	}

	if cleared := m.ClearStars(1); !cleared {
		t.Fatal("expected ClearStars to report an existing marker")
	}
	if cleared := m.ClearStars(1); cleared {
		t.Fatal("second ClearStars should find nothing to delete")
	}
}

func TestManagerCryptoOverwrite(t *testing.T) {
	m := NewManager()
	first := CryptoPending{UserID: 7, InvoiceID: "inv-1", PayAddress: "TXold", Amount: decimal.RequireFromString("10.00")}
	second := CryptoPending{UserID: 7, InvoiceID: "inv-2", PayAddress: "TXnew", Amount: decimal.RequireFromString("10.00")}

	m.SetCrypto(7, first)
	m.SetCrypto(7, second)

	p, ok := m.Crypto(7)
	if !ok {
		t.Fatal("expected crypto marker")
	}
	if p.InvoiceID != "inv-2" || p.PayAddress != "TXnew" {
		t.Fatalf("new invoice must overwrite the previous one, got %+v", p)
	}
}

func TestManagerKindsCoexist(t *testing.T) {
	m := NewManager()
	m.SetStars(3, StarsPending{UserID: 3})
	m.SetCrypto(3, CryptoPending{UserID: 3, InvoiceID: "inv-3"})

	kinds := m.Pending(3)
	if len(kinds) != 2 {
		t.Fatalf("expected both marker kinds, got %v", kinds)
	}

	m.Clear(3)
	if kinds := m.Pending(3); kinds != nil {
		t.Fatalf("expected empty session after Clear, got %v", kinds)
	}
}

func TestManagerIsolatesUsers(t *testing.T) {
	m := NewManager()
	m.SetCrypto(1, CryptoPending{UserID: 1, InvoiceID: "inv-a"})

	if _, ok := m.Crypto(2); ok {
		t.Fatal("marker leaked across users")
	}
}
