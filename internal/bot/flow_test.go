package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/vipbot/internal/payments"
	"github.com/m3rciful/vipbot/internal/session"
	"github.com/m3rciful/vipbot/internal/vip"
)

type stubInvoices struct {
	invoice *payments.Invoice
	err     error
	calls   int
}

func (s *stubInvoices) CreateInvoice(ctx context.Context, userID int64, amount decimal.Decimal) (*payments.Invoice, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	inv := *s.invoice
	inv.Amount = amount
	return &inv, nil
}

type stubGranter struct {
	grants   []vip.Grant
	grantErr error
	active   *vip.Grant
	nextID   int64
}

func (s *stubGranter) Grant(ctx context.Context, userID int64, method string) (*vip.Grant, error) {
	if s.grantErr != nil {
		return nil, s.grantErr
	}
	s.nextID++
	g := vip.Grant{ID: s.nextID, UserID: userID, GrantedAt: time.Now(), ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	s.grants = append(s.grants, g)
	return &g, nil
}

func (s *stubGranter) ActiveGrant(ctx context.Context, userID int64) (*vip.Grant, error) {
	return s.active, nil
}

func (s *stubGranter) Recent(ctx context.Context, limit int) ([]vip.Grant, error) {
	return s.grants, nil
}

func testInvoice() *payments.Invoice {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &payments.Invoice{
		ID:          "inv-1",
		OrderID:     "vip_42_1748779200",
		PayAddress:  "TXabc123def456",
		PayCurrency: "USDT",
		CreatedAt:   created,
		ExpiresAt:   created.Add(time.Hour),
	}
}

func newTestFlow(invoices InvoiceCreator, grants Granter) *Flow {
	f := NewFlow(session.NewManager(), invoices, grants, decimal.RequireFromString("10.00"))
	f.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return f
}

func TestFlowBeginStars(t *testing.T) {
	f := newTestFlow(nil, &stubGranter{})

	p := f.BeginStars(42)
	if want := "vip_access_42_1748779200"; p.Payload != want {
		t.Errorf("Payload = %q, want %q", p.Payload, want)
	}

	// A second attempt replaces the first marker.
	p2 := f.BeginStars(42)
	got, ok := f.sessions.Stars(42)
	if !ok || got.Payload != p2.Payload {
		t.Errorf("pending stars = %+v, want latest payload %q", got, p2.Payload)
	}
}

func TestFlowBeginCrypto(t *testing.T) {
	inv := &stubInvoices{invoice: testInvoice()}
	f := newTestFlow(inv, &stubGranter{})

	p, err := f.BeginCrypto(context.Background(), 42)
	if err != nil {
		t.Fatalf("BeginCrypto: %v", err)
	}
	if p.PayAddress != "TXabc123def456" {
		t.Errorf("PayAddress = %q", p.PayAddress)
	}
	if got, ok := f.CryptoStatus(42); !ok || got.InvoiceID != "inv-1" {
		t.Errorf("CryptoStatus = %+v, %v", got, ok)
	}
}

func TestFlowBeginCryptoFailureKeepsExistingPending(t *testing.T) {
	inv := &stubInvoices{invoice: testInvoice()}
	f := newTestFlow(inv, &stubGranter{})

	if _, err := f.BeginCrypto(context.Background(), 42); err != nil {
		t.Fatalf("BeginCrypto: %v", err)
	}

	inv.err = errors.New("provider down")
	_, err := f.BeginCrypto(context.Background(), 42)
	if !errors.Is(err, ErrCryptoUnavailable) {
		t.Fatalf("err = %v, want ErrCryptoUnavailable", err)
	}
	if got, ok := f.CryptoStatus(42); !ok || got.InvoiceID != "inv-1" {
		t.Errorf("pending after failed retry = %+v, %v; want original invoice kept", got, ok)
	}
}

func TestFlowCryptoUnavailableWithoutClient(t *testing.T) {
	f := newTestFlow(nil, &stubGranter{})
	if _, err := f.BeginCrypto(context.Background(), 42); !errors.Is(err, ErrCryptoUnavailable) {
		t.Fatalf("err = %v, want ErrCryptoUnavailable", err)
	}
}

func TestFlowCancel(t *testing.T) {
	inv := &stubInvoices{invoice: testInvoice()}
	f := newTestFlow(inv, &stubGranter{})

	if f.Cancel(42) {
		t.Error("Cancel with no pending should report false")
	}

	f.BeginStars(42)
	if _, err := f.BeginCrypto(context.Background(), 42); err != nil {
		t.Fatalf("BeginCrypto: %v", err)
	}
	if !f.Cancel(42) {
		t.Error("Cancel with pending should report true")
	}
	if _, ok := f.CryptoStatus(42); ok {
		t.Error("crypto pending survived Cancel")
	}
	if _, ok := f.sessions.Stars(42); ok {
		t.Error("stars pending survived Cancel")
	}
}

func TestFlowCancelCryptoStaleInvoice(t *testing.T) {
	inv := &stubInvoices{invoice: testInvoice()}
	f := newTestFlow(inv, &stubGranter{})

	if _, err := f.BeginCrypto(context.Background(), 42); err != nil {
		t.Fatalf("BeginCrypto: %v", err)
	}

	if f.CancelCrypto(42, "inv-obsolete") {
		t.Error("cancel with a stale invoice id must be a no-op")
	}
	if _, ok := f.CryptoStatus(42); !ok {
		t.Error("pending cleared by stale cancel")
	}

	if !f.CancelCrypto(42, "inv-1") {
		t.Error("cancel with the live invoice id should clear")
	}
}

func TestFlowCompleteStars(t *testing.T) {
	grants := &stubGranter{}
	f := newTestFlow(nil, grants)

	f.BeginStars(42)
	g, err := f.CompleteStars(context.Background(), 42)
	if err != nil {
		t.Fatalf("CompleteStars: %v", err)
	}
	if g == nil || g.UserID != 42 {
		t.Fatalf("grant = %+v", g)
	}
	if _, ok := f.sessions.Stars(42); ok {
		t.Error("pending marker survived completion")
	}
}

func TestFlowCompleteStarsWithoutMarker(t *testing.T) {
	grants := &stubGranter{}
	f := newTestFlow(nil, grants)

	// Telegram's confirmation is authoritative even with no local marker.
	if _, err := f.CompleteStars(context.Background(), 42); err != nil {
		t.Fatalf("CompleteStars: %v", err)
	}
	if len(grants.grants) != 1 {
		t.Errorf("grants = %d, want 1", len(grants.grants))
	}
}

func TestFlowCompleteStarsGrantErrorKeepsMarker(t *testing.T) {
	grants := &stubGranter{grantErr: errors.New("db down")}
	f := newTestFlow(nil, grants)

	f.BeginStars(42)
	if _, err := f.CompleteStars(context.Background(), 42); err == nil {
		t.Fatal("CompleteStars succeeded, want error")
	}
	if _, ok := f.sessions.Stars(42); !ok {
		t.Error("marker cleared despite failed grant")
	}
}

func TestFlowActiveGrant(t *testing.T) {
	grants := &stubGranter{}
	f := newTestFlow(nil, grants)

	g, err := f.ActiveGrant(context.Background(), 42)
	if err != nil || g != nil {
		t.Fatalf("ActiveGrant without grant = %v, %v; want nil, nil", g, err)
	}

	grants.active = &vip.Grant{ID: 1, UserID: 42, ExpiresAt: time.Now().Add(time.Hour)}
	g, err = f.ActiveGrant(context.Background(), 42)
	if err != nil {
		t.Fatalf("ActiveGrant: %v", err)
	}
	if g == nil || g.ID != 1 {
		t.Fatalf("ActiveGrant = %+v, want grant 1", g)
	}
}

// End to end: real provider client against a stub server, instructions built
// from the resulting pending payment.
func TestFlowCryptoEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"9001","invoice_url":"https://pay.example.com/i/9001","pay_address":"TXabc123"}`)
	}))
	defer srv.Close()

	client := payments.NewClient(payments.Config{BaseURL: srv.URL, APIKey: "k"}, srv.Client())
	f := newTestFlow(client, &stubGranter{})

	p, err := f.BeginCrypto(context.Background(), 7)
	if err != nil {
		t.Fatalf("BeginCrypto: %v", err)
	}

	msg := cryptoInstructionsMessage(p)
	for _, want := range []string{"$10.00 USDT", "`TXabc123`", "1 hour", "/check_payment"} {
		if !strings.Contains(msg, want) {
			t.Errorf("instructions missing %q:\n%s", want, msg)
		}
	}
}
