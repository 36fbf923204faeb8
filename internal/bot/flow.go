package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/vipbot/internal/payments"
	"github.com/m3rciful/vipbot/internal/session"
	"github.com/m3rciful/vipbot/internal/vip"
)

// ErrCryptoUnavailable is returned when the crypto provider is not configured
// or the invoice request failed.
var ErrCryptoUnavailable = errors.New("crypto payment service unavailable")

// InvoiceCreator creates crypto invoices with the external provider.
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, userID int64, amount decimal.Decimal) (*payments.Invoice, error)
}

// Granter issues and reads VIP grants.
type Granter interface {
	Grant(ctx context.Context, userID int64, method string) (*vip.Grant, error)
	ActiveGrant(ctx context.Context, userID int64) (*vip.Grant, error)
	Recent(ctx context.Context, limit int) ([]vip.Grant, error)
}

// Flow drives the payment state machine: pending markers, invoice creation,
// cancellation, and completion. Telegram handlers stay thin on top of it.
type Flow struct {
	sessions *session.Manager
	invoices InvoiceCreator
	grants   Granter
	price    decimal.Decimal
	now      func() time.Time
}

// NewFlow wires the flow service. A nil invoices client disables crypto
// payments; BeginCrypto then reports ErrCryptoUnavailable.
func NewFlow(sessions *session.Manager, invoices InvoiceCreator, grants Granter, price decimal.Decimal) *Flow {
	return &Flow{
		sessions: sessions,
		invoices: invoices,
		grants:   grants,
		price:    price,
		now:      time.Now,
	}
}

// Price returns the subscription price in USD.
func (f *Flow) Price() decimal.Decimal {
	return f.price
}

// BeginStars records a pending Stars payment and returns the invoice payload.
// A previous pending Stars payment is overwritten.
func (f *Flow) BeginStars(userID int64) session.StarsPending {
	now := f.now()
	p := session.StarsPending{
		UserID:    userID,
		Payload:   fmt.Sprintf("vip_access_%d_%d", userID, now.Unix()),
		CreatedAt: now,
	}
	f.sessions.SetStars(userID, p)
	return p
}

// BeginCrypto creates a provider invoice and records the pending crypto
// payment. On failure no session state is touched; an existing pending crypto
// payment survives the failed attempt.
func (f *Flow) BeginCrypto(ctx context.Context, userID int64) (session.CryptoPending, error) {
	if f.invoices == nil {
		return session.CryptoPending{}, ErrCryptoUnavailable
	}
	inv, err := f.invoices.CreateInvoice(ctx, userID, f.price)
	if err != nil {
		return session.CryptoPending{}, fmt.Errorf("%w: %w", ErrCryptoUnavailable, err)
	}
	p := session.CryptoPending{
		UserID:      userID,
		InvoiceID:   inv.ID,
		OrderID:     inv.OrderID,
		PayAddress:  inv.PayAddress,
		Amount:      inv.Amount,
		PayCurrency: inv.PayCurrency,
		CreatedAt:   inv.CreatedAt,
		ExpiresAt:   inv.ExpiresAt,
	}
	f.sessions.SetCrypto(userID, p)
	return p, nil
}

// Cancel clears all pending payments for the user. It reports whether any
// marker existed.
func (f *Flow) Cancel(userID int64) bool {
	stars := f.sessions.ClearStars(userID)
	crypto := f.sessions.ClearCrypto(userID)
	return stars || crypto
}

// CancelCrypto clears the pending crypto payment only when it still refers to
// the given invoice. A stale cancel button from an overwritten invoice is a
// no-op.
func (f *Flow) CancelCrypto(userID int64, invoiceID string) bool {
	p, ok := f.sessions.Crypto(userID)
	if !ok || p.InvoiceID != invoiceID {
		return false
	}
	return f.sessions.ClearCrypto(userID)
}

// CompleteStars grants access for a confirmed Stars payment. The grant is
// written before the pending marker is cleared so a storage failure leaves the
// marker intact. Completion does not require a pending marker: Telegram's
// payment confirmation is authoritative.
func (f *Flow) CompleteStars(ctx context.Context, userID int64) (*vip.Grant, error) {
	g, err := f.grants.Grant(ctx, userID, "stars")
	if err != nil {
		return nil, err
	}
	f.sessions.ClearStars(userID)
	return g, nil
}

// CryptoStatus returns the user's pending crypto payment, if any.
func (f *Flow) CryptoStatus(userID int64) (session.CryptoPending, bool) {
	return f.sessions.Crypto(userID)
}

// ActiveGrant returns the user's active VIP grant, or nil.
func (f *Flow) ActiveGrant(ctx context.Context, userID int64) (*vip.Grant, error) {
	return f.grants.ActiveGrant(ctx, userID)
}

// RecentGrants lists the newest grants for the admin overview.
func (f *Flow) RecentGrants(ctx context.Context, limit int) ([]vip.Grant, error) {
	return f.grants.Recent(ctx, limit)
}
