// Package payments talks to the external crypto payment provider.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"log/slog"

	"github.com/m3rciful/vipbot/core/logger"
)

// ErrorKind classifies invoice-creation failures.
type ErrorKind int

const (
	// KindNetwork covers transport failures: dial, timeout, connection reset.
	KindNetwork ErrorKind = iota
	// KindStatus covers non-201 responses from the provider.
	KindStatus
	// KindMalformed covers unparseable or incomplete provider responses.
	KindMalformed
)

// Error is a provider failure with a stable kind. The provider detail stays in
// the logs; callers show users a generic message.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("payments: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Code returns a stable identifier for handler summary logs.
func (e *Error) Code() string {
	switch e.Kind {
	case KindNetwork:
		return "PROVIDER_NETWORK"
	case KindStatus:
		return "PROVIDER_STATUS"
	case KindMalformed:
		return "PROVIDER_MALFORMED"
	}
	return "PROVIDER_UNKNOWN"
}

// Invoice is a created crypto payment request.
type Invoice struct {
	ID            string
	URL           string
	OrderID       string
	PayAddress    string
	Amount        decimal.Decimal
	PriceCurrency string
	PayCurrency   string
	CreatedAt     time.Time
	// ExpiresAt is computed locally (creation + 1h); the provider neither
	// supplies nor enforces it.
	ExpiresAt time.Time
}

// invoiceExpiry is the advisory invoice lifetime shown to users.
const invoiceExpiry = time.Hour

const defaultTimeout = 15 * time.Second

// Config holds provider connection settings.
type Config struct {
	BaseURL     string
	APIKey      string
	CallbackURL string
	SuccessURL  string
	CancelURL   string
}

// Client creates invoices against the provider's HTTP API.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
	now  func() time.Time
}

// NewClient builds a Client. A nil httpClient selects a default with a 15s timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	log := logger.SVCPayments
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: httpClient,
		log:  log,
		now:  time.Now,
	}
}

type invoiceRequest struct {
	PriceAmount      float64 `json:"price_amount"`
	PriceCurrency    string  `json:"price_currency"`
	PayCurrency      string  `json:"pay_currency"`
	OrderID          string  `json:"order_id"`
	OrderDescription string  `json:"order_description"`
	IPNCallbackURL   string  `json:"ipn_callback_url"`
	SuccessURL       string  `json:"success_url"`
	CancelURL        string  `json:"cancel_url"`
}

// flexID accepts the invoice id as either a JSON string or a number.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type invoiceResponse struct {
	ID         flexID `json:"id"`
	InvoiceURL string `json:"invoice_url"`
	PayAddress string `json:"pay_address"`
}

// CreateInvoice asks the provider for a USDT invoice quoted in USD.
// On any failure it returns a typed *Error and leaves no state behind.
func (c *Client) CreateInvoice(ctx context.Context, userID int64, amount decimal.Decimal) (*Invoice, error) {
	createdAt := c.now()
	orderID := fmt.Sprintf("vip_%d_%d", userID, createdAt.Unix())
	requestID := uuid.New().String()

	reqBody := invoiceRequest{
		PriceAmount:      amount.InexactFloat64(),
		PriceCurrency:    "usd",
		PayCurrency:      "usdt",
		OrderID:          orderID,
		OrderDescription: "VIP Channel Access - 1 Month",
		IPNCallbackURL:   c.cfg.CallbackURL,
		SuccessURL:       c.cfg.SuccessURL,
		CancelURL:        c.cfg.CancelURL,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &Error{Kind: KindMalformed, Op: "encode request", Err: err}
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/invoice"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("invoice request failed",
			slog.String("event", "invoice.create"),
			slog.String("status", "fail"),
			slog.String("order_id", orderID),
			slog.String("rid", requestID),
			slog.Duration("duration", logger.RoundMS(logger.Took(start))),
			slog.String("err", err.Error()),
		)
		return nil, &Error{Kind: KindNetwork, Op: "create invoice", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: "read response", Err: err}
	}

	if resp.StatusCode != http.StatusCreated {
		c.log.Error("provider rejected invoice",
			slog.String("event", "invoice.create"),
			slog.String("status", "fail"),
			slog.String("order_id", orderID),
			slog.String("rid", requestID),
			slog.Int("http_code", resp.StatusCode),
			slog.String("payload", logger.SanitizeLimit(string(body), 512)),
		)
		return nil, &Error{
			Kind: KindStatus,
			Op:   "create invoice",
			Err:  fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var parsed invoiceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &Error{Kind: KindMalformed, Op: "decode response", Err: err}
	}
	if parsed.ID == "" || parsed.PayAddress == "" {
		return nil, &Error{
			Kind: KindMalformed,
			Op:   "decode response",
			Err:  fmt.Errorf("missing id or pay_address"),
		}
	}

	inv := &Invoice{
		ID:            string(parsed.ID),
		URL:           parsed.InvoiceURL,
		OrderID:       orderID,
		PayAddress:    parsed.PayAddress,
		Amount:        amount,
		PriceCurrency: "USD",
		PayCurrency:   "USDT",
		CreatedAt:     createdAt,
		ExpiresAt:     createdAt.Add(invoiceExpiry),
	}

	c.log.Info("invoice created",
		slog.String("event", "invoice.create"),
		slog.String("status", "ok"),
		slog.String("order_id", orderID),
		slog.String("invoice_id", inv.ID),
		slog.String("amount", amount.StringFixed(2)),
		slog.String("currency", "usd"),
		slog.String("rid", requestID),
		slog.Duration("duration", logger.RoundMS(logger.Took(start))),
	)
	return inv, nil
}
