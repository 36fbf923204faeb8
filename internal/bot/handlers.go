package bot

import (
	"bytes"
	"log/slog"

	qrcode "github.com/skip2/go-qrcode"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/vipbot/core/logger"
	"github.com/m3rciful/vipbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/vipbot/core/telegram/helpers"
	"github.com/m3rciful/vipbot/core/telegram/keyboard"
	"github.com/m3rciful/vipbot/internal/config"
)

// cbCryptoCancel is the callback key of the inline cancel button attached to
// crypto payment instructions. Its payload carries the invoice id.
const cbCryptoCancel = "crypto_cancel"

// Handlers binds Telegram updates to the payment flow.
type Handlers struct {
	flow *Flow
	cfg  *config.Config
}

// NewHandlers builds the handler set.
func NewHandlers(flow *Flow, cfg *config.Config) *Handlers {
	return &Handlers{flow: flow, cfg: cfg}
}

func (h *Handlers) mainMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{btnBuy},
		[]string{btnInfo},
	)
}

// Start greets the user and shows the main menu.
func (h *Handlers) Start(c tele.Context) error {
	return tghelpers.SendText(c, msgWelcome, &tele.SendOptions{ReplyMarkup: h.mainMenu()})
}

// Info describes the subscription.
func (h *Handlers) Info(c tele.Context) error {
	return tghelpers.SendText(c, msgInfo)
}

// Buy shows the payment method keyboard.
func (h *Handlers) Buy(c tele.Context) error {
	markup := keyboard.OneTimeReplyButtons(
		[]string{btnStars},
		[]string{btnCrypto},
		[]string{btnCancel},
	)
	return tghelpers.SendMD(c, paymentOptionsMessage(h.flow.Price()), markup)
}

// starsInvoice builds the Stars invoice for the given payload.
func starsInvoice(payload string, amount int, providerToken string) *tele.Invoice {
	return &tele.Invoice{
		Title:       starsInvoiceTitle,
		Description: starsInvoiceDescription,
		Payload:     payload,
		Currency:    starsCurrency,
		Token:       providerToken,
		Prices: []tele.Price{
			{Label: starsInvoicePriceLabel, Amount: amount},
		},
		Start: starsInvoiceStart,
	}
}

// PayStars records the pending Stars payment and sends the invoice.
func (h *Handlers) PayStars(c tele.Context) error {
	pending := h.flow.BeginStars(c.Sender().ID)
	return c.Send(starsInvoice(pending.Payload, h.cfg.Payments.StarsAmount, h.cfg.Payments.StarsProviderToken))
}

// PayCrypto creates a crypto invoice and sends payment instructions together
// with a QR code of the deposit address.
func (h *Handlers) PayCrypto(c tele.Context) error {
	userID := c.Sender().ID

	pending, err := h.flow.BeginCrypto(tghelpers.BuildContext(c), userID)
	if err != nil {
		return tghelpers.SendText(c, msgCryptoUnavailable,
			&tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()})
	}

	if err := tghelpers.SendMD(c, cryptoInstructionsMessage(pending), keyboard.RemoveKeyboard()); err != nil {
		return err
	}

	markup := keyboard.SingleCancelMarkup(cbCryptoCancel, pending.InvoiceID, "❌ Cancel payment")
	png, err := qrcode.Encode(pending.PayAddress, qrcode.Medium, 256)
	if err != nil {
		logger.TG.Warn("qr encode failed",
			slog.String("event", "qr.encode"),
			slog.String("invoice_id", pending.InvoiceID),
			slog.String("err", err.Error()),
		)
		return c.Send("Scan unavailable, use the address above.", markup)
	}
	photo := &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(png)),
		Caption: "Scan to copy the deposit address",
	}
	return c.Send(photo, markup)
}

// Cancel clears any pending payment and removes the keyboard.
func (h *Handlers) Cancel(c tele.Context) error {
	h.flow.Cancel(c.Sender().ID)
	return tghelpers.SendText(c, msgCancelled,
		&tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()})
}

// CryptoCancel handles the inline cancel button under the QR message.
func (h *Handlers) CryptoCancel(c tele.Context) error {
	invoiceID := callbacks.CallbackPayload(c)
	if h.flow.CancelCrypto(c.Sender().ID, invoiceID) {
		// The button usually hangs off the QR photo, so edit the caption;
		// fall back to a plain message when it was attached to text.
		if err := c.EditCaption(msgCancelled); err == nil {
			return nil
		}
		return c.EditOrSend(msgCancelled)
	}
	// The callback router has already acknowledged the query; a second
	// respond may be rejected.
	_ = c.Respond(&tele.CallbackResponse{Text: "Nothing to cancel"})
	return nil
}

// CheckPayment reports the manual crypto verification path.
func (h *Handlers) CheckPayment(c tele.Context) error {
	if _, ok := h.flow.CryptoStatus(c.Sender().ID); !ok {
		return tghelpers.SendText(c, msgNoPending)
	}
	return tghelpers.SendMD(c, msgStatusCheck)
}

// VIP shows the user's access status and, when active, the channel link.
func (h *Handlers) VIP(c tele.Context) error {
	g, err := h.flow.ActiveGrant(tghelpers.BuildContext(c), c.Sender().ID)
	if err != nil {
		return err
	}
	if g == nil {
		return tghelpers.SendText(c, msgNoVIP, &tele.SendOptions{ReplyMarkup: h.mainMenu()})
	}
	return tghelpers.SendMD(c, vipActiveMessage(g, h.cfg.VIP.ChannelLink))
}

// Grants lists recent grants for the admin.
func (h *Handlers) Grants(c tele.Context) error {
	grants, err := h.flow.RecentGrants(tghelpers.BuildContext(c), 10)
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, grantsOverviewMessage(grants))
}

// Checkout approves the Stars pre-checkout query.
func (h *Handlers) Checkout(c tele.Context) error {
	return c.Accept()
}

// Payment completes a confirmed Stars payment: grant first, then clear the
// pending marker, then notify the user.
func (h *Handlers) Payment(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Payment == nil {
		return nil
	}
	userID := c.Sender().ID

	if _, err := h.flow.CompleteStars(tghelpers.BuildContext(c), userID); err != nil {
		logger.TG.Error("stars completion failed",
			slog.String("event", "payment.complete"),
			slog.Int64("user_id", userID),
			slog.String("payload", logger.Sanitize(msg.Payment.Payload)),
			slog.String("err", err.Error()),
		)
		return err
	}
	return tghelpers.SendMD(c, msgPaymentSuccess)
}
