package bot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/vipbot/core/telegram/format"
	tghelpers "github.com/m3rciful/vipbot/core/telegram/helpers"
	"github.com/m3rciful/vipbot/internal/session"
	"github.com/m3rciful/vipbot/internal/vip"
)

// Reply keyboard button labels. The labels double as command aliases so the
// text router resolves button presses to the same handlers.
const (
	btnBuy    = "💰 Buy VIP Access"
	btnInfo   = "ℹ️ Info"
	btnStars  = "⭐ Pay with Telegram Stars"
	btnCrypto = "🪙 Pay with Crypto (USDT)"
	btnCancel = "❌ Cancel"
)

const (
	msgWelcome = "Welcome to VIP Channel Bot! Get exclusive access to premium content."

	msgInfo = "🌟 VIP Channel Bot\n\n" +
		"Get access to exclusive content, early features, and premium community.\n\n" +
		"Click 'Buy VIP Access' to get started!"

	msgCancelled = "Payment cancelled."

	msgNoPending = "No pending payment found."

	msgCryptoUnavailable = "❌ Crypto payment service unavailable. Try Telegram Stars."

	msgPaymentSuccess = "🎉 *Payment Successful!*\n\n" +
		"You now have VIP access for 1 month!\n\n" +
		"Use /vip to access exclusive content."

	msgStatusCheck = "🔍 *Payment Status Check*\n\n" +
		"For automatic verification, we're setting up instant confirmation.\n\n" +
		"In the meantime, please send your transaction hash to @admin for manual verification."

	msgNoVIP = "You don't have active VIP access yet.\n\n" +
		"Click 'Buy VIP Access' to get started!"
)

// Stars invoice fields.
const (
	starsInvoiceTitle       = "🌟 VIP Channel Access"
	starsInvoiceDescription = "1 month access to exclusive VIP content and features"
	starsInvoicePriceLabel  = "VIP Access (1 Month)"
	starsInvoiceStart       = "vip-subscription"
	starsCurrency           = "XTR"
)

func paymentOptionsMessage(price decimal.Decimal) string {
	return "💰 *Choose Payment Method*\n\n" +
		"⭐ *Telegram Stars* - Instant access, paid with Stars\n" +
		"🪙 *Crypto* - Pay with USDT (TRC20)\n\n" +
		fmt.Sprintf("VIP Access: $%s/month", formatPrice(price))
}

// formatPrice drops the cents for whole-dollar prices ("$10/month") and keeps
// two decimals otherwise.
func formatPrice(price decimal.Decimal) string {
	if price.Equal(price.Truncate(0)) {
		return price.StringFixed(0)
	}
	return price.StringFixed(2)
}

func cryptoInstructionsMessage(p session.CryptoPending) string {
	return "🪙 *Crypto Payment Instructions*\n\n" +
		fmt.Sprintf("*Amount:* $%s USDT\n", p.Amount.StringFixed(2)) +
		"*Network:* TRC20 (Tron)\n" +
		fmt.Sprintf("*Wallet Address:*\n`%s`\n\n", p.PayAddress) +
		"📍 *Send exact amount to the address above*\n" +
		"⏰ *Expires in:* 1 hour\n\n" +
		"After sending, use /check_payment to verify"
}

func vipActiveMessage(g *vip.Grant, channelLink string) string {
	var b strings.Builder
	b.WriteString("💎 *Your VIP access is active!*\n\n")
	fmt.Fprintf(&b, "*Expires:* %s\n", tghelpers.FormatExpiry(g.ExpiresAt))
	if channelLink != "" {
		// Invite links often carry underscores; escape so Markdown
		// rendering does not mangle them.
		link, err := format.EscapeMarkdown(channelLink, format.MarkdownV1, "")
		if err != nil {
			link = channelLink
		}
		fmt.Fprintf(&b, "\nJoin the channel: %s", link)
	}
	return b.String()
}

func grantsOverviewMessage(grants []vip.Grant) string {
	if len(grants) == 0 {
		return "No grants recorded yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Recent VIP grants (%d):\n", len(grants))
	for _, g := range grants {
		fmt.Fprintf(&b, "#%d user %d until %s\n",
			g.ID, g.UserID, g.ExpiresAt.UTC().Format("2006-01-02 15:04"))
	}
	return b.String()
}
