package keyboard

import "testing"

func TestSingleCancelMarkup(t *testing.T) {
	markup := SingleCancelMarkup("crypto_cancel", "inv-1", "❌ Cancel payment")

	if len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 1 {
		t.Fatalf("keyboard shape = %v, want single row with single button", markup.InlineKeyboard)
	}
	btn := markup.InlineKeyboard[0][0]
	if btn.Unique != "crypto_cancel" {
		t.Errorf("Unique = %q, want crypto_cancel", btn.Unique)
	}
	if btn.Text != "❌ Cancel payment" {
		t.Errorf("Text = %q", btn.Text)
	}
	if btn.Data != "inv-1" {
		t.Errorf("Data = %q, want invoice id payload", btn.Data)
	}
}

func TestSingleCancelMarkupDefaults(t *testing.T) {
	markup := SingleCancelMarkup("action")
	btn := markup.InlineKeyboard[0][0]
	if btn.Text != defaultCancelButtonText {
		t.Errorf("Text = %q, want default cancel label", btn.Text)
	}
}

func TestInlineButtonsRows(t *testing.T) {
	markup := InlineButtonsRows(
		[]InlineBtn{{Text: "a", Unique: "ua"}, {Text: "b", Unique: "ub"}},
		[]InlineBtn{{Text: "c", Unique: "uc"}},
	)
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(markup.InlineKeyboard))
	}
	if got := len(markup.InlineKeyboard[0]); got != 2 {
		t.Errorf("first row buttons = %d, want 2", got)
	}
	if markup.InlineKeyboard[1][0].Unique != "uc" {
		t.Errorf("second row button = %+v", markup.InlineKeyboard[1][0])
	}
}
