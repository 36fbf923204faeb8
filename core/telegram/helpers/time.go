package helpers

import (
	"fmt"
	"time"
)

// FormatExpiry renders an absolute expiry timestamp for user-facing messages.
func FormatExpiry(t time.Time) string {
	return t.Format("02 Jan 2006 15:04 MST")
}

// FormatRemaining renders the time left until t in the largest useful unit.
// Past or zero times render as "expired".
func FormatRemaining(t time.Time, now time.Time) string {
	d := t.Sub(now)
	if d <= 0 {
		return "expired"
	}
	switch {
	case d >= 48*time.Hour:
		return fmt.Sprintf("%d days", int(d.Hours())/24)
	case d >= 2*time.Hour:
		return fmt.Sprintf("%d hours", int(d.Hours()))
	case d >= 2*time.Minute:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	default:
		return "less than a minute"
	}
}
