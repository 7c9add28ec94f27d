package notifier

import (
	"fmt"
	"strings"
	"time"

	"AgentEscrow/internal/model"

	"github.com/dustin/go-humanize"
)

func units(v uint64) string {
	return humanize.Comma(int64(v))
}

func deadline(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04 MST")
}

// FormatEvent renders one escrow event as a Telegram HTML message.
func FormatEvent(evt model.Event) string {
	var b strings.Builder

	switch e := evt.(type) {
	case model.SessionCreated:
		b.WriteString("🆕 <b>Session created</b>\n\n")
		b.WriteString(fmt.Sprintf("Session: <code>%s</code>\n", e.SessionID))
		b.WriteString(fmt.Sprintf("Owner: <code>%s</code>\n", e.Owner))
		b.WriteString(fmt.Sprintf("Agent: <code>%s</code>\n", e.Agent))
		b.WriteString(fmt.Sprintf("Duration: %d days\n", e.DurationDays))
	case model.Deposited:
		b.WriteString("💰 <b>Vault funded</b>\n\n")
		b.WriteString(fmt.Sprintf("Session: <code>%s</code>\n", e.SessionID))
		b.WriteString(fmt.Sprintf("Deposit: %s\n", units(e.Amount)))
		b.WriteString(fmt.Sprintf("Setup fee: %s\n", units(e.Fee)))
		b.WriteString(fmt.Sprintf("Trading balance: %s\n", units(e.TradingBalance)))
		b.WriteString(fmt.Sprintf("Expires: %s\n", deadline(e.ExpiresAt)))
	case model.SwapExecuted:
		b.WriteString("🔄 <b>Swap authorized</b>\n\n")
		b.WriteString(fmt.Sprintf("Session: <code>%s</code>\n", e.SessionID))
		b.WriteString(fmt.Sprintf("Agent: <code>%s</code>\n", e.Agent))
		b.WriteString(fmt.Sprintf("Venue: <code>%s</code>\n", e.Venue))
		b.WriteString(fmt.Sprintf("Amount in: %s\n", units(e.AmountIn)))
		b.WriteString(fmt.Sprintf("Minimum out: %s\n", units(e.MinimumAmountOut)))
	case model.ComputeFeeDeducted:
		b.WriteString("🔧 <b>Compute fee deducted</b>\n\n")
		b.WriteString(fmt.Sprintf("Session: <code>%s</code>\n", e.SessionID))
		b.WriteString(fmt.Sprintf("Fee: %s\n", units(e.Fee)))
		b.WriteString(fmt.Sprintf("Remaining balance: %s\n", units(e.RemainingBalance)))
	case model.SessionPaused:
		b.WriteString("⏸ <b>Session paused</b>\n\n")
		b.WriteString(fmt.Sprintf("Session: <code>%s</code>\n", e.SessionID))
	case model.SessionResumed:
		b.WriteString("▶️ <b>Session resumed</b>\n\n")
		b.WriteString(fmt.Sprintf("Session: <code>%s</code>\n", e.SessionID))
	case model.Withdrawn:
		b.WriteString("🏧 <b>Funds withdrawn</b>\n\n")
		b.WriteString(fmt.Sprintf("Session: <code>%s</code>\n", e.SessionID))
		b.WriteString(fmt.Sprintf("Amount: %s\n", units(e.Amount)))
		b.WriteString(fmt.Sprintf("Owner: <code>%s</code>\n", e.Owner))
	case model.SessionExpired:
		b.WriteString("⌛ <b>Session expired</b>\n\n")
		b.WriteString(fmt.Sprintf("Session: <code>%s</code>\n", e.SessionID))
		b.WriteString(fmt.Sprintf("Remaining balance: %s (claimable by owner)\n", units(e.RemainingBalance)))
	default:
		b.WriteString(fmt.Sprintf("<b>%s</b> | session <code>%s</code>\n", evt.EventType(), evt.Session()))
	}

	return b.String()
}

// FormatVault renders a vault record for status queries.
func FormatVault(v *model.Vault) string {
	var b strings.Builder
	b.WriteString("📦 <b>Vault status</b>\n\n")
	b.WriteString(fmt.Sprintf("Session: <code>%s</code>\n", v.SessionID))
	b.WriteString(fmt.Sprintf("Status: %s\n", v.Status))
	b.WriteString(fmt.Sprintf("Owner: <code>%s</code>\n", v.Owner))
	b.WriteString(fmt.Sprintf("Agent: <code>%s</code>\n", v.Agent))
	b.WriteString(fmt.Sprintf("Balance: %s\n", units(v.Balance)))
	b.WriteString(fmt.Sprintf("Setup fee collected: %s\n", units(v.FeeCollected)))
	b.WriteString(fmt.Sprintf("Compute fees paid: %s\n", units(v.ComputeFeesPaid)))
	if v.ExpiresAt > 0 {
		b.WriteString(fmt.Sprintf("Expires: %s\n", deadline(v.ExpiresAt)))
	}
	return b.String()
}
