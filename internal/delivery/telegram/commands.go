package telegram

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jperaza/finbot/internal/domain"
	"github.com/jperaza/finbot/internal/usecase"
	"github.com/shopspring/decimal"
)

const HelpText = `Just write what you want, in Spanish or English:
- "precio de tesla" / "price of AAPL"
- "avísame si BTC baja de 30000"
- "alert me if TSLA goes above 300"
- any other question goes to the assistant

Commands:
/start - welcome
/help - show this help
/alerts - list the alerts created from this chat
/shock <symbol> - recent shock check (1h move vs threshold)

Alerts fire once: after the notification the alert stays in the list as done.
`

var ErrInvalidArguments = errors.New("invalid arguments")

func ParseSymbolArg(args string) (string, error) {
	symbol := strings.TrimSpace(args)
	if symbol == "" {
		return "", ErrInvalidArguments
	}
	return symbol, nil
}

func formatAlertCreated(alert *domain.Alert) string {
	return fmt.Sprintf(
		"Alert created: #%d %s %s %s",
		alert.ID, alert.Symbol, conditionGlyph(alert.Condition), alert.Threshold,
	)
}

func formatAlertList(alerts []domain.Alert) string {
	var builder strings.Builder
	builder.WriteString("Your alerts:\n")
	for _, alert := range alerts {
		status := "pending"
		if alert.Notified {
			status = "done"
		}
		builder.WriteString(fmt.Sprintf(
			"#%d [%s] %s %s %s\n",
			alert.ID, status, alert.Symbol, conditionGlyph(alert.Condition), alert.Threshold,
		))
	}
	return builder.String()
}

func formatQuote(quote *usecase.Quote) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Precio %s (%s): %s USD", quote.Name, quote.Symbol, quote.Price.Round(2)))

	deltas := make([]string, 0, 3)
	if quote.Changes.H1 != nil {
		deltas = append(deltas, fmt.Sprintf("1h %s%%", signedPct(*quote.Changes.H1)))
	}
	if quote.Changes.H24 != nil {
		deltas = append(deltas, fmt.Sprintf("24h %s%%", signedPct(*quote.Changes.H24)))
	}
	if quote.Changes.D7 != nil {
		deltas = append(deltas, fmt.Sprintf("7d %s%%", signedPct(*quote.Changes.D7)))
	}
	if len(deltas) > 0 {
		builder.WriteString("\n" + strings.Join(deltas, " | "))
	}
	return builder.String()
}

func formatShock(shock domain.ShockEvent) string {
	delta := "N/A"
	if shock.Delta1h != nil {
		delta = signedPct(*shock.Delta1h) + "%"
	}
	if shock.ThresholdHit == "none" {
		return fmt.Sprintf("%s: no shock (1h move %s)", shock.Symbol, delta)
	}
	return fmt.Sprintf("%s: shock on the %s window (1h move %s)", shock.Symbol, shock.ThresholdHit, delta)
}

func signedPct(value decimal.Decimal) string {
	rounded := value.Round(2)
	if rounded.IsNegative() {
		return rounded.String()
	}
	return "+" + rounded.String()
}

func conditionGlyph(condition domain.Condition) string {
	if condition == domain.ConditionLessThan {
		return "<"
	}
	return ">"
}
