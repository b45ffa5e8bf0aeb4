package notifier

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/pretty"

	"CoveredStop/internal/calculator"
	"CoveredStop/internal/model"
)

// Money renders v with two decimals.
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatReport renders a report as plain text for terminals.
func FormatReport(rep *model.Report) string {
	var b strings.Builder
	r := rep.Result
	b.WriteString(fmt.Sprintf("Results for %s (%s)\n", rep.Symbol, rep.Source))
	b.WriteString(fmt.Sprintf("Entry Price: $%s\n", Money(r.EntryPrice)))
	b.WriteString(fmt.Sprintf("ATR (%d-day) over last %d weeks: %s\n", calculator.ATRPeriod, rep.Weeks, Money(r.ATR)))
	b.WriteString(fmt.Sprintf("Recommended Stop-Loss Price: $%s\n", Money(r.StopLossPrice)))
	b.WriteString(fmt.Sprintf("  ATR floor (%s x ATR): $%s\n", decimal.NewFromFloat(rep.Params.ATRMultiplier).String(), Money(r.StopLossATR)))
	b.WriteString(fmt.Sprintf("  Max-loss floor (%s%%): $%s\n", decimal.NewFromFloat(rep.Params.MaxLossFraction*100).Round(2).String(), Money(r.StopLossMax)))
	b.WriteString(fmt.Sprintf("  Binding: %s\n", bindingLabel(r.Binding)))
	return b.String()
}

// FormatTelegramReport renders a report for Telegram's HTML parse mode.
func FormatTelegramReport(rep *model.Report) string {
	var b strings.Builder
	r := rep.Result
	b.WriteString(fmt.Sprintf("🛡 <b>Covered Call Stop-Loss</b> | %s | %s\n\n",
		html.EscapeString(rep.Symbol), rep.GeneratedAt.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Entry Price: $%s\n", Money(r.EntryPrice)))
	b.WriteString(fmt.Sprintf("ATR (%d-day, %dw): %s\n", calculator.ATRPeriod, rep.Weeks, Money(r.ATR)))
	b.WriteString(fmt.Sprintf("<b>Stop-Loss: $%s</b> (%s)\n", Money(r.StopLossPrice), bindingLabel(r.Binding)))
	return b.String()
}

// FormatError renders a failure for Telegram.
func FormatError(symbol string, err error) string {
	return fmt.Sprintf("❌ %s: %s", html.EscapeString(symbol), html.EscapeString(err.Error()))
}

// FormatJSON renders a report as indented JSON.
func FormatJSON(rep *model.Report) ([]byte, error) {
	raw, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return pretty.Pretty(raw), nil
}

func bindingLabel(b model.Binding) string {
	switch b {
	case model.BindingATR:
		return "volatility floor"
	case model.BindingMaxLoss:
		return "max-loss cap"
	default:
		return string(b)
	}
}
