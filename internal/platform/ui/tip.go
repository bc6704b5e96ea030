package ui

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/ohmynofan/tipverse/internal/domain/model"
)

const estimatedGas = "~$0.15"

// RenderTipView draws the tip dialog as a boxed text block.
func RenderTipView(view model.TipView) string {
	var b strings.Builder

	switch view.State {
	case model.DialogClosed:
		return pterm.DefaultBox.WithTitle("Tip").Sprint("Dialog closed")
	case model.DialogLoading:
		b.WriteString("Loading tokens and balances...\n")
	}

	refresh := ""
	if view.Refreshing {
		refresh = " (refreshing)"
	}
	b.WriteString(fmt.Sprintf("Select Token%s\n", refresh))
	if len(view.Tokens) == 0 {
		b.WriteString("  no tokens available\n")
	}
	for _, opt := range view.Tokens {
		marker := " "
		if opt.Symbol == view.SelectedToken {
			marker = ">"
		}
		b.WriteString(fmt.Sprintf(" %s %-8s Balance: %s\n", marker, opt.Symbol, opt.Balance))
	}

	b.WriteString(fmt.Sprintf("\nAmount        : %s %s\n", defaultString(view.Amount, "0.00"), view.SelectedToken))
	if view.Amount != "" {
		b.WriteString(fmt.Sprintf("                ≈ $%s USD\n", view.USDValue))
	}
	if view.Insufficient {
		b.WriteString("                " + pterm.Red("Insufficient balance") + "\n")
	}
	b.WriteString(fmt.Sprintf("Quick amounts : %s\n", strings.Join(view.QuickAmounts, " | ")))

	b.WriteString(fmt.Sprintf("\nTime remaining: %s\n", view.Content.TimeRemaining))
	b.WriteString(fmt.Sprintf("Early bonus   : %s\n", view.BonusPercent))
	if view.Amount != "" {
		b.WriteString(fmt.Sprintf("XP earned     : +%d XP\n", view.ProjectedXP))
	}
	b.WriteString(fmt.Sprintf("Estimated gas : %s\n", estimatedGas))

	if view.State == model.DialogSubmitting {
		b.WriteString("\nProcessing...")
	}

	return pterm.DefaultBox.WithTitle("Tip @" + view.Recipient.Username).Sprint(strings.TrimRight(b.String(), "\n"))
}

func PrintTipView(view model.TipView) {
	fmt.Println(RenderTipView(view))
}

// Notifier prints dialog notifications as pterm prefixed lines.
type Notifier struct{}

func (Notifier) Notify(n model.Notification) {
	msg := n.Title
	if n.Description != "" {
		msg = fmt.Sprintf("%s: %s", n.Title, n.Description)
	}
	if n.Variant == model.NotifyDestructive {
		pterm.Error.Println(msg)
		return
	}
	pterm.Success.Println(msg)
}
