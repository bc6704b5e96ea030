package tipping

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ohmynofan/tipverse/internal/domain/model"
)

const bonusWindowHours = 24

var (
	QuickAmounts = []string{"1", "5", "10", "25"}

	bonusStep = decimal.New(1, -1)
)

// ParseAmount reads a user-entered amount. Empty, malformed and negative
// input all count as zero.
func ParseAmount(amount string) decimal.Decimal {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(amount)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ValidAmountInput accepts the empty string and plain non-negative decimals.
func ValidAmountInput(amount string) bool {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return true
	}
	if strings.ContainsAny(amount, "eE+-") {
		return false
	}
	_, err := decimal.NewFromString(amount)
	return err == nil
}

func FindToken(tokens []model.Token, symbol string) (model.Token, bool) {
	if symbol == "" {
		return model.Token{}, false
	}
	for _, t := range tokens {
		if t.Symbol == symbol {
			return t, true
		}
	}
	return model.Token{}, false
}

// RawToUnits divides a raw integer balance by 10^decimals.
func RawToUnits(raw string, decimals int) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	if decimals < 0 {
		decimals = 0
	}
	return d.Shift(-int32(decimals))
}

// AvailableBalance is the wallet's holding of token in whole units, zero when
// the wallet holds none.
func AvailableBalance(token *model.Token, balances model.Balances) decimal.Decimal {
	if token == nil {
		return decimal.Zero
	}
	entry, ok := balances.Lookup(token.Address)
	if !ok {
		return decimal.Zero
	}
	return RawToUnits(entry.Raw, token.Decimals)
}

func USDValue(amount string, token *model.Token) string {
	if strings.TrimSpace(amount) == "" || token == nil {
		return "0.00"
	}
	return ParseAmount(amount).Mul(decimal.NewFromFloat(token.Price)).StringFixed(2)
}

// EarlyBonusMultiplier reads the hour count at the start of a label such as
// "18h left" and returns max(1, 24-N) * 0.1. Labels without a leading integer
// count as N = 0.
func EarlyBonusMultiplier(timeRemaining string) decimal.Decimal {
	head, _, _ := strings.Cut(timeRemaining, "h")
	hours := leadingInt(head)

	steps := int64(bonusWindowHours) - hours
	if steps < 1 {
		steps = 1
	}
	return decimal.NewFromInt(steps).Mul(bonusStep)
}

func leadingInt(s string) int64 {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		if s[0] == '-' {
			return -bonusWindowHours * 1000
		}
		return bonusWindowHours * 1000
	}
	return n
}

func BonusPercent(bonus decimal.Decimal) string {
	return "+" + bonus.Mul(decimal.NewFromInt(100)).Round(0).String() + "% XP"
}

func IsInsufficient(amount string, available decimal.Decimal) bool {
	return ParseAmount(amount).GreaterThan(available)
}

// ProjectedXP is amount * (1 + bonus), rounded to the nearest integer.
func ProjectedXP(amount decimal.Decimal, bonus decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(1).Add(bonus)).Round(0).IntPart()
}

func FormatBalance(units decimal.Decimal) string {
	return units.StringFixed(4)
}

// holdingValue prefers the USD value reported by the portfolio API and falls
// back to units * price when the API left it out.
func holdingValue(b model.Balance) decimal.Decimal {
	if b.Value > 0 {
		return decimal.NewFromFloat(b.Value)
	}
	return RawToUnits(b.Raw, b.Token.Decimals).Mul(decimal.NewFromFloat(b.Token.Price))
}

// AutoSelectToken picks the held token with the highest value when nothing is
// selected yet. The first balance wins a tie. The winner must be present in
// the token list, otherwise nothing is selected.
func AutoSelectToken(current string, tokens []model.Token, balances []model.Balance) (string, bool) {
	if current != "" {
		return current, false
	}

	best := -1
	bestValue := decimal.Zero
	for i, b := range balances {
		value := holdingValue(b)
		if value.GreaterThan(bestValue) {
			best = i
			bestValue = value
		}
	}
	if best < 0 {
		return "", false
	}

	address := model.NormalizeAddress(balances[best].Token.Address)
	for _, t := range tokens {
		if model.NormalizeAddress(t.Address) == address {
			return t.Symbol, true
		}
	}
	return "", false
}
