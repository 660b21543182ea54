package ledger

import (
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
)

// Pesos have no minor unit; thousands are grouped with dots.
var clp = money.NewFormatter(0, ",", ".", "$", "$1")

// FormatCLP renders a whole-peso amount the Chilean way: "$1.234.567", "-$5.000".
func FormatCLP(amount int64) string {
	return clp.Format(amount)
}

// ParseAmount keeps only the digits of raw. It returns 0 and false when there are none.
func ParseAmount(raw string) (int64, bool) {
	digits := onlyDigits(raw)
	if digits == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatAmountInput renders the amount field of the entry form: "$ 12.500".
// Input without digits renders empty.
func FormatAmountInput(raw string) string {
	v, ok := ParseAmount(raw)
	if !ok {
		return ""
	}
	return "$ " + strings.TrimPrefix(FormatCLP(v), "$")
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
