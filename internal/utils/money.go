package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxWholeUnits keeps w*100+99 within int64.
const maxWholeUnits = (math.MaxInt64 - 99) / 100

// FormatMinorUnits renders an amount in cents as a decimal string without
// trailing zeros: 2500 -> "25", 1999 -> "19.99", 1990 -> "19.9".
func FormatMinorUnits(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	whole, frac := amount/100, amount%100
	switch {
	case frac == 0:
		return fmt.Sprintf("%s%d", sign, whole)
	case frac%10 == 0:
		return fmt.Sprintf("%s%d.%d", sign, whole, frac/10)
	default:
		return fmt.Sprintf("%s%d.%02d", sign, whole, frac)
	}
}

// ParseMinorUnits turns a decimal price such as "19.9" into cents. More than
// two fractional digits is rejected rather than rounded.
func ParseMinorUnits(price string) (int64, error) {
	price = strings.TrimSpace(price)
	if price == "" {
		return 0, fmt.Errorf("empty price")
	}
	if strings.HasPrefix(price, "-") {
		return 0, fmt.Errorf("negative price %q", price)
	}
	if strings.HasPrefix(price, "+") {
		return 0, fmt.Errorf("invalid price %q", price)
	}

	whole, frac, _ := strings.Cut(price, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("price %q has more than two decimals", price)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || strings.ContainsAny(whole, "+-") {
		return 0, fmt.Errorf("invalid price %q", price)
	}
	if w > maxWholeUnits {
		return 0, fmt.Errorf("price %q is too large", price)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || strings.ContainsAny(frac, "+-") {
		return 0, fmt.Errorf("invalid price %q", price)
	}
	return w*100 + f, nil
}
