package patrimoineService

import (
	"fmt"
	"strings"

	"github.com/KotFed0t/patrimoine_tracker_bot/internal/service"
	"github.com/shopspring/decimal"
)

// parseAmount accepts both decimal separators since users type amounts the
// French way.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	s = strings.ReplaceAll(s, " ", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", service.ErrInvalidInput, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative amount", service.ErrInvalidInput)
	}

	return d, nil
}

// parseOptionalAmount treats empty input and "-" as zero.
func parseOptionalAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return decimal.Zero, nil
	}
	return parseAmount(s)
}
