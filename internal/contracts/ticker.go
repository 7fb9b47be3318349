package contracts

import (
	"fmt"
	"strings"
)

// TickerLength is the fixed width of an A-share code
const TickerLength = 6

// NormalizeTicker strips an exchange suffix and left-pads to 6 digits
//
//	"600000.SH"  -> "600000"
//	"1"          -> "000001"
//	"  000001  " -> "000001"
func NormalizeTicker(symbol string) string {
	if i := strings.Index(symbol, "."); i >= 0 {
		symbol = symbol[:i]
	}
	symbol = strings.TrimSpace(symbol)
	if len(symbol) < TickerLength {
		symbol = strings.Repeat("0", TickerLength-len(symbol)) + symbol
	}
	return symbol
}

// ParseTicker normalizes an externally supplied ticker and rejects blank input
func ParseTicker(symbol string) (string, error) {
	code := symbol
	if i := strings.Index(code, "."); i >= 0 {
		code = code[:i]
	}
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("%w: empty ticker %q", ErrConfiguration, symbol)
	}
	return NormalizeTicker(symbol), nil
}
