package domain

import "strings"

// Symbols are slash-form throughout the client ("BTC/USDT"). URL paths use
// the dash form ("BTC-USDT"); the conversion happens at the transport edge.

// EncodeSymbol converts a slash-form symbol to its URL-safe dash form.
func EncodeSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "-")
}

// DecodeSymbol converts a dash-form symbol back to slash form.
func DecodeSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "-", "/")
}

// SplitSymbol returns the base and quote assets of a slash-form symbol.
func SplitSymbol(symbol string) (base, quote string, ok bool) {
	base, quote, ok = strings.Cut(symbol, "/")
	if base == "" || quote == "" {
		return "", "", false
	}
	return base, quote, ok
}
