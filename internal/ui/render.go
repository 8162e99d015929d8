package ui

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ShortAddress abbreviates a bech32 address to its head and tail.
func ShortAddress(addr string) string {
	if utf8.RuneCountInString(addr) <= 16 {
		return addr
	}
	return addr[:10] + "…" + addr[len(addr)-6:]
}

// DirectionSymbol maps a history direction ("in", "out", "self") to an arrow.
func DirectionSymbol(direction string) string {
	switch direction {
	case "in":
		return SuccessStyle.Render(SymbolIn)
	case "out":
		return WarningStyle.Render(SymbolOut)
	case "self":
		return SelectorDim.Render(SymbolSelf)
	default:
		return " "
	}
}

// Amount renders a human amount with its ticker.
func Amount(value, ticker string) string {
	return AmountStyle.Render(value) + " " + ticker
}

// Success prefixes msg with a check mark.
func Success(msg string) string {
	return SuccessStyle.Render(SymbolCheck + " " + msg)
}

// Error renders err on one line. Wrapped chains are kept; only the first
// letter is capitalized.
func Error(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if msg != "" {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}
	return ErrorStyle.Render(SymbolCross + " " + msg)
}

// IsCancelled reports whether err came from the user backing out of a prompt.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

var ErrCancelled = errors.New("cancelled")
