package dice

import (
	"math"
	"strconv"
	"strings"
)

// Visibility controls how a caller presents a result.
type Visibility int

const (
	// VisibilityNone shows every rendered stage publicly.
	VisibilityNone Visibility = iota
	// VisibilityHidden asks the caller to deliver the result privately.
	VisibilityHidden
	// VisibilitySimplified shows only the original text and the final integer.
	VisibilitySimplified
)

// String returns the lowercase visibility name.
func (v Visibility) String() string {
	switch v {
	case VisibilityHidden:
		return "hidden"
	case VisibilitySimplified:
		return "simplified"
	default:
		return "none"
	}
}

// expressionChars is the alphabet of a candidate arithmetic expression.
const expressionChars = "0123456789dDkK+-*xX()（）"

// bareDie is the skeleton used when an order carries no usable expression.
const bareDie = "D"

// order is the result of stripping prefixes and trailing text from a raw order.
type order struct {
	visibility Visibility
	bonus      *BonusPunishment
	// candidate is the normalized arithmetic text; empty in bonus/punishment mode.
	candidate string
	reason    string
}

// parseOrder never fails: anything that is not a usable expression becomes
// reason text over a single default-surface die.
func parseOrder(raw string) order {
	var o order
	rest := strings.TrimSpace(raw)

	switch leading(rest) {
	case 'h', 'H':
		o.visibility = VisibilityHidden
		rest = strings.TrimSpace(rest[1:])
	case 's', 'S':
		o.visibility = VisibilitySimplified
		rest = strings.TrimSpace(rest[1:])
	}

	switch leading(rest) {
	case 'b', 'B':
		o.bonus, o.reason = parseBonus(BonusKindBonus, rest[1:])
		return o
	case 'p', 'P':
		o.bonus, o.reason = parseBonus(BonusKindPunishment, rest[1:])
		return o
	}

	end := strings.IndexFunc(rest, func(r rune) bool {
		return !strings.ContainsRune(expressionChars, r)
	})
	if end < 0 {
		end = len(rest)
	}
	candidate := normalize(rest[:end])
	if candidate == "" || isNumeric(candidate) || !wellFormed(candidate) {
		o.candidate = bareDie
		o.reason = rest
		return o
	}
	o.candidate = candidate
	o.reason = strings.TrimSpace(rest[end:])
	return o
}

// parseBonus reads the optional dice count that follows a b/p prefix and
// returns the remaining text as the reason. A second b/p letter directly
// before the count ("bp2") is absorbed; the first letter decides the kind.
func parseBonus(kind BonusKind, s string) (*BonusPunishment, string) {
	if len(s) > 1 && strings.ContainsRune("bBpP", rune(s[0])) && isDigit(rune(s[1])) {
		s = s[1:]
	}
	rest := strings.TrimLeftFunc(s, isDigit)
	digits := s[:len(s)-len(rest)]
	count := 1
	if digits != "" {
		n, err := strconv.Atoi(digits)
		if err != nil {
			n = math.MaxInt
		}
		count = n
	}
	return &BonusPunishment{Kind: kind, Count: count}, strings.TrimSpace(rest)
}

func leading(s string) byte {
	if s == "" {
		return 0
	}
	return s[0]
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !isDigit(r) {
			return false
		}
	}
	return true
}
