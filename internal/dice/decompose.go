package dice

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Token is one element of an expression skeleton: either literal glue
// (operators, parentheses, bare integers) or a placeholder for a dice term.
type Token struct {
	Literal string
	Dice    bool
	// Index points into Expression.Subexpressions when Dice is set.
	Index int
}

// termPattern matches (count)?D(surface)?(K(keep)?)? on normalized text.
var termPattern = regexp.MustCompile(`(\d*)D(\d*)(K(\d*))?`)

var normalizer = strings.NewReplacer(
	"（", "(",
	"）", ")",
	"x", "*",
	"X", "*",
	"d", "D",
	"k", "K",
)

// normalize maps fullwidth parentheses and x/X to ASCII and upper-cases D/K.
func normalize(candidate string) string {
	return normalizer.Replace(candidate)
}

// wellFormed rejects doubled operator or parenthesis characters and
// unbalanced parenthesis counts.
func wellFormed(s string) bool {
	opens, closes := 0, 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '(':
			opens++
		case ')':
			closes++
		}
		if i > 0 && isSymbol(c) && s[i-1] == c {
			return false
		}
	}
	return opens == closes
}

func isSymbol(c byte) bool {
	switch c {
	case '+', '-', '*', '(', ')':
		return true
	}
	return false
}

// decompose splits a normalized, well-formed candidate into skeleton tokens
// and dice terms.
//
// Two dice terms with nothing between them ("D6D6") have no arithmetic
// meaning and fail with ErrExpressionEvaluation.
//
// Postcondition: concatenating token literals and term texts in order yields candidate.
func decompose(candidate string, defaultSurface int) ([]Token, []Subexpression, error) {
	var (
		tokens []Token
		subs   []Subexpression
		last   int
	)
	for _, m := range termPattern.FindAllStringSubmatchIndex(candidate, -1) {
		if m[0] > last {
			tokens = append(tokens, Token{Literal: candidate[last:m[0]]})
		} else if n := len(tokens); n > 0 && tokens[n-1].Dice {
			return nil, nil, fmt.Errorf("%w: no operator between %q and %q",
				ErrExpressionEvaluation, subs[len(subs)-1].Text, candidate[m[0]:m[1]])
		}
		sub, err := parseTerm(candidate, m, defaultSurface)
		if err != nil {
			return nil, nil, err
		}
		tokens = append(tokens, Token{Dice: true, Index: len(subs)})
		subs = append(subs, sub)
		last = m[1]
	}
	if last < len(candidate) {
		tokens = append(tokens, Token{Literal: candidate[last:]})
	}
	return tokens, subs, nil
}

// parseTerm builds a Subexpression from one termPattern submatch index set.
func parseTerm(s string, m []int, defaultSurface int) (Subexpression, error) {
	text := s[m[0]:m[1]]
	sub := Subexpression{Kind: KindSum, Count: 1, Surface: defaultSurface, Text: text}

	var err error
	if count := s[m[2]:m[3]]; count != "" {
		if sub.Count, err = strconv.Atoi(count); err != nil {
			return Subexpression{}, fmt.Errorf("%w: dice count in %q: %v", numberError(err, ErrDiceNumberOverstep), text, err)
		}
	}
	if surface := s[m[4]:m[5]]; surface != "" {
		if sub.Surface, err = strconv.Atoi(surface); err != nil {
			return Subexpression{}, fmt.Errorf("%w: surface number in %q: %v", numberError(err, ErrSurfaceNumberOverstep), text, err)
		}
	}
	if m[6] >= 0 {
		sub.Kind = KindKeep
		sub.Keep = 1
		if keep := s[m[8]:m[9]]; keep != "" {
			if sub.Keep, err = strconv.Atoi(keep); err != nil {
				return Subexpression{}, fmt.Errorf("%w: keep count in %q: %v", ErrExpressionInvalid, text, err)
			}
		}
	}
	return sub, nil
}

// numberError maps a digit-run conversion failure to overstep when the value
// is too large for an int, and to ErrExpressionInvalid otherwise.
func numberError(err, overstep error) error {
	if errors.Is(err, strconv.ErrRange) {
		return overstep
	}
	return ErrExpressionInvalid
}
