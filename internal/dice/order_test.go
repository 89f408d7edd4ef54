package dice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseOrder_Prefixes(t *testing.T) {
	cases := []struct {
		raw        string
		visibility Visibility
		candidate  string
		reason     string
	}{
		{"3D6+2", VisibilityNone, "3D6+2", ""},
		{"  h 3d6 stealth ", VisibilityHidden, "3D6", "stealth"},
		{"s(2D6+6)x5", VisibilitySimplified, "(2D6+6)*5", ""},
		{"H", VisibilityHidden, "D", ""},
		{"D100 Spot Hidden", VisibilityNone, "D100", "Spot Hidden"},
		{"3D6 +2", VisibilityNone, "3D6", "+2"},
	}
	for _, tc := range cases {
		o := parseOrder(tc.raw)
		assert.Equal(t, tc.visibility, o.visibility, "raw %q", tc.raw)
		assert.Equal(t, tc.candidate, o.candidate, "raw %q", tc.raw)
		assert.Equal(t, tc.reason, o.reason, "raw %q", tc.raw)
		assert.Nil(t, o.bonus, "raw %q", tc.raw)
	}
}

func TestParseOrder_BonusPunishment(t *testing.T) {
	o := parseOrder("b2 Reason")
	require.NotNil(t, o.bonus)
	assert.Equal(t, BonusKindBonus, o.bonus.Kind)
	assert.Equal(t, 2, o.bonus.Count)
	assert.Equal(t, "Reason", o.reason)
	assert.Empty(t, o.candidate)

	o = parseOrder("P Library Use")
	require.NotNil(t, o.bonus)
	assert.Equal(t, BonusKindPunishment, o.bonus.Kind)
	assert.Equal(t, 1, o.bonus.Count)
	assert.Equal(t, "Library Use", o.reason)

	o = parseOrder("bp2 Reason")
	require.NotNil(t, o.bonus)
	assert.Equal(t, BonusKindBonus, o.bonus.Kind)
	assert.Equal(t, 2, o.bonus.Count)
	assert.Equal(t, "Reason", o.reason)

	o = parseOrder("pb2 Reason")
	require.NotNil(t, o.bonus)
	assert.Equal(t, BonusKindPunishment, o.bonus.Kind)
	assert.Equal(t, 2, o.bonus.Count)
	assert.Equal(t, "Reason", o.reason)

	o = parseOrder("bPower roll")
	require.NotNil(t, o.bonus)
	assert.Equal(t, 1, o.bonus.Count)
	assert.Equal(t, "Power roll", o.reason)

	o = parseOrder("hp3")
	assert.Equal(t, VisibilityHidden, o.visibility)
	require.NotNil(t, o.bonus)
	assert.Equal(t, 3, o.bonus.Count)
}

func TestWellFormed(t *testing.T) {
	for _, s := range []string{"3D6+2", "(2D6+6)*5", "D", "2*(3+D6)-1"} {
		assert.True(t, wellFormed(s), "%q", s)
	}
	for _, s := range []string{"((2D6+6)", "3D6++2", "2**3", "(D6))", "D6)", "--3"} {
		assert.False(t, wellFormed(s), "%q", s)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "(2D6+6)*5", normalize("（2d6+6）x5"))
	assert.Equal(t, "4D6K3*2", normalize("4d6k3X2"))
}

func TestDecompose_Tokens(t *testing.T) {
	tokens, subs, err := decompose("2+D*3D6K", 20)
	require.NoError(t, err)
	assert.Equal(t, []Token{
		{Literal: "2+"},
		{Dice: true, Index: 0},
		{Literal: "*"},
		{Dice: true, Index: 1},
	}, tokens)
	require.Len(t, subs, 2)
	assert.Equal(t, Subexpression{Kind: KindSum, Count: 1, Surface: 20, Text: "D"}, subs[0])
	assert.Equal(t, Subexpression{Kind: KindKeep, Count: 3, Surface: 6, Keep: 1, Text: "3D6K"}, subs[1])
}

func TestDecompose_AdjacentTermsRejected(t *testing.T) {
	for _, c := range []string{"D6D6", "2D6K1D6", "DD", "1+D4D8"} {
		_, _, err := decompose(c, 100)
		assert.ErrorIs(t, err, ErrExpressionEvaluation, "%q", c)
	}
}

func TestDecompose_OversizedNumbers(t *testing.T) {
	_, _, err := decompose("99999999999999999999D6", 100)
	assert.ErrorIs(t, err, ErrDiceNumberOverstep)
	_, _, err = decompose("3D99999999999999999999", 100)
	assert.ErrorIs(t, err, ErrSurfaceNumberOverstep)
}

// TestProperty_DecomposeSeparatesTerms verifies that every accepted skeleton
// has literal glue between consecutive dice placeholders.
func TestProperty_DecomposeSeparatesTerms(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		candidate := rapid.StringMatching(`[0-9DK+*()-]{1,24}`).Draw(rt, "candidate")
		tokens, _, err := decompose(candidate, 100)
		if err != nil {
			return
		}
		for i := 1; i < len(tokens); i++ {
			if tokens[i].Dice && tokens[i-1].Dice {
				rt.Fatalf("adjacent dice placeholders in %q", candidate)
			}
		}
	})
}

// TestProperty_DecomposeRoundTrip verifies the skeleton concatenates back to
// the candidate text it was built from.
func TestProperty_DecomposeRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		candidate := rapid.StringMatching(`[0-9DK+*()-]{1,24}`).Draw(rt, "candidate")
		tokens, subs, err := decompose(candidate, 100)
		if err != nil {
			return
		}
		var b strings.Builder
		for _, tok := range tokens {
			if tok.Dice {
				b.WriteString(subs[tok.Index].Text)
				continue
			}
			b.WriteString(tok.Literal)
		}
		assert.Equal(rt, candidate, b.String())
	})
}

func TestKeepHighest_PreservesRollOrder(t *testing.T) {
	assert.Equal(t, []int{6, 4}, keepHighest([]int{1, 6, 2, 4}, 2))
	assert.Equal(t, []int{5, 5, 5}, keepHighest([]int{5, 5, 5}, 3))
	assert.Len(t, keepHighest([]int{3, 3, 3, 3}, 1), 1)
}

func TestConstant_RollKeepsLiteral(t *testing.T) {
	c := constant(7)
	require.NoError(t, c.check(Limits{MaxDiceNumber: 1, MaxSurfaceNumber: 1}))
	rolled := c.roll(NewCryptoSource())
	assert.Equal(t, int64(7), rolled.Sum)
	assert.Empty(t, rolled.Faces)
	assert.Equal(t, "7", rolled.facesText())
	assert.Equal(t, "7", rolled.Notation())
	assert.Equal(t, "constant", rolled.Kind.String())
}

func TestExpression_RerollKeepsConstantTerms(t *testing.T) {
	e := &Expression{
		Limits:         Limits{DefaultSurface: 6, MaxDiceNumber: 10, MaxSurfaceNumber: 10},
		Skeleton:       []Token{{Dice: true, Index: 0}, {Literal: "+"}, {Dice: true, Index: 1}},
		Subexpressions: []Subexpression{constant(4), {Kind: KindSum, Count: 2, Surface: 1, Text: "2D1"}},
	}
	next, err := Reroll(e, NewCryptoSource())
	require.NoError(t, err)
	assert.Equal(t, int64(6), next.Result)
	assert.Equal(t, "4+2D1=4+(1+1)=4+2=6", next.Text())
}
