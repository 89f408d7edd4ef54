package dice_test

import (
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dicebot/internal/dice"
)

var testLimits = dice.Limits{DefaultSurface: 100, MaxDiceNumber: 100, MaxSurfaceNumber: 1000}

// scriptedSource replays the given faces in order, cycling when exhausted.
// Each face is mapped into the requested range as face-1.
type scriptedSource struct {
	faces []int
	calls int
}

func (s *scriptedSource) Intn(n int) int {
	f := s.faces[s.calls%len(s.faces)]
	s.calls++
	return (f - 1) % n
}

func faces(f ...int) *scriptedSource { return &scriptedSource{faces: f} }

func TestEvaluate_SumWithModifier(t *testing.T) {
	e, err := dice.Evaluate("3D6+2", testLimits, faces(1, 4, 6))
	require.NoError(t, err)

	require.Len(t, e.Subexpressions, 1)
	sub := e.Subexpressions[0]
	assert.Equal(t, dice.KindSum, sub.Kind)
	assert.Equal(t, 3, sub.Count)
	assert.Equal(t, 6, sub.Surface)
	assert.Equal(t, []int{1, 4, 6}, sub.Faces)
	assert.Equal(t, int64(11), sub.Sum)

	assert.Equal(t, []dice.Token{{Dice: true, Index: 0}, {Literal: "+2"}}, e.Skeleton)
	assert.Equal(t, "3D6+2", e.Rendering.Original)
	assert.Equal(t, "(1+4+6)+2", e.Rendering.Faces)
	assert.Equal(t, "11+2", e.Rendering.Sums)
	assert.Equal(t, int64(13), e.Result)
	assert.Equal(t, "3D6+2=(1+4+6)+2=11+2=13", e.Text())
	assert.Empty(t, e.Reason)
}

func TestEvaluate_BareDieUsesDefaultSurface(t *testing.T) {
	e, err := dice.Evaluate("D", testLimits, faces(42))
	require.NoError(t, err)
	require.Len(t, e.Subexpressions, 1)
	assert.Equal(t, 1, e.Subexpressions[0].Count)
	assert.Equal(t, 100, e.Subexpressions[0].Surface)
	assert.Equal(t, "D100=42", e.Text())
}

func TestEvaluate_D100(t *testing.T) {
	limits := testLimits
	limits.DefaultSurface = 20
	e, err := dice.Evaluate("D100", limits, faces(77))
	require.NoError(t, err)
	assert.Equal(t, 1, e.Subexpressions[0].Count)
	assert.Equal(t, 100, e.Subexpressions[0].Surface)
	assert.Equal(t, int64(77), e.Result)
}

func TestEvaluate_InvalidDefaultSurfaceFallsBackTo100(t *testing.T) {
	limits := testLimits
	limits.DefaultSurface = 0
	e, err := dice.Evaluate("2D", limits, faces(1))
	require.NoError(t, err)
	assert.Equal(t, 100, e.Subexpressions[0].Surface)
	assert.Equal(t, 100, e.Limits.DefaultSurface)
}

func TestEvaluate_LowercaseNotation(t *testing.T) {
	e, err := dice.Evaluate("2d20k1", testLimits, faces(3, 17))
	require.NoError(t, err)
	assert.Equal(t, dice.KindKeep, e.Subexpressions[0].Kind)
	assert.Equal(t, "2D20K1=17", e.Text())
}

func TestEvaluate_KeepHighest(t *testing.T) {
	e, err := dice.Evaluate("4D6K3", testLimits, faces(3, 1, 5, 2))
	require.NoError(t, err)
	sub := e.Subexpressions[0]
	assert.Equal(t, dice.KindKeep, sub.Kind)
	assert.Equal(t, 3, sub.Keep)
	assert.Equal(t, []int{3, 1, 5, 2}, sub.Faces)
	assert.Equal(t, []int{3, 5, 2}, sub.Kept)
	assert.Equal(t, int64(10), sub.Sum)
	assert.Equal(t, "4D6K3=(3+5+2)=10", e.Text())
}

func TestEvaluate_BareKeepDefaultsToOne(t *testing.T) {
	e, err := dice.Evaluate("3D6K", testLimits, faces(2, 6, 4))
	require.NoError(t, err)
	assert.Equal(t, 1, e.Subexpressions[0].Keep)
	assert.Equal(t, int64(6), e.Result)
}

func TestEvaluate_ParenthesesAndMultiplication(t *testing.T) {
	e, err := dice.Evaluate("(2D6+6)X5", testLimits, faces(2, 3))
	require.NoError(t, err)
	assert.Equal(t, "(2D6+6)*5", e.Rendering.Original)
	assert.Equal(t, "((2+3)+6)*5", e.Rendering.Faces)
	assert.Equal(t, "(5+6)*5", e.Rendering.Sums)
	assert.Equal(t, int64(55), e.Result)
}

func TestEvaluate_FullwidthParentheses(t *testing.T) {
	e, err := dice.Evaluate("（2d6+6）x5 damage", testLimits, faces(2, 3))
	require.NoError(t, err)
	assert.Equal(t, "(2D6+6)*5", e.Rendering.Original)
	assert.Equal(t, int64(55), e.Result)
	assert.Equal(t, "damage", e.Reason)
}

func TestEvaluate_Precedence(t *testing.T) {
	e, err := dice.Evaluate("2+D6*3-1", testLimits, faces(4))
	require.NoError(t, err)
	assert.Equal(t, int64(13), e.Result)
}

func TestEvaluate_MultipleTerms(t *testing.T) {
	e, err := dice.Evaluate("D6+2D4", testLimits, faces(5, 1, 3))
	require.NoError(t, err)
	require.Len(t, e.Subexpressions, 2)
	assert.Equal(t, "D6+2D4=5+(1+3)=5+4=9", e.Text())
}

func TestEvaluate_Reason(t *testing.T) {
	e, err := dice.Evaluate("3D6 Sneak attack", testLimits, faces(1))
	require.NoError(t, err)
	assert.Equal(t, "Sneak attack", e.Reason)
	assert.Equal(t, int64(3), e.Result)
}

func TestEvaluate_LenientFallbackToReason(t *testing.T) {
	cases := []struct {
		order  string
		reason string
	}{
		{"roll for luck", "roll for luck"},
		{"((2D6+6)", "((2D6+6)"},
		{"2D6+6)", "2D6+6)"},
		{"3D6++2", "3D6++2"},
		{"100 damage", "100 damage"},
		{"", ""},
	}
	for _, tc := range cases {
		e, err := dice.Evaluate(tc.order, testLimits, faces(50))
		require.NoError(t, err, "order %q", tc.order)
		assert.Equal(t, tc.reason, e.Reason, "order %q", tc.order)
		require.Len(t, e.Subexpressions, 1, "order %q", tc.order)
		assert.Equal(t, 1, e.Subexpressions[0].Count)
		assert.Equal(t, 100, e.Subexpressions[0].Surface)
		assert.Equal(t, "D100=50", e.Text(), "order %q", tc.order)
	}
}

func TestEvaluate_Visibility(t *testing.T) {
	e, err := dice.Evaluate("h3D6", testLimits, faces(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, dice.VisibilityHidden, e.Visibility)
	assert.True(t, e.Hidden())
	assert.Equal(t, "3D6=(1+2+3)=6", e.Text())

	e, err = dice.Evaluate("S3D6+1", testLimits, faces(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, dice.VisibilitySimplified, e.Visibility)
	assert.False(t, e.Hidden())
	assert.Empty(t, e.Rendering.Faces)
	assert.Empty(t, e.Rendering.Sums)
	assert.Equal(t, "3D6+1=7", e.Text())
}

func TestEvaluate_Bonus(t *testing.T) {
	e, err := dice.Evaluate("b2 Reason", testLimits, faces(3, 5, 67))
	require.NoError(t, err)
	require.NotNil(t, e.Bonus)
	assert.Equal(t, dice.BonusKindBonus, e.Bonus.Kind)
	assert.Equal(t, 2, e.Bonus.Count)
	assert.Equal(t, []int{3, 5}, e.Bonus.Modifiers)
	assert.Equal(t, "Reason", e.Reason)
	assert.Empty(t, e.Skeleton)
	assert.Empty(t, e.Subexpressions)
	assert.Equal(t, int64(37), e.Result)
	assert.Equal(t, "B2=67[bonus:3 5]=37", e.Text())
}

func TestEvaluate_BonusNoImprovement(t *testing.T) {
	e, err := dice.Evaluate("B2", testLimits, faces(5, 7, 34))
	require.NoError(t, err)
	assert.Equal(t, int64(34), e.Result)
}

func TestEvaluate_Punishment(t *testing.T) {
	e, err := dice.Evaluate("p2 Reason", testLimits, faces(3, 8, 67))
	require.NoError(t, err)
	require.NotNil(t, e.Bonus)
	assert.Equal(t, dice.BonusKindPunishment, e.Bonus.Kind)
	assert.Equal(t, "Reason", e.Reason)
	assert.Equal(t, int64(87), e.Result)
}

func TestEvaluate_PunishmentClampsTo100(t *testing.T) {
	e, err := dice.Evaluate("p", testLimits, faces(10, 95))
	require.NoError(t, err)
	assert.Equal(t, 1, e.Bonus.Count)
	assert.Equal(t, int64(100), e.Result)
}

func TestEvaluate_HiddenBonus(t *testing.T) {
	e, err := dice.Evaluate("hb", testLimits, faces(1, 5))
	require.NoError(t, err)
	assert.True(t, e.Hidden())
	assert.Equal(t, int64(5), e.Result)
}

func TestEvaluate_BoundsErrors(t *testing.T) {
	cases := []struct {
		order string
		want  error
	}{
		{"101D6", dice.ErrDiceNumberOverstep},
		{"0D6", dice.ErrDiceNumberOverstep},
		{"D1001", dice.ErrSurfaceNumberOverstep},
		{"D0", dice.ErrSurfaceNumberOverstep},
		{"3D6K4", dice.ErrExpressionInvalid},
		{"3D6K0", dice.ErrExpressionInvalid},
		{"99999999999999999999D6", dice.ErrDiceNumberOverstep},
		{"D99999999999999999999", dice.ErrSurfaceNumberOverstep},
		{"2D99999999999999999999K1", dice.ErrSurfaceNumberOverstep},
		{"3D6+", dice.ErrExpressionEvaluation},
		{"D6D6", dice.ErrExpressionEvaluation},
		{"2D6K1D6", dice.ErrExpressionEvaluation},
		{"3D6+D6D6-1", dice.ErrExpressionEvaluation},
		{"D6(2)", dice.ErrExpressionEvaluation},
		{"b101", dice.ErrDiceNumberOverstep},
		{"p0", dice.ErrDiceNumberOverstep},
	}
	for _, tc := range cases {
		e, err := dice.Evaluate(tc.order, testLimits, faces(1))
		assert.ErrorIs(t, err, tc.want, "order %q", tc.order)
		assert.Nil(t, e, "order %q", tc.order)
	}
}

// TestEvaluate_BoundsCheckedBeforeDrawing verifies that no die is rolled when
// any term of the expression is out of bounds.
func TestEvaluate_BoundsCheckedBeforeDrawing(t *testing.T) {
	src := faces(1)
	_, err := dice.Evaluate("3D6+101D6", testLimits, src)
	require.ErrorIs(t, err, dice.ErrDiceNumberOverstep)
	assert.Zero(t, src.calls)
}

func TestReroll_DrawsFreshFaces(t *testing.T) {
	first, err := dice.Evaluate("4D6K3 stats", testLimits, faces(1, 1, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(3), first.Result)

	next, err := dice.Reroll(first, faces(6, 6, 6, 6))
	require.NoError(t, err)
	assert.Equal(t, int64(18), next.Result)
	assert.Equal(t, "stats", next.Reason)
	assert.Equal(t, first.Skeleton, next.Skeleton)

	// the original is untouched
	assert.Equal(t, int64(3), first.Result)
	assert.Equal(t, []int{1, 1, 1, 1}, first.Subexpressions[0].Faces)
}

func TestReroll_KeepsParameters(t *testing.T) {
	src := dice.NewCryptoSource()
	e, err := dice.Evaluate("4D6K3", testLimits, src)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		e, err = dice.Reroll(e, src)
		require.NoError(t, err)
		sub := e.Subexpressions[0]
		assert.Equal(t, 4, sub.Count)
		assert.Equal(t, 6, sub.Surface)
		assert.Equal(t, 3, sub.Keep)
		assert.Len(t, sub.Faces, 4)
		assert.Len(t, sub.Kept, 3)
	}
}

func TestReroll_Bonus(t *testing.T) {
	first, err := dice.Evaluate("p1", testLimits, faces(1, 50))
	require.NoError(t, err)
	next, err := dice.Reroll(first, faces(9, 15))
	require.NoError(t, err)
	assert.Equal(t, dice.BonusKindPunishment, next.Bonus.Kind)
	assert.Equal(t, []int{9}, next.Bonus.Modifiers)
	assert.Equal(t, int64(95), next.Result)
	assert.Equal(t, []int{1}, first.Bonus.Modifiers)
}

func TestEvalArithmetic(t *testing.T) {
	cases := []struct {
		expr string
		want int64
	}{
		{"1+2*3", 7},
		{"(1+2)*3", 9},
		{"10-2-3", 5},
		{"-3+5", 2},
		{"2*-3", -6},
		{"((4))", 4},
		{"7", 7},
	}
	for _, tc := range cases {
		got, err := dice.EvalArithmetic(tc.expr)
		require.NoError(t, err, "expr %q", tc.expr)
		assert.Equal(t, tc.want, got, "expr %q", tc.expr)
	}
}

func TestEvalArithmetic_Errors(t *testing.T) {
	for _, expr := range []string{"", "1+", "(1", "1)", "2(3)", "1/2", "9223372036854775807+1", "99999999999999999999", "a"} {
		_, err := dice.EvalArithmetic(expr)
		assert.ErrorIs(t, err, dice.ErrExpressionEvaluation, "expr %q", expr)
	}
}

func TestRendering_String_OmitsRepeatedStages(t *testing.T) {
	r := dice.Rendering{Original: "D6", Faces: "4", Sums: "4", Result: 4}
	assert.Equal(t, "D6=4", r.String())

	r = dice.Rendering{Original: "7", Result: 7}
	assert.Equal(t, "7", r.String())
}

func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

func TestCryptoSource_Intn_PanicsOnZero(t *testing.T) {
	src := dice.NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
}

func TestSeededSource_Repeatable(t *testing.T) {
	a, b := dice.NewSeededSource(99), dice.NewSeededSource(99)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
	assert.Panics(t, func() { a.Intn(-1) })
}

func TestSeededDraw_DifferentSeedsDiffer(t *testing.T) {
	seen := make(map[int]bool)
	for seed := int64(0); seed < 100; seed++ {
		seen[dice.SeededDraw(seed, 1<<30)] = true
	}
	assert.Greater(t, len(seen), 95)
}

// TestProperty_SumWithinBounds verifies that every face of xDy is in [1, y]
// and the sum is in [x, x*y].
func TestProperty_SumWithinBounds(t *testing.T) {
	src := dice.NewCryptoSource()
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 20).Draw(rt, "count")
		surface := rapid.IntRange(1, 100).Draw(rt, "surface")

		e, err := dice.Evaluate(dice.Subexpression{Count: count, Surface: surface}.Notation(), testLimits, src)
		require.NoError(rt, err)
		sub := e.Subexpressions[0]
		require.Len(rt, sub.Faces, count)
		for _, f := range sub.Faces {
			assert.GreaterOrEqual(rt, f, 1)
			assert.LessOrEqual(rt, f, surface)
		}
		assert.GreaterOrEqual(rt, e.Result, int64(count))
		assert.LessOrEqual(rt, e.Result, int64(count*surface))
	})
}

// TestProperty_KeepRetainsHighest verifies that xDyKz keeps exactly z faces and
// that every kept face is >= every discarded face.
func TestProperty_KeepRetainsHighest(t *testing.T) {
	src := dice.NewCryptoSource()
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 10).Draw(rt, "count")
		keep := rapid.IntRange(1, count).Draw(rt, "keep")
		surface := rapid.IntRange(1, 20).Draw(rt, "surface")

		notation := dice.Subexpression{Kind: dice.KindKeep, Count: count, Surface: surface, Keep: keep}.Notation()
		e, err := dice.Evaluate(notation, testLimits, src)
		require.NoError(rt, err)
		sub := e.Subexpressions[0]
		require.Len(rt, sub.Kept, keep)

		sorted := append([]int(nil), sub.Faces...)
		sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
		var want int64
		for _, f := range sorted[:keep] {
			want += int64(f)
		}
		assert.Equal(rt, want, sub.Sum)
	})
}

// TestProperty_SingleDieRendersBareFace verifies that a one-die term renders
// its face without parentheses.
func TestProperty_SingleDieRendersBareFace(t *testing.T) {
	src := dice.NewCryptoSource()
	rapid.Check(t, func(rt *rapid.T) {
		surface := rapid.IntRange(1, 1000).Draw(rt, "surface")
		e, err := dice.Evaluate(dice.Subexpression{Count: 1, Surface: surface}.Notation(), testLimits, src)
		require.NoError(rt, err)
		assert.False(rt, strings.Contains(e.Rendering.Faces, "("))
		assert.Equal(rt, e.Subexpressions[0].Faces[0], int(e.Result))
	})
}

// TestProperty_SeededDrawDeterministic verifies identical (seed, max) pairs
// produce identical values within [1, max].
func TestProperty_SeededDrawDeterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		max := rapid.IntRange(1, 1<<20).Draw(rt, "max")
		v := dice.SeededDraw(seed, max)
		assert.Equal(rt, v, dice.SeededDraw(seed, max))
		assert.GreaterOrEqual(rt, v, 1)
		assert.LessOrEqual(rt, v, max)
	})
}

// TestProperty_BonusPercentileInRange verifies bonus and punishment rolls with
// the default percentile die stay within [1, 100].
func TestProperty_BonusPercentileInRange(t *testing.T) {
	src := dice.NewCryptoSource()
	rapid.Check(t, func(rt *rapid.T) {
		prefix := rapid.SampledFrom([]string{"b", "p"}).Draw(rt, "prefix")
		count := rapid.IntRange(1, 5).Draw(rt, "count")
		e, err := dice.Evaluate(prefix+strconv.Itoa(count), testLimits, src)
		require.NoError(rt, err)
		assert.Equal(rt, count, e.Bonus.Count)
		assert.GreaterOrEqual(rt, e.Result, int64(1))
		assert.LessOrEqual(rt, e.Result, int64(100))
	})
}
