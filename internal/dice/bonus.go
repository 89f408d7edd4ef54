package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// BonusKind selects the direction of a percentile adjustment.
type BonusKind int

const (
	// BonusKindBonus lowers the tens digit toward the smallest modifier die.
	BonusKindBonus BonusKind = iota + 1
	// BonusKindPunishment raises the tens digit toward the largest modifier die.
	BonusKindPunishment
)

// String returns the lowercase kind name.
func (k BonusKind) String() string {
	switch k {
	case BonusKindBonus:
		return "bonus"
	case BonusKindPunishment:
		return "punishment"
	default:
		return "unknown"
	}
}

// modifierSurface is the surface of each bonus/punishment die.
const modifierSurface = 10

// percentileCap is the upper clamp applied to an adjusted percentile roll.
const percentileCap = 100

// BonusPunishment is a Call of Cthulhu style modified percentile roll.
type BonusPunishment struct {
	Kind  BonusKind
	Count int
	// Modifiers are the d10 modifier dice in roll order.
	Modifiers []int
	// Base is the single default-surface die being adjusted.
	Base Subexpression
}

func (b *BonusPunishment) check(l Limits) error {
	if b.Count < 1 || b.Count > l.MaxDiceNumber {
		return fmt.Errorf("%w: %d %s dice (max %d)", ErrDiceNumberOverstep, b.Count, b.Kind, l.MaxDiceNumber)
	}
	return b.Base.check(l)
}

// roll draws the modifier dice, then the base die, and returns the adjusted
// result. The result is clamped to at most 100 and never floored.
func (b *BonusPunishment) roll(src Source) int64 {
	b.Modifiers = make([]int, b.Count)
	for i := range b.Modifiers {
		b.Modifiers[i] = src.Intn(modifierSurface) + 1
	}
	b.Base = b.Base.roll(src)

	result := b.Base.Sum
	tens := result / 10
	switch b.Kind {
	case BonusKindBonus:
		lo := int64(b.Modifiers[0])
		for _, m := range b.Modifiers[1:] {
			lo = min(lo, int64(m))
		}
		if tens > lo {
			result -= (tens - lo) * 10
		}
	case BonusKindPunishment:
		hi := int64(b.Modifiers[0])
		for _, m := range b.Modifiers[1:] {
			hi = max(hi, int64(m))
		}
		if tens < hi {
			result += (hi - tens) * 10
		}
	}
	return min(result, percentileCap)
}

// notation renders "B2" or "P1".
func (b *BonusPunishment) notation() string {
	letter := "B"
	if b.Kind == BonusKindPunishment {
		letter = "P"
	}
	return letter + strconv.Itoa(b.Count)
}

// detail renders the base face followed by the modifier dice: "67[bonus:3 5]".
func (b *BonusPunishment) detail() string {
	mods := make([]string, len(b.Modifiers))
	for i, m := range b.Modifiers {
		mods[i] = strconv.Itoa(m)
	}
	return fmt.Sprintf("%d[%s:%s]", b.Base.Sum, b.Kind, strings.Join(mods, " "))
}
