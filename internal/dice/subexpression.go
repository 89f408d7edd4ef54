package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies an atomic dice term.
type Kind int

const (
	// KindSum rolls Count dice and sums every face ("3D6").
	KindSum Kind = iota
	// KindKeep rolls Count dice and sums the Keep highest faces ("4D6K3").
	KindKeep
	// KindConstant is a literal integer held in Sum; it draws nothing.
	KindConstant
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindSum:
		return "sum"
	case KindKeep:
		return "keep"
	case KindConstant:
		return "constant"
	default:
		return "unknown"
	}
}

// Subexpression is one atomic dice term of an expression skeleton.
//
// Invariant: after a successful roll, len(Faces) == Count and Sum == sum(Kept).
type Subexpression struct {
	Kind    Kind
	Count   int
	Surface int
	Keep    int // KindKeep only
	// Text is the term as written in the order, after normalization ("D", "4D6K").
	Text string
	// Faces holds one value per die, in roll order.
	Faces []int
	// Kept holds the faces contributing to Sum, in roll order.
	Kept []int
	Sum  int64
}

// constant returns a KindConstant subexpression for the literal v.
func constant(v int64) Subexpression {
	s := strconv.FormatInt(v, 10)
	return Subexpression{Kind: KindConstant, Count: 1, Text: s, Sum: v}
}

// Notation returns the canonical form of the term with defaults filled in;
// a bare "D" under a default surface of 100 renders as "D100".
func (s Subexpression) Notation() string {
	switch s.Kind {
	case KindConstant:
		return strconv.FormatInt(s.Sum, 10)
	case KindKeep:
		return fmt.Sprintf("%sK%d", diceNotation(s.Count, s.Surface), s.Keep)
	default:
		return diceNotation(s.Count, s.Surface)
	}
}

func diceNotation(count, surface int) string {
	if count == 1 {
		return "D" + strconv.Itoa(surface)
	}
	return strconv.Itoa(count) + "D" + strconv.Itoa(surface)
}

// check validates the term against limits before anything is drawn.
func (s Subexpression) check(l Limits) error {
	if s.Kind == KindConstant {
		return nil
	}
	if s.Count < 1 || s.Count > l.MaxDiceNumber {
		return fmt.Errorf("%w: %d dice in %q (max %d)", ErrDiceNumberOverstep, s.Count, s.Text, l.MaxDiceNumber)
	}
	if s.Surface < 1 || s.Surface > l.MaxSurfaceNumber {
		return fmt.Errorf("%w: %d faces in %q (max %d)", ErrSurfaceNumberOverstep, s.Surface, s.Text, l.MaxSurfaceNumber)
	}
	if s.Kind == KindKeep && (s.Keep < 1 || s.Keep > s.Count) {
		return fmt.Errorf("%w: cannot keep %d of %d dice in %q", ErrExpressionInvalid, s.Keep, s.Count, s.Text)
	}
	return nil
}

// roll returns a copy of s with fresh faces drawn from src.
//
// Precondition: s.check succeeded.
func (s Subexpression) roll(src Source) Subexpression {
	if s.Kind == KindConstant {
		s.Faces, s.Kept = nil, nil
		return s
	}

	faces := make([]int, s.Count)
	for i := range faces {
		faces[i] = src.Intn(s.Surface) + 1
	}
	s.Faces = faces
	s.Kept = faces
	if s.Kind == KindKeep {
		s.Kept = keepHighest(faces, s.Keep)
	}

	s.Sum = 0
	for _, f := range s.Kept {
		s.Sum += int64(f)
	}
	return s
}

// keepHighest drops the lowest face until keep faces remain, preserving roll order.
func keepHighest(faces []int, keep int) []int {
	kept := make([]int, len(faces))
	copy(kept, faces)
	for len(kept) > keep {
		lo := 0
		for i, f := range kept {
			if f < kept[lo] {
				lo = i
			}
		}
		kept = append(kept[:lo], kept[lo+1:]...)
	}
	return kept
}

// facesText renders the retained faces: a bare face for one die, otherwise a
// parenthesized sum.
func (s Subexpression) facesText() string {
	if s.Kind == KindConstant {
		return strconv.FormatInt(s.Sum, 10)
	}
	if len(s.Kept) == 1 {
		return strconv.Itoa(s.Kept[0])
	}
	parts := make([]string, len(s.Kept))
	for i, f := range s.Kept {
		parts[i] = strconv.Itoa(f)
	}
	return "(" + strings.Join(parts, "+") + ")"
}
