package dice

import (
	"strconv"
	"strings"
)

// Rendering holds the progressively resolved textual forms of one evaluation.
type Rendering struct {
	// Original is the normalized skeleton with every term in canonical notation.
	Original string
	// Faces replaces each term with its retained faces. Empty when simplified.
	Faces string
	// Sums replaces each term with its scalar sum. Empty when simplified.
	Sums   string
	Result int64
}

// String joins the stages with "=", omitting any stage identical to the one
// before it, so a bare "D6" renders as "D6=4" rather than "D6=4=4=4".
func (r Rendering) String() string {
	stages := []string{r.Original}
	for _, s := range []string{r.Faces, r.Sums, strconv.FormatInt(r.Result, 10)} {
		if s == "" || s == stages[len(stages)-1] {
			continue
		}
		stages = append(stages, s)
	}
	return strings.Join(stages, "=")
}

// renderSkeleton writes tokens in order, replacing each dice placeholder with
// term(sub).
func renderSkeleton(tokens []Token, subs []Subexpression, term func(Subexpression) string) string {
	var b strings.Builder
	for _, t := range tokens {
		if t.Dice {
			b.WriteString(term(subs[t.Index]))
			continue
		}
		b.WriteString(t.Literal)
	}
	return b.String()
}

func sumText(s Subexpression) string {
	return strconv.FormatInt(s.Sum, 10)
}

func render(e *Expression) Rendering {
	var r Rendering
	if e.Bonus != nil {
		r.Original = e.Bonus.notation()
		r.Faces = e.Bonus.detail()
	} else {
		r.Original = renderSkeleton(e.Skeleton, e.Subexpressions, Subexpression.Notation)
		r.Faces = renderSkeleton(e.Skeleton, e.Subexpressions, Subexpression.facesText)
		r.Sums = renderSkeleton(e.Skeleton, e.Subexpressions, sumText)
	}
	r.Result = e.Result
	if e.Visibility == VisibilitySimplified {
		r.Faces, r.Sums = "", ""
	}
	return r
}
