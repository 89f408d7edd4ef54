package dice

// Expression is the fully evaluated form of one order.
//
// Invariant: when Bonus is set, Skeleton and Subexpressions are empty.
type Expression struct {
	// Raw is the order exactly as received.
	Raw        string
	Visibility Visibility
	Bonus      *BonusPunishment
	// Limits are the normalized bounds the expression was evaluated against.
	Limits         Limits
	Skeleton       []Token
	Subexpressions []Subexpression
	// Reason is the free text after the expression, or the whole order when no
	// usable expression was found.
	Reason    string
	Result    int64
	Rendering Rendering
}

// Evaluate parses, decomposes, rolls and evaluates order in one call.
//
// Precondition: src must be non-nil.
// Postcondition: returns a fully evaluated Expression, or an error wrapping one
// of ErrDiceNumberOverstep, ErrSurfaceNumberOverstep, ErrExpressionInvalid or
// ErrExpressionEvaluation and no Expression.
func Evaluate(order string, limits Limits, src Source) (*Expression, error) {
	limits = limits.normalized()
	o := parseOrder(order)

	e := &Expression{
		Raw:        order,
		Visibility: o.visibility,
		Limits:     limits,
		Reason:     o.reason,
	}
	if o.bonus != nil {
		e.Bonus = o.bonus
		e.Bonus.Base = Subexpression{Kind: KindSum, Count: 1, Surface: limits.DefaultSurface, Text: bareDie}
	} else {
		tokens, subs, err := decompose(o.candidate, limits.DefaultSurface)
		if err != nil {
			return nil, err
		}
		e.Skeleton, e.Subexpressions = tokens, subs
	}

	if err := e.roll(src); err != nil {
		return nil, err
	}
	return e, nil
}

// Reroll evaluates a fresh copy of prev: the parsed skeleton, reason and
// limits are reused, every random draw is repeated.
//
// Precondition: prev came from Evaluate or Reroll; src must be non-nil.
func Reroll(prev *Expression, src Source) (*Expression, error) {
	next := prev.clone()
	if err := next.roll(src); err != nil {
		return nil, err
	}
	return next, nil
}

// Text returns the caller-facing rendering, e.g. "3D6+2=(1+4+6)+2=11+2=13".
func (e *Expression) Text() string {
	return e.Rendering.String()
}

// Hidden reports whether the result must be delivered privately.
func (e *Expression) Hidden() bool {
	return e.Visibility == VisibilityHidden
}

// clone copies skeleton and metadata and discards every drawn value.
func (e *Expression) clone() *Expression {
	next := &Expression{
		Raw:        e.Raw,
		Visibility: e.Visibility,
		Limits:     e.Limits,
		Reason:     e.Reason,
		Skeleton:   append([]Token(nil), e.Skeleton...),
	}
	if e.Bonus != nil {
		next.Bonus = &BonusPunishment{Kind: e.Bonus.Kind, Count: e.Bonus.Count, Base: blank(e.Bonus.Base)}
	}
	if e.Subexpressions != nil {
		next.Subexpressions = make([]Subexpression, len(e.Subexpressions))
		for i, s := range e.Subexpressions {
			next.Subexpressions[i] = blank(s)
		}
	}
	return next
}

// blank strips drawn values from s. Constants keep their literal.
func blank(s Subexpression) Subexpression {
	s.Faces, s.Kept = nil, nil
	if s.Kind != KindConstant {
		s.Sum = 0
	}
	return s
}

// roll checks every bound before drawing anything, then draws, evaluates
// and renders.
func (e *Expression) roll(src Source) error {
	if e.Bonus != nil {
		if err := e.Bonus.check(e.Limits); err != nil {
			return err
		}
		e.Result = e.Bonus.roll(src)
		e.Rendering = render(e)
		return nil
	}

	for _, s := range e.Subexpressions {
		if err := s.check(e.Limits); err != nil {
			return err
		}
	}
	for i := range e.Subexpressions {
		e.Subexpressions[i] = e.Subexpressions[i].roll(src)
	}

	result, err := EvalArithmetic(renderSkeleton(e.Skeleton, e.Subexpressions, sumText))
	if err != nil {
		return err
	}
	e.Result = result
	e.Rendering = render(e)
	return nil
}
