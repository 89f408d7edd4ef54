package dice

import "errors"

// Evaluation failures. Parse-time problems never surface as errors; the order
// degrades to a reason-only roll instead.
var (
	// ErrDiceNumberOverstep is returned when a dice count is outside [1, MaxDiceNumber].
	ErrDiceNumberOverstep = errors.New("dice: dice number out of range")
	// ErrSurfaceNumberOverstep is returned when a surface number is outside [1, MaxSurfaceNumber].
	ErrSurfaceNumberOverstep = errors.New("dice: surface number out of range")
	// ErrExpressionInvalid is returned for terms that can never be rolled, such as
	// a keep count larger than the dice count.
	ErrExpressionInvalid = errors.New("dice: invalid expression")
	// ErrExpressionEvaluation is returned when the substituted arithmetic cannot be evaluated.
	ErrExpressionEvaluation = errors.New("dice: expression evaluation failed")
)
