package dice

import (
	"fmt"

	"go.uber.org/zap"
)

// Roller wraps a Source and logger to provide logged evaluation.
// Every evaluation is logged at debug level with order, rendering, result and visibility.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Evaluate evaluates order against limits and logs the outcome.
//
// Postcondition: returns the Expression or an engine error; either is logged.
func (r *Roller) Evaluate(order string, limits Limits) (*Expression, error) {
	e, err := Evaluate(order, limits, r.src)
	r.log(order, e, err)
	return e, err
}

// Reroll re-draws prev and logs the outcome.
func (r *Roller) Reroll(prev *Expression) (*Expression, error) {
	e, err := Reroll(prev, r.src)
	r.log(prev.Raw, e, err)
	return e, err
}

// Repeat evaluates order once and rerolls the parsed skeleton until times
// results exist. Bounding times is the caller's responsibility.
//
// Precondition: times >= 1.
// Postcondition: len(result) == times, or an error and no results.
func (r *Roller) Repeat(order string, limits Limits, times int) ([]*Expression, error) {
	if times < 1 {
		return nil, fmt.Errorf("dice: repeat count must be >= 1, got %d", times)
	}
	first, err := r.Evaluate(order, limits)
	if err != nil {
		return nil, err
	}
	results := make([]*Expression, 0, times)
	results = append(results, first)
	for len(results) < times {
		next, err := r.Reroll(first)
		if err != nil {
			return nil, err
		}
		results = append(results, next)
	}
	return results, nil
}

// Seeded returns SeededDraw(seed, max) and logs it.
func (r *Roller) Seeded(seed int64, max int) int {
	v := SeededDraw(seed, max)
	r.logger.Debug("seeded draw",
		zap.Int64("seed", seed),
		zap.Int("max", max),
		zap.Int("value", v),
	)
	return v
}

func (r *Roller) log(order string, e *Expression, err error) {
	if err != nil {
		r.logger.Debug("dice roll rejected",
			zap.String("order", order),
			zap.Error(err),
		)
		return
	}
	r.logger.Debug("dice roll",
		zap.String("order", order),
		zap.String("text", e.Text()),
		zap.Int64("result", e.Result),
		zap.String("reason", e.Reason),
		zap.Stringer("visibility", e.Visibility),
	)
}
