// Package dice implements the dice-notation expression engine: order parsing,
// decomposition into dice terms, rolling, keep-highest reduction,
// bonus/punishment adjustment of percentile rolls, integer arithmetic and
// rendering of the intermediate and final results.
package dice

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Limits carries the caller-owned bounds an order is evaluated against.
type Limits struct {
	// DefaultSurface is substituted wherever a dice term omits its surface number.
	DefaultSurface int
	// MaxDiceNumber is the largest dice count a single term may roll.
	MaxDiceNumber int
	// MaxSurfaceNumber is the largest surface number a single die may have.
	MaxSurfaceNumber int
}

// fallbackSurface replaces an invalid caller-supplied default surface.
const fallbackSurface = 100

func (l Limits) normalized() Limits {
	if l.DefaultSurface < 1 {
		l.DefaultSurface = fallbackSurface
	}
	return l
}
