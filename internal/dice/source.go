package dice

import (
	crand "crypto/rand"
	"math/big"
	"math/rand/v2"
	"sync"
)

// cryptoSource draws from crypto/rand. It is the default Source for live rolls.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Intn returns a uniformly distributed int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	v, err := crand.Int(crand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(v.Int64())
}

// seededSource implements Source with a repeatable PCG stream.
//
// Invariant: two seededSources built from the same seed yield the same sequence.
type seededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSource returns a deterministic Source for the given seed.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewSeededSource(seed int64) Source {
	s := uint64(seed)
	return &seededSource{rng: rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))}
}

// Intn returns the next value of the seeded stream in [0, n).
//
// Precondition: n > 0.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// SeededDraw returns one uniform integer in [1, max] derived only from seed.
// Identical (seed, max) pairs always produce the identical value.
//
// Precondition: max > 0.
func SeededDraw(seed int64, max int) int {
	return NewSeededSource(seed).Intn(max) + 1
}
