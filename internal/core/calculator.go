package core

import (
	"fmt"
	"math/rand/v2"

	"variantcore/pkg/domain"
)

// RandomSource supplies uniform samples. *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
	IntN(n int) int
}

// NewSeededSource returns a deterministic source for the seed.
func NewSeededSource(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Calculator computes candidate values from a current value and a modification
// spec. Each worker owns its Calculator; the source is not synchronised.
type Calculator struct {
	src RandomSource
}

// NewCalculator constructs a calculator drawing samples from src. A nil source
// is replaced by one seeded from the runtime's random generator.
func NewCalculator(src RandomSource) *Calculator {
	if src == nil {
		src = NewSeededSource(rand.Uint64())
	}
	return &Calculator{src: src}
}

// Compute returns the candidate value described by spec. Coercion and constraint
// enforcement happen afterwards.
func (c *Calculator) Compute(current domain.Value, spec domain.ModificationSpec) (domain.Value, error) {
	if err := spec.Validate(); err != nil {
		return domain.Value{}, err
	}
	switch spec.Method {
	case domain.MethodAbsolute:
		return *spec.Value, nil
	case domain.MethodRelative, domain.MethodMultiplier:
		base, ok := current.Float()
		if !ok {
			return domain.Value{}, fmt.Errorf("method %s needs a numeric current value, got %q", spec.Method, current.String())
		}
		factor := c.scalar(spec.Factor, spec.Range)
		return domain.Number(base * factor), nil
	case domain.MethodPercentage:
		base, ok := current.Float()
		if !ok {
			return domain.Value{}, fmt.Errorf("method %s needs a numeric current value, got %q", spec.Method, current.String())
		}
		pct := c.scalar(spec.Percent, spec.Range)
		return domain.Number(base * (1 + pct/100)), nil
	case domain.MethodDiscrete:
		idx := 0
		if spec.Index != nil {
			idx = *spec.Index
		} else {
			idx = c.src.IntN(len(spec.Options))
		}
		return spec.Options[idx], nil
	}
	return domain.Value{}, fmt.Errorf("unknown method %q", spec.Method)
}

// scalar prefers the fixed operand and otherwise samples uniformly from span.
func (c *Calculator) scalar(fixed *float64, span []float64) float64 {
	if fixed != nil {
		return *fixed
	}
	lo, hi := span[0], span[1]
	return lo + c.src.Float64()*(hi-lo)
}
