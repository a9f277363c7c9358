package runtime

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero"

	"github.com/sergev/eelwasm/compiler"
)

// mathShims returns the default implementation of every shim.
func mathShims(rng *rand.Rand) map[string]any {
	return map[string]any{
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"asin":  math.Asin,
		"acos":  math.Acos,
		"atan":  math.Atan,
		"atan2": math.Atan2,
		"rand": func(x float64) float64 {
			return rng.Float64() * x
		},
		"pow":     math.Pow,
		"log":     math.Log,
		"log10":   math.Log10,
		"exp":     math.Exp,
		"sigmoid": sigmoid,
	}
}

func sigmoid(x, constraint float64) float64 {
	t := 1 + math.Exp(-x*constraint)
	if math.Abs(t) > compiler.Epsilon {
		return 1 / t
	}
	return 0
}

// instantiateShims registers the shims host module. Overrides take
// precedence over the math implementations.
func instantiateShims(ctx context.Context, r wazero.Runtime, cfg Config) error {
	impls := mathShims(rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)))
	for name, fn := range cfg.Shims {
		impls[name] = fn
	}
	builder := r.NewHostModuleBuilder(compiler.ShimModule)
	for _, s := range compiler.Shims {
		builder = builder.NewFunctionBuilder().
			WithFunc(impls[s.Name()]).
			WithParameterNames(shimParams(s)...).
			Export(s.Name())
	}
	if _, err := builder.Instantiate(ctx); err != nil {
		return errors.Wrap(err, "instantiate shims")
	}
	return nil
}

func shimParams(s compiler.Shim) []string {
	if s.Arity() == 2 {
		return []string{"x", "y"}
	}
	return []string{"x"}
}
