package compiler

// ShimModule is the import module name of the host-supplied math functions.
const ShimModule = "shims"

// Shim is one of the math functions the host supplies as an import.
type Shim int

const (
	ShimSin Shim = iota
	ShimCos
	ShimTan
	ShimAsin
	ShimAcos
	ShimAtan
	ShimAtan2
	ShimRand
	ShimPow
	ShimLog
	ShimLog10
	ShimExp
	ShimSigmoid

	shimCount
)

// Shims lists every shim in import order.
var Shims = func() []Shim {
	all := make([]Shim, shimCount)
	for i := range all {
		all[i] = Shim(i)
	}
	return all
}()

// Name is the import field name, which is also the EEL function name.
func (s Shim) Name() string {
	switch s {
	case ShimSin:
		return "sin"
	case ShimCos:
		return "cos"
	case ShimTan:
		return "tan"
	case ShimAsin:
		return "asin"
	case ShimAcos:
		return "acos"
	case ShimAtan:
		return "atan"
	case ShimAtan2:
		return "atan2"
	case ShimRand:
		return "rand"
	case ShimPow:
		return "pow"
	case ShimLog:
		return "log"
	case ShimLog10:
		return "log10"
	case ShimExp:
		return "exp"
	case ShimSigmoid:
		return "sigmoid"
	}
	panic("compiler: unknown shim")
}

// Arity is the number of f64 parameters the shim takes. Every shim
// returns one f64.
func (s Shim) Arity() int {
	switch s {
	case ShimAtan2, ShimPow, ShimSigmoid:
		return 2
	default:
		return 1
	}
}

func lookupShim(name string) (Shim, bool) {
	for _, s := range Shims {
		if s.Name() == name {
			return s, true
		}
	}
	return 0, false
}
