package compiler

// builtin is a function lowered to inline code rather than imported.
type builtin int

const (
	builtinIf builtin = iota
	builtinExec2
	builtinExec3
	builtinWhile
	builtinLoop
	builtinMegabuf
	builtinGmegabuf
	builtinAbs
	builtinSqrt
	builtinInt
	builtinFloor
	builtinCeil
	builtinMin
	builtinMax
	builtinSign
	builtinSqr
	builtinInvsqrt
	builtinBor
	builtinBand
	builtinBnot
	builtinAbove
	builtinBelow
	builtinEqual
)

func lookupBuiltin(name string) (builtin, bool) {
	switch name {
	case "if":
		return builtinIf, true
	case "exec2":
		return builtinExec2, true
	case "exec3":
		return builtinExec3, true
	case "while":
		return builtinWhile, true
	case "loop":
		return builtinLoop, true
	case "megabuf":
		return builtinMegabuf, true
	case "gmegabuf":
		return builtinGmegabuf, true
	case "abs":
		return builtinAbs, true
	case "sqrt":
		return builtinSqrt, true
	case "int":
		return builtinInt, true
	case "floor":
		return builtinFloor, true
	case "ceil":
		return builtinCeil, true
	case "min":
		return builtinMin, true
	case "max":
		return builtinMax, true
	case "sign":
		return builtinSign, true
	case "sqr":
		return builtinSqr, true
	case "invsqrt":
		return builtinInvsqrt, true
	case "bor":
		return builtinBor, true
	case "band":
		return builtinBand, true
	case "bnot":
		return builtinBnot, true
	case "above":
		return builtinAbove, true
	case "below":
		return builtinBelow, true
	case "equal":
		return builtinEqual, true
	}
	return 0, false
}

func (b builtin) arity() int {
	switch b {
	case builtinIf, builtinExec3:
		return 3
	case builtinExec2, builtinLoop, builtinMin, builtinMax, builtinBor, builtinBand,
		builtinAbove, builtinBelow, builtinEqual:
		return 2
	default:
		return 1
	}
}
