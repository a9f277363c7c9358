package compiler

import "github.com/sergev/eelwasm/wasm"

const (
	// Epsilon bounds the magnitude of values treated as zero.
	Epsilon = 0.00001
	// BufferSize is the number of f64 slots in megabuf and in gmegabuf.
	BufferSize = 65536 * 8
	// MaxLoopCount bounds the iterations of a while loop.
	MaxLoopCount = 1048576

	bufferBytes   = BufferSize * 8
	megabufBase   = 0
	gmegabufBase  = bufferBytes
	memoryPages   = 2 * bufferBytes / 65536
	int32MinFloat = -2147483648.0
	int32MaxFloat = 2147483647.0
)

// helper is a module-defined function the generated code calls. Helper
// bodies never call other helpers, so each can be added on first use.
type helper int

const (
	helperDiv helper = iota
	helperMod
	helperBitwiseAnd
	helperBitwiseOr
	helperSign
	helperIsZeroish
	helperIsNotZeroish
	helperGetBufferIndex
	helperGetBufferStoreIndex
)

func (h helper) name() string {
	switch h {
	case helperDiv:
		return "_div"
	case helperMod:
		return "_mod"
	case helperBitwiseAnd:
		return "_bitwiseAnd"
	case helperBitwiseOr:
		return "_bitwiseOr"
	case helperSign:
		return "_sign"
	case helperIsZeroish:
		return "_isZeroish"
	case helperIsNotZeroish:
		return "_isNotZeroish"
	case helperGetBufferIndex:
		return "_getBufferIndex"
	case helperGetBufferStoreIndex:
		return "_getBufferStoreIndex"
	}
	panic("compiler: unknown helper")
}

var (
	f64x1 = []wasm.ValType{wasm.F64}
	f64x2 = []wasm.ValType{wasm.F64, wasm.F64}
	i32x1 = []wasm.ValType{wasm.I32}
)

// signature returns the parameter and result types of h.
func (h helper) signature() (params, results []wasm.ValType) {
	switch h {
	case helperDiv, helperMod, helperBitwiseAnd, helperBitwiseOr:
		return f64x2, f64x1
	case helperSign:
		return f64x1, f64x1
	default:
		return f64x1, i32x1
	}
}

// function builds the helper's body. Locals are numbered after the
// parameters.
func (h helper) function() (locals []wasm.ValType, code wasm.Code) {
	switch h {
	case helperDiv:
		// b != 0 ? a / b : 0
		code.LocalGet(1).F64Const(0).Op(wasm.OpF64Ne).
			If(wasm.BlockF64).
			LocalGet(0).LocalGet(1).Op(wasm.OpF64Div).
			Op(wasm.OpElse).
			F64Const(0).
			Op(wasm.OpEnd)
	case helperMod:
		// Both operands must lie in the i32 range and the divisor must
		// truncate to a non-zero value; otherwise the result is 0.
		locals = []wasm.ValType{wasm.I32}
		code.LocalGet(0).F64Const(int32MinFloat).Op(wasm.OpF64Ge).
			LocalGet(0).F64Const(int32MaxFloat).Op(wasm.OpF64Le).Op(wasm.OpI32And).
			LocalGet(1).F64Const(int32MinFloat).Op(wasm.OpF64Ge).Op(wasm.OpI32And).
			LocalGet(1).F64Const(int32MaxFloat).Op(wasm.OpF64Le).Op(wasm.OpI32And).
			If(wasm.BlockF64).
			LocalGet(1).Op(wasm.OpI32TruncF64S).LocalTee(2).Op(wasm.OpI32Eqz).
			If(wasm.BlockF64).
			F64Const(0).
			Op(wasm.OpElse).
			LocalGet(0).Op(wasm.OpI32TruncF64S).LocalGet(2).Op(wasm.OpI32RemS).Op(wasm.OpF64ConvertI32S).
			Op(wasm.OpEnd).
			Op(wasm.OpElse).
			F64Const(0).
			Op(wasm.OpEnd)
	case helperBitwiseAnd, helperBitwiseOr:
		op := wasm.OpI64And
		if h == helperBitwiseOr {
			op = wasm.OpI64Or
		}
		code.LocalGet(0).TruncSat(wasm.FCI64TruncSatF64S).
			LocalGet(1).TruncSat(wasm.FCI64TruncSatF64S).
			Op(op, wasm.OpF64ConvertI64S)
	case helperSign:
		// NaN compares false both ways and yields 0.
		code.LocalGet(0).F64Const(0).Op(wasm.OpF64Gt).
			If(wasm.BlockF64).
			F64Const(1).
			Op(wasm.OpElse).
			LocalGet(0).F64Const(0).Op(wasm.OpF64Lt).
			If(wasm.BlockF64).
			F64Const(-1).
			Op(wasm.OpElse).
			F64Const(0).
			Op(wasm.OpEnd).
			Op(wasm.OpEnd)
	case helperIsZeroish:
		code.LocalGet(0).Op(wasm.OpF64Abs).F64Const(Epsilon).Op(wasm.OpF64Lt)
	case helperIsNotZeroish:
		code.LocalGet(0).Op(wasm.OpF64Abs).F64Const(Epsilon).Op(wasm.OpF64Lt).Op(wasm.OpI32Eqz)
	case helperGetBufferIndex:
		// Byte offset of slot trunc(i + Epsilon), or -1 when out of range.
		// Truncation is toward zero, so indices just above -1 read slot 0.
		locals = []wasm.ValType{wasm.I32}
		code.LocalGet(0).F64Const(Epsilon).Op(wasm.OpF64Add).
			TruncSat(wasm.FCI32TruncSatF64S)
		appendSlotCheck(&code)
	case helperGetBufferStoreIndex:
		// Like _getBufferIndex, except that a negative index never stores.
		locals = []wasm.ValType{wasm.I32}
		code.LocalGet(0).F64Const(0).Op(wasm.OpF64Lt).
			If(wasm.BlockI32).
			I32Const(-1).
			Op(wasm.OpElse).
			LocalGet(0).F64Const(Epsilon).Op(wasm.OpF64Add).
			TruncSat(wasm.FCI32TruncSatF64S).
			Op(wasm.OpEnd)
		appendSlotCheck(&code)
	}
	return locals, code
}

// appendSlotCheck turns the slot number on the stack into a byte offset,
// or -1 when it is outside the buffer. Local 1 holds the slot.
func appendSlotCheck(code *wasm.Code) {
	code.LocalTee(1).
		I32Const(0).Op(wasm.OpI32LtS).
		LocalGet(1).I32Const(BufferSize-1).Op(wasm.OpI32GtS).
		Op(wasm.OpI32Or).
		If(wasm.BlockI32).
		I32Const(-1).
		Op(wasm.OpElse).
		LocalGet(1).I32Const(8).Op(wasm.OpI32Mul).
		Op(wasm.OpEnd)
}
