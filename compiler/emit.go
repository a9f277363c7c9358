package compiler

import (
	"strings"

	"github.com/sergev/eelwasm/parser"
	"github.com/sergev/eelwasm/wasm"
)

// emitter generates the body of one exported function. Module-wide state
// lives in module; locals and code belong to this function alone.
type emitter struct {
	mod    *module
	fn     *function
	locals []wasm.ValType
	code   wasm.Code
}

func newEmitter(mod *module, fn *function) *emitter {
	return &emitter{mod: mod, fn: fn}
}

// resolveVar returns the global index backing name: an imported pool
// global when the function's pool declares name, else a module global
// private to the pool.
func (e *emitter) resolveVar(ident *parser.Identifier) (uint32, error) {
	if declared, ok := e.mod.pools[e.fn.pool][ident.Name]; ok {
		idx, ok := e.mod.externals.Lookup(externalKey(e.fn.pool, declared))
		if !ok {
			return 0, e.compilerErrorf(ident, "pool variable %s.%s was not collected before emission", e.fn.pool, declared)
		}
		return idx, nil
	}
	idx := e.mod.userVars.Resolve(externalKey(e.fn.pool, ident.Name))
	return uint32(e.mod.externals.Len()) + idx, nil
}

// resolveFunc returns the call instruction for a shim or helper. Names
// starting with an underscore are reserved for helpers and cannot be
// called from EEL.
func (e *emitter) resolveFunc(call *parser.CallExpression) ([]byte, error) {
	name := call.Callee.Name
	if strings.HasPrefix(name, "_") {
		return nil, e.userErrorf(call.Callee, "%q is a private function and cannot be called", name)
	}
	shim, ok := lookupShim(name)
	if !ok {
		return nil, e.userErrorf(call.Callee, "unknown function %q", name)
	}
	if err := e.checkArity(call, shim.Arity()); err != nil {
		return nil, err
	}
	var c wasm.Code
	c.Call(e.mod.shimIndex(shim))
	return c.Bytes(), nil
}

// resolveLocal allocates a fresh local of the given type.
func (e *emitter) resolveLocal(typ wasm.ValType) uint32 {
	e.locals = append(e.locals, typ)
	return uint32(len(e.locals) - 1)
}

func (e *emitter) callHelper(h helper) {
	e.code.Call(e.mod.helperIndex(h))
}

func (e *emitter) emitScript(script *parser.Script) error {
	for _, stmt := range script.Body {
		if err := e.emitExpr(stmt); err != nil {
			return err
		}
		e.code.Op(wasm.OpDrop)
	}
	return nil
}

// emitSequence emits nodes in order and keeps only the last value.
func (e *emitter) emitSequence(nodes []parser.Node) error {
	for i, node := range nodes {
		if err := e.emitExpr(node); err != nil {
			return err
		}
		if i < len(nodes)-1 {
			e.code.Op(wasm.OpDrop)
		}
	}
	return nil
}

// emitExpr emits code that leaves exactly one f64 on the stack.
func (e *emitter) emitExpr(node parser.Node) error {
	switch n := node.(type) {
	case *parser.NumberLiteral:
		e.code.F64Const(n.Value)
	case *parser.Identifier:
		idx, err := e.resolveVar(n)
		if err != nil {
			return err
		}
		e.code.GlobalGet(idx)
	case *parser.ExpressionBlock:
		if len(n.Body) == 0 {
			return e.compilerErrorf(n, "empty expression block")
		}
		return e.emitSequence(n.Body)
	case *parser.UnaryExpression:
		return e.emitUnary(n)
	case *parser.BinaryExpression:
		return e.emitBinary(n)
	case *parser.LogicalExpression:
		return e.emitLogical(n)
	case *parser.AssignmentExpression:
		return e.emitAssignment(n)
	case *parser.CallExpression:
		return e.emitCall(n)
	default:
		return e.compilerErrorf(node, "unexpected %T in expression position", node)
	}
	return nil
}

func (e *emitter) emitUnary(n *parser.UnaryExpression) error {
	if err := e.emitExpr(n.Operand); err != nil {
		return err
	}
	switch n.Operator {
	case "-":
		e.code.Op(wasm.OpF64Neg)
	case "+":
	case "!":
		e.callHelper(helperIsZeroish)
		e.code.Op(wasm.OpF64ConvertI32S)
	default:
		return e.compilerErrorf(n, "unknown unary operator %q", n.Operator)
	}
	return nil
}

func (e *emitter) emitBinary(n *parser.BinaryExpression) error {
	if err := e.emitExpr(n.Left); err != nil {
		return err
	}
	if err := e.emitExpr(n.Right); err != nil {
		return err
	}
	return e.emitOperator(n, n.Operator)
}

// emitOperator applies a binary operator to the two f64 operands on the
// stack.
func (e *emitter) emitOperator(node parser.Node, op string) error {
	switch op {
	case "+":
		e.code.Op(wasm.OpF64Add)
	case "-":
		e.code.Op(wasm.OpF64Sub)
	case "*":
		e.code.Op(wasm.OpF64Mul)
	case "/":
		e.callHelper(helperDiv)
	case "%":
		e.callHelper(helperMod)
	case "&":
		e.callHelper(helperBitwiseAnd)
	case "|":
		e.callHelper(helperBitwiseOr)
	case "^":
		e.code.Call(e.mod.shimIndex(ShimPow))
	case "==":
		e.code.Op(wasm.OpF64Sub)
		e.callHelper(helperIsZeroish)
		e.code.Op(wasm.OpF64ConvertI32S)
	case "!=":
		e.code.Op(wasm.OpF64Sub)
		e.callHelper(helperIsNotZeroish)
		e.code.Op(wasm.OpF64ConvertI32S)
	case "<":
		e.code.Op(wasm.OpF64Lt, wasm.OpF64ConvertI32S)
	case ">":
		e.code.Op(wasm.OpF64Gt, wasm.OpF64ConvertI32S)
	case "<=":
		e.code.Op(wasm.OpF64Le, wasm.OpF64ConvertI32S)
	case ">=":
		e.code.Op(wasm.OpF64Ge, wasm.OpF64ConvertI32S)
	default:
		return e.compilerErrorf(node, "unknown binary operator %q", op)
	}
	return nil
}

func (e *emitter) emitLogical(n *parser.LogicalExpression) error {
	if err := e.emitExpr(n.Left); err != nil {
		return err
	}
	e.callHelper(helperIsNotZeroish)
	e.code.If(wasm.BlockF64)
	switch n.Operator {
	case "&&":
		if err := e.emitTruth(n.Right); err != nil {
			return err
		}
		e.code.Op(wasm.OpElse).F64Const(0)
	case "||":
		e.code.F64Const(1).Op(wasm.OpElse)
		if err := e.emitTruth(n.Right); err != nil {
			return err
		}
	default:
		return e.compilerErrorf(n, "unknown logical operator %q", n.Operator)
	}
	e.code.Op(wasm.OpEnd)
	return nil
}

// emitTruth emits node as 1.0 when it is not zeroish and 0.0 otherwise.
func (e *emitter) emitTruth(node parser.Node) error {
	if err := e.emitExpr(node); err != nil {
		return err
	}
	e.callHelper(helperIsNotZeroish)
	e.code.Op(wasm.OpF64ConvertI32S)
	return nil
}

func (e *emitter) emitAssignment(n *parser.AssignmentExpression) error {
	switch target := n.Left.(type) {
	case *parser.Identifier:
		idx, err := e.resolveVar(target)
		if err != nil {
			return err
		}
		if n.Operator != "=" {
			e.code.GlobalGet(idx)
		}
		if err := e.emitExpr(n.Right); err != nil {
			return err
		}
		if n.Operator != "=" {
			if err := e.emitOperator(n, compoundOperator(n.Operator)); err != nil {
				return err
			}
		}
		e.code.GlobalSet(idx).GlobalGet(idx)
		return nil
	case *parser.CallExpression:
		base, ok := bufferBase(target.Callee.Name)
		if !ok {
			return e.userErrorf(target, "cannot assign to a call of %q", target.Callee.Name)
		}
		if err := e.checkArity(target, 1); err != nil {
			return err
		}
		return e.emitBufferStore(n, target.Arguments[0], base)
	default:
		return e.compilerErrorf(n, "unexpected assignment target %T", n.Left)
	}
}

// compoundOperator maps "+=" to "+" and so on.
func compoundOperator(op string) string {
	return strings.TrimSuffix(op, "=")
}

// emitBufferStore stores into a buffer slot. An out-of-range index skips
// the store and the expression yields the right-hand value.
func (e *emitter) emitBufferStore(n *parser.AssignmentExpression, index parser.Node, base uint32) error {
	e.mod.usesMemory = true
	if err := e.emitExpr(index); err != nil {
		return err
	}
	e.callHelper(helperGetBufferStoreIndex)
	offset := e.resolveLocal(wasm.I32)
	value := e.resolveLocal(wasm.F64)
	e.code.LocalTee(offset).I32Const(-1).Op(wasm.OpI32Ne).If(wasm.BlockF64)
	if n.Operator != "=" {
		e.code.LocalGet(offset).F64Load(base)
	}
	if err := e.emitExpr(n.Right); err != nil {
		return err
	}
	if n.Operator != "=" {
		if err := e.emitOperator(n, compoundOperator(n.Operator)); err != nil {
			return err
		}
	}
	e.code.LocalSet(value).
		LocalGet(offset).LocalGet(value).F64Store(base).
		LocalGet(value).
		Op(wasm.OpElse)
	if err := e.emitExpr(n.Right); err != nil {
		return err
	}
	e.code.Op(wasm.OpEnd)
	return nil
}

func bufferBase(name string) (uint32, bool) {
	switch name {
	case "megabuf":
		return megabufBase, true
	case "gmegabuf":
		return gmegabufBase, true
	}
	return 0, false
}

func (e *emitter) checkArity(call *parser.CallExpression, want int) error {
	if got := len(call.Arguments); got != want {
		return e.userErrorf(call, "function %q expects %d %s but got %d",
			call.Callee.Name, want, plural(want, "argument"), got)
	}
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func (e *emitter) emitCall(call *parser.CallExpression) error {
	b, ok := lookupBuiltin(call.Callee.Name)
	if !ok {
		instr, err := e.resolveFunc(call)
		if err != nil {
			return err
		}
		for _, arg := range call.Arguments {
			if err := e.emitExpr(arg); err != nil {
				return err
			}
		}
		e.code.Append(instr)
		return nil
	}
	if err := e.checkArity(call, b.arity()); err != nil {
		return err
	}
	args := call.Arguments
	switch b {
	case builtinIf:
		if err := e.emitExpr(args[0]); err != nil {
			return err
		}
		e.callHelper(helperIsNotZeroish)
		e.code.If(wasm.BlockF64)
		if err := e.emitExpr(args[1]); err != nil {
			return err
		}
		e.code.Op(wasm.OpElse)
		if err := e.emitExpr(args[2]); err != nil {
			return err
		}
		e.code.Op(wasm.OpEnd)
		return nil
	case builtinExec2, builtinExec3:
		return e.emitSequence(args)
	case builtinWhile:
		return e.emitWhile(args[0])
	case builtinLoop:
		return e.emitLoop(args[0], args[1])
	case builtinMegabuf, builtinGmegabuf:
		base, _ := bufferBase(call.Callee.Name)
		return e.emitBufferLoad(args[0], base)
	}

	for _, arg := range args {
		if err := e.emitExpr(arg); err != nil {
			return err
		}
	}
	switch b {
	case builtinAbs:
		e.code.Op(wasm.OpF64Abs)
	case builtinSqrt:
		e.code.Op(wasm.OpF64Abs, wasm.OpF64Sqrt)
	case builtinInt, builtinFloor:
		e.code.Op(wasm.OpF64Floor)
	case builtinCeil:
		e.code.Op(wasm.OpF64Ceil)
	case builtinMin:
		e.code.Op(wasm.OpF64Min)
	case builtinMax:
		e.code.Op(wasm.OpF64Max)
	case builtinSign:
		e.callHelper(helperSign)
	case builtinSqr:
		tmp := e.resolveLocal(wasm.F64)
		e.code.LocalTee(tmp).LocalGet(tmp).Op(wasm.OpF64Mul)
	case builtinInvsqrt:
		tmp := e.resolveLocal(wasm.F64)
		e.code.LocalSet(tmp).F64Const(1).LocalGet(tmp).Op(wasm.OpF64Abs, wasm.OpF64Sqrt, wasm.OpF64Div)
	case builtinBor, builtinBand:
		// Both operands are already on the stack; test each for truth.
		right := e.resolveLocal(wasm.F64)
		e.code.LocalSet(right)
		e.callHelper(helperIsNotZeroish)
		e.code.LocalGet(right)
		e.callHelper(helperIsNotZeroish)
		if b == builtinBor {
			e.code.Op(wasm.OpI32Or)
		} else {
			e.code.Op(wasm.OpI32And)
		}
		e.code.Op(wasm.OpF64ConvertI32S)
	case builtinBnot:
		e.callHelper(helperIsZeroish)
		e.code.Op(wasm.OpF64ConvertI32S)
	case builtinAbove:
		e.code.Op(wasm.OpF64Gt, wasm.OpF64ConvertI32S)
	case builtinBelow:
		e.code.Op(wasm.OpF64Lt, wasm.OpF64ConvertI32S)
	case builtinEqual:
		e.code.Op(wasm.OpF64Sub)
		e.callHelper(helperIsZeroish)
		e.code.Op(wasm.OpF64ConvertI32S)
	default:
		return e.compilerErrorf(call, "builtin %q has no lowering", call.Callee.Name)
	}
	return nil
}

// emitWhile runs body until it yields a zeroish value or MaxLoopCount
// iterations have run. The body always runs at least once.
func (e *emitter) emitWhile(body parser.Node) error {
	counter := e.resolveLocal(wasm.I32)
	e.code.I32Const(0).LocalSet(counter).
		Loop(wasm.BlockVoid)
	if err := e.emitExpr(body); err != nil {
		return err
	}
	e.callHelper(helperIsNotZeroish)
	e.code.LocalGet(counter).I32Const(1).Op(wasm.OpI32Add).LocalTee(counter).
		I32Const(MaxLoopCount).Op(wasm.OpI32LtS).
		Op(wasm.OpI32And).
		BrIf(0).
		Op(wasm.OpEnd).
		F64Const(0)
	return nil
}

// emitLoop runs body count times, count truncated toward zero.
func (e *emitter) emitLoop(count, body parser.Node) error {
	if err := e.emitExpr(count); err != nil {
		return err
	}
	remaining := e.resolveLocal(wasm.I32)
	e.code.TruncSat(wasm.FCI32TruncSatF64S).LocalSet(remaining).
		Block(wasm.BlockVoid).
		Loop(wasm.BlockVoid).
		LocalGet(remaining).I32Const(0).Op(wasm.OpI32LeS).BrIf(1)
	if err := e.emitExpr(body); err != nil {
		return err
	}
	e.code.Op(wasm.OpDrop).
		LocalGet(remaining).I32Const(1).Op(wasm.OpI32Sub).LocalSet(remaining).
		Br(0).
		Op(wasm.OpEnd).
		Op(wasm.OpEnd).
		F64Const(0)
	return nil
}

// emitBufferLoad reads a buffer slot, or 0 when the index is out of range.
func (e *emitter) emitBufferLoad(index parser.Node, base uint32) error {
	e.mod.usesMemory = true
	if err := e.emitExpr(index); err != nil {
		return err
	}
	e.callHelper(helperGetBufferIndex)
	offset := e.resolveLocal(wasm.I32)
	e.code.LocalTee(offset).I32Const(-1).Op(wasm.OpI32Ne).
		If(wasm.BlockF64).
		LocalGet(offset).F64Load(base).
		Op(wasm.OpElse).
		F64Const(0).
		Op(wasm.OpEnd)
	return nil
}

func (e *emitter) userErrorf(node parser.Node, format string, args ...any) error {
	return e.located(userErrorf(format, args...), node)
}

func (e *emitter) compilerErrorf(node parser.Node, format string, args ...any) error {
	return e.located(compilerErrorf(format, args...), node)
}

func (e *emitter) located(err *Error, node parser.Node) error {
	err.Function = e.fn.name
	err.Source = e.fn.src.Original
	if node != nil && !node.Span().IsZero() {
		err.Loc = locFromSpan(e.fn.src.LocateSpan(node.Span()))
	}
	return err
}

func externalKey(pool, name string) string {
	return pool + "\x00" + name
}
