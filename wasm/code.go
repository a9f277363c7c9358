package wasm

// Code accumulates an instruction stream.
type Code struct {
	buf []byte
}

// Bytes returns the instructions emitted so far.
func (c *Code) Bytes() []byte { return c.buf }

// Len reports the number of bytes emitted so far.
func (c *Code) Len() int { return len(c.buf) }

// Op appends raw opcodes.
func (c *Code) Op(ops ...byte) *Code {
	c.buf = append(c.buf, ops...)
	return c
}

// Append appends an already encoded instruction sequence.
func (c *Code) Append(other []byte) *Code {
	c.buf = append(c.buf, other...)
	return c
}

// U32 appends an unsigned LEB128 immediate.
func (c *Code) U32(v uint32) *Code {
	c.buf = AppendULEB128(c.buf, uint64(v))
	return c
}

func (c *Code) I32Const(v int32) *Code {
	c.buf = AppendSLEB128(append(c.buf, OpI32Const), int64(v))
	return c
}

func (c *Code) I64Const(v int64) *Code {
	c.buf = AppendSLEB128(append(c.buf, OpI64Const), v)
	return c
}

func (c *Code) F64Const(v float64) *Code {
	c.buf = AppendF64(append(c.buf, OpF64Const), v)
	return c
}

func (c *Code) LocalGet(idx uint32) *Code  { return c.Op(OpLocalGet).U32(idx) }
func (c *Code) LocalSet(idx uint32) *Code  { return c.Op(OpLocalSet).U32(idx) }
func (c *Code) LocalTee(idx uint32) *Code  { return c.Op(OpLocalTee).U32(idx) }
func (c *Code) GlobalGet(idx uint32) *Code { return c.Op(OpGlobalGet).U32(idx) }
func (c *Code) GlobalSet(idx uint32) *Code { return c.Op(OpGlobalSet).U32(idx) }
func (c *Code) Call(idx uint32) *Code      { return c.Op(OpCall).U32(idx) }
func (c *Code) Br(depth uint32) *Code      { return c.Op(OpBr).U32(depth) }
func (c *Code) BrIf(depth uint32) *Code    { return c.Op(OpBrIf).U32(depth) }

// Block, Loop and If open a structured instruction with the given block type.
func (c *Code) Block(bt byte) *Code { return c.Op(OpBlock, bt) }
func (c *Code) Loop(bt byte) *Code  { return c.Op(OpLoop, bt) }
func (c *Code) If(bt byte) *Code    { return c.Op(OpIf, bt) }

// F64Load and F64Store address memory at the popped i32 plus offset.
func (c *Code) F64Load(offset uint32) *Code {
	return c.Op(OpF64Load).U32(AlignF64).U32(offset)
}

func (c *Code) F64Store(offset uint32) *Code {
	return c.Op(OpF64Store).U32(AlignF64).U32(offset)
}

// TruncSat appends a saturating truncation, one of the FC* sub-opcodes.
func (c *Code) TruncSat(sub uint32) *Code {
	return c.Op(OpPrefixFC).U32(sub)
}
