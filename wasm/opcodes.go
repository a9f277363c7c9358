package wasm

// ValType is a value type in the binary format.
type ValType byte

const (
	I32 ValType = 0x7f
	I64 ValType = 0x7e
	F32 ValType = 0x7d
	F64 ValType = 0x7c
)

func (v ValType) String() string {
	switch v {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return "unknown"
	}
}

// Block types for structured control instructions.
const (
	BlockVoid byte = 0x40
	BlockF64  byte = byte(F64)
	BlockI32  byte = byte(I32)
)

// SectionID identifies a module section.
type SectionID byte

const (
	SectionCustom   SectionID = 0
	SectionType     SectionID = 1
	SectionImport   SectionID = 2
	SectionFunction SectionID = 3
	SectionTable    SectionID = 4
	SectionMemory   SectionID = 5
	SectionGlobal   SectionID = 6
	SectionExport   SectionID = 7
	SectionStart    SectionID = 8
	SectionElement  SectionID = 9
	SectionCode     SectionID = 10
	SectionData     SectionID = 11
)

var sectionNames = map[SectionID]string{
	SectionCustom:   "custom",
	SectionType:     "type",
	SectionImport:   "import",
	SectionFunction: "function",
	SectionTable:    "table",
	SectionMemory:   "memory",
	SectionGlobal:   "global",
	SectionExport:   "export",
	SectionStart:    "start",
	SectionElement:  "element",
	SectionCode:     "code",
	SectionData:     "data",
}

func (id SectionID) String() string {
	if name, ok := sectionNames[id]; ok {
		return name
	}
	return "unknown"
}

// ExternKind tags imports and exports.
type ExternKind byte

const (
	ExternFunc   ExternKind = 0x00
	ExternTable  ExternKind = 0x01
	ExternMemory ExternKind = 0x02
	ExternGlobal ExternKind = 0x03
)

func (k ExternKind) String() string {
	switch k {
	case ExternFunc:
		return "func"
	case ExternTable:
		return "table"
	case ExternMemory:
		return "memory"
	case ExternGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Opcodes used by the code generator.
const (
	OpUnreachable byte = 0x00
	OpNop         byte = 0x01
	OpBlock       byte = 0x02
	OpLoop        byte = 0x03
	OpIf          byte = 0x04
	OpElse        byte = 0x05
	OpEnd         byte = 0x0b
	OpBr          byte = 0x0c
	OpBrIf        byte = 0x0d
	OpReturn      byte = 0x0f
	OpCall        byte = 0x10
	OpDrop        byte = 0x1a
	OpSelect      byte = 0x1b

	OpLocalGet  byte = 0x20
	OpLocalSet  byte = 0x21
	OpLocalTee  byte = 0x22
	OpGlobalGet byte = 0x23
	OpGlobalSet byte = 0x24

	OpF64Load  byte = 0x2b
	OpF64Store byte = 0x39

	OpI32Const byte = 0x41
	OpI64Const byte = 0x42
	OpF64Const byte = 0x44

	OpI32Eqz byte = 0x45
	OpI32Eq  byte = 0x46
	OpI32Ne  byte = 0x47
	OpI32LtS byte = 0x48
	OpI32GtS byte = 0x4a
	OpI32LeS byte = 0x4c
	OpI32GeS byte = 0x4e

	OpF64Eq byte = 0x61
	OpF64Ne byte = 0x62
	OpF64Lt byte = 0x63
	OpF64Gt byte = 0x64
	OpF64Le byte = 0x65
	OpF64Ge byte = 0x66

	OpI32Add  byte = 0x6a
	OpI32Sub  byte = 0x6b
	OpI32Mul  byte = 0x6c
	OpI32RemS byte = 0x6f
	OpI32And  byte = 0x71
	OpI32Or   byte = 0x72

	OpI64And byte = 0x83
	OpI64Or  byte = 0x84

	OpF64Abs   byte = 0x99
	OpF64Neg   byte = 0x9a
	OpF64Ceil  byte = 0x9b
	OpF64Floor byte = 0x9c
	OpF64Trunc byte = 0x9d
	OpF64Sqrt  byte = 0x9f
	OpF64Add   byte = 0xa0
	OpF64Sub   byte = 0xa1
	OpF64Mul   byte = 0xa2
	OpF64Div   byte = 0xa3
	OpF64Min   byte = 0xa4
	OpF64Max   byte = 0xa5

	OpI32TruncF64S   byte = 0xaa
	OpF64ConvertI32S byte = 0xb7
	OpF64ConvertI64S byte = 0xb9

	// OpPrefixFC introduces the saturating truncation instructions.
	OpPrefixFC byte = 0xfc
)

// Sub-opcodes following OpPrefixFC.
const (
	FCI32TruncSatF64S uint32 = 0x02
	FCI64TruncSatF64S uint32 = 0x06
)

// Alignment exponents for memory instructions.
const AlignF64 = 3
