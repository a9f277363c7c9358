// Package wasm assembles WebAssembly binary modules. It knows the binary
// format only; what goes into a module is decided by its callers.
package wasm

import (
	"fmt"
	"strings"
)

var (
	magic   = []byte{0x00, 0x61, 0x73, 0x6d}
	version = []byte{0x01, 0x00, 0x00, 0x00}
)

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

func (t FuncType) key() string {
	var b strings.Builder
	for _, p := range t.Params {
		b.WriteByte(byte(p))
	}
	b.WriteByte('|')
	for _, r := range t.Results {
		b.WriteByte(byte(r))
	}
	return b.String()
}

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	Type    ValType
	Mutable bool
}

// Import is one entry of the import section.
type Import struct {
	Module string
	Name   string
	Kind   ExternKind
	Type   uint32     // type index, for function imports
	Global GlobalType // for global imports
}

// Global is a module-defined global initialised to a constant. Only f64
// globals can be defined.
type Global struct {
	Mutable bool
	Init    float64
}

// Export is one entry of the export section.
type Export struct {
	Name  string
	Kind  ExternKind
	Index uint32
}

// Function is a module-defined function. Body holds the instructions
// without the trailing end opcode.
type Function struct {
	Type   uint32
	Locals []ValType
	Body   []byte
}

// Limits bounds a memory in 64KiB pages.
type Limits struct {
	Min    uint32
	Max    uint32
	HasMax bool
}

// Module accumulates the sections of a binary module. Imports must be
// added before any function or global of the same kind is defined, since
// imports occupy the lowest indices of each index space.
type Module struct {
	types     []FuncType
	typeCache map[string]uint32
	imports   []Import
	funcs     []Function
	memories  []Limits
	globals   []Global
	exports   []Export

	importedFuncs   uint32
	importedGlobals uint32
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{typeCache: make(map[string]uint32)}
}

// TypeIndex returns the index of the given signature, adding it if new.
func (m *Module) TypeIndex(params, results []ValType) uint32 {
	ft := FuncType{Params: params, Results: results}
	key := ft.key()
	if idx, ok := m.typeCache[key]; ok {
		return idx
	}
	idx := uint32(len(m.types))
	m.types = append(m.types, ft)
	m.typeCache[key] = idx
	return idx
}

// ImportFunc declares an imported function and returns its function index.
func (m *Module) ImportFunc(module, name string, params, results []ValType) uint32 {
	if len(m.funcs) > 0 {
		panic(fmt.Sprintf("wasm: function import %s.%s after a defined function", module, name))
	}
	m.imports = append(m.imports, Import{
		Module: module,
		Name:   name,
		Kind:   ExternFunc,
		Type:   m.TypeIndex(params, results),
	})
	idx := m.importedFuncs
	m.importedFuncs++
	return idx
}

// ImportGlobal declares an imported global and returns its global index.
func (m *Module) ImportGlobal(module, name string, typ GlobalType) uint32 {
	if len(m.globals) > 0 {
		panic(fmt.Sprintf("wasm: global import %s.%s after a defined global", module, name))
	}
	m.imports = append(m.imports, Import{
		Module: module,
		Name:   name,
		Kind:   ExternGlobal,
		Global: typ,
	})
	idx := m.importedGlobals
	m.importedGlobals++
	return idx
}

// AddFunction defines a function and returns its function index.
func (m *Module) AddFunction(fn Function) uint32 {
	m.funcs = append(m.funcs, fn)
	return m.importedFuncs + uint32(len(m.funcs)) - 1
}

// AddGlobal defines a global and returns its global index.
func (m *Module) AddGlobal(g Global) uint32 {
	m.globals = append(m.globals, g)
	return m.importedGlobals + uint32(len(m.globals)) - 1
}

// AddMemory defines a linear memory and returns its memory index.
func (m *Module) AddMemory(limits Limits) uint32 {
	m.memories = append(m.memories, limits)
	return uint32(len(m.memories)) - 1
}

// AddExport exports the entity with the given kind and index.
func (m *Module) AddExport(name string, kind ExternKind, index uint32) {
	m.exports = append(m.exports, Export{Name: name, Kind: kind, Index: index})
}

// ImportedFuncs reports how many functions are imported.
func (m *Module) ImportedFuncs() uint32 { return m.importedFuncs }

// Encode serialises the module. Sections without entries are left out.
func (m *Module) Encode() []byte {
	out := append([]byte{}, magic...)
	out = append(out, version...)
	out = appendSection(out, SectionType, len(m.types), m.encodeTypes())
	out = appendSection(out, SectionImport, len(m.imports), m.encodeImports())
	out = appendSection(out, SectionFunction, len(m.funcs), m.encodeFunctions())
	out = appendSection(out, SectionMemory, len(m.memories), m.encodeMemories())
	out = appendSection(out, SectionGlobal, len(m.globals), m.encodeGlobals())
	out = appendSection(out, SectionExport, len(m.exports), m.encodeExports())
	out = appendSection(out, SectionCode, len(m.funcs), m.encodeCodes())
	return out
}

func appendSection(out []byte, id SectionID, count int, contents []byte) []byte {
	if count == 0 {
		return out
	}
	return append(out, EncodeSection(id, EncodeVector(count, contents))...)
}

func (m *Module) encodeTypes() []byte {
	var contents []byte
	for _, t := range m.types {
		contents = append(contents, 0x60)
		contents = appendValTypes(contents, t.Params)
		contents = appendValTypes(contents, t.Results)
	}
	return contents
}

func appendValTypes(dst []byte, types []ValType) []byte {
	dst = AppendULEB128(dst, uint64(len(types)))
	for _, t := range types {
		dst = append(dst, byte(t))
	}
	return dst
}

func (m *Module) encodeImports() []byte {
	var contents []byte
	for _, imp := range m.imports {
		contents = append(contents, EncodeString(imp.Module)...)
		contents = append(contents, EncodeString(imp.Name)...)
		contents = append(contents, byte(imp.Kind))
		switch imp.Kind {
		case ExternFunc:
			contents = AppendULEB128(contents, uint64(imp.Type))
		case ExternGlobal:
			contents = appendGlobalType(contents, imp.Global)
		}
	}
	return contents
}

func appendGlobalType(dst []byte, typ GlobalType) []byte {
	dst = append(dst, byte(typ.Type))
	if typ.Mutable {
		return append(dst, 0x01)
	}
	return append(dst, 0x00)
}

func (m *Module) encodeFunctions() []byte {
	var contents []byte
	for _, fn := range m.funcs {
		contents = AppendULEB128(contents, uint64(fn.Type))
	}
	return contents
}

func (m *Module) encodeMemories() []byte {
	var contents []byte
	for _, mem := range m.memories {
		if mem.HasMax {
			contents = append(contents, 0x01)
			contents = AppendULEB128(contents, uint64(mem.Min))
			contents = AppendULEB128(contents, uint64(mem.Max))
			continue
		}
		contents = append(contents, 0x00)
		contents = AppendULEB128(contents, uint64(mem.Min))
	}
	return contents
}

func (m *Module) encodeGlobals() []byte {
	var contents []byte
	for _, g := range m.globals {
		contents = appendGlobalType(contents, GlobalType{Type: F64, Mutable: g.Mutable})
		contents = append(contents, OpF64Const)
		contents = AppendF64(contents, g.Init)
		contents = append(contents, OpEnd)
	}
	return contents
}

func (m *Module) encodeExports() []byte {
	var contents []byte
	for _, exp := range m.exports {
		contents = append(contents, EncodeString(exp.Name)...)
		contents = append(contents, byte(exp.Kind))
		contents = AppendULEB128(contents, uint64(exp.Index))
	}
	return contents
}

func (m *Module) encodeCodes() []byte {
	var contents []byte
	for _, fn := range m.funcs {
		body := EncodeBody(fn.Locals, fn.Body)
		contents = AppendULEB128(contents, uint64(len(body)))
		contents = append(contents, body...)
	}
	return contents
}

// EncodeBody encodes a function body: the local declarations, grouped into
// runs of the same type, followed by the instructions and a final end.
func EncodeBody(locals []ValType, code []byte) []byte {
	groups := compactLocals(locals)
	out := AppendULEB128(nil, uint64(len(groups)))
	for _, g := range groups {
		out = AppendULEB128(out, uint64(g.count))
		out = append(out, byte(g.typ))
	}
	out = append(out, code...)
	return append(out, OpEnd)
}

type localGroup struct {
	count int
	typ   ValType
}

func compactLocals(types []ValType) []localGroup {
	if len(types) == 0 {
		return nil
	}
	var groups []localGroup
	current := localGroup{count: 1, typ: types[0]}
	for _, t := range types[1:] {
		if t == current.typ {
			current.count++
			continue
		}
		groups = append(groups, current)
		current = localGroup{count: 1, typ: t}
	}
	return append(groups, current)
}
