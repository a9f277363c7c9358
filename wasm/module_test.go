package wasm

import (
	"bytes"
	"testing"
)

func TestEmptyModule(t *testing.T) {
	got := NewModule().Encode()
	want := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("empty module = % x, want % x", got, want)
	}
}

func TestTypeIndexDeduplicates(t *testing.T) {
	m := NewModule()
	a := m.TypeIndex([]ValType{F64}, []ValType{F64})
	b := m.TypeIndex(nil, nil)
	c := m.TypeIndex([]ValType{F64}, []ValType{F64})
	if a != 0 || b != 1 || c != 0 {
		t.Fatalf("unexpected type indices %d %d %d", a, b, c)
	}
}

func TestIndexSpacesPutImportsFirst(t *testing.T) {
	m := NewModule()
	if idx := m.ImportFunc("shims", "sin", []ValType{F64}, []ValType{F64}); idx != 0 {
		t.Fatalf("first import index = %d", idx)
	}
	if idx := m.ImportFunc("shims", "cos", []ValType{F64}, []ValType{F64}); idx != 1 {
		t.Fatalf("second import index = %d", idx)
	}
	if idx := m.ImportGlobal("pool", "x", GlobalType{Type: F64, Mutable: true}); idx != 0 {
		t.Fatalf("global import index = %d", idx)
	}
	fn := m.AddFunction(Function{Type: m.TypeIndex(nil, nil)})
	if fn != 2 {
		t.Fatalf("defined function index = %d, want 2", fn)
	}
	if g := m.AddGlobal(Global{Mutable: true}); g != 1 {
		t.Fatalf("defined global index = %d, want 1", g)
	}
}

func TestImportAfterDefinitionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic")
		}
	}()
	m := NewModule()
	m.AddFunction(Function{Type: m.TypeIndex(nil, nil)})
	m.ImportFunc("shims", "sin", []ValType{F64}, []ValType{F64})
}

func TestEncodeMinimalFunction(t *testing.T) {
	m := NewModule()
	var code Code
	code.F64Const(1).Op(OpDrop)
	idx := m.AddFunction(Function{Type: m.TypeIndex(nil, nil), Body: code.Bytes()})
	m.AddExport("run", ExternFunc, idx)

	want := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		// type: one () -> ()
		0x01, 0x04, 0x01, 0x60, 0x00, 0x00,
		// function: type 0
		0x03, 0x02, 0x01, 0x00,
		// export "run" func 0
		0x07, 0x07, 0x01, 0x03, 'r', 'u', 'n', 0x00, 0x00,
		// code
		0x0a, 0x0e, 0x01, 0x0c, 0x00,
		0x44, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xf0, 0x3f,
		0x1a, 0x0b,
	}
	if got := m.Encode(); !bytes.Equal(got, want) {
		t.Fatalf("Encode() =\n% x\nwant\n% x", got, want)
	}
}

func TestEncodeBodyGroupsLocals(t *testing.T) {
	got := EncodeBody([]ValType{I32, I32, F64, I32}, []byte{OpNop})
	want := []byte{0x03, 0x02, 0x7f, 0x01, 0x7c, 0x01, 0x7f, 0x01, 0x0b}
	if !bytes.Equal(got, want) {
		t.Fatalf("EncodeBody = % x, want % x", got, want)
	}
	if got := EncodeBody(nil, nil); !bytes.Equal(got, []byte{0x00, 0x0b}) {
		t.Fatalf("EncodeBody(nil) = % x", got)
	}
}

func TestSectionsAndDecoders(t *testing.T) {
	m := NewModule()
	m.ImportGlobal("frame", "time", GlobalType{Type: F64, Mutable: true})
	m.ImportFunc("shims", "pow", []ValType{F64, F64}, []ValType{F64})
	m.AddMemory(Limits{Min: 2})
	m.AddGlobal(Global{Mutable: true, Init: 0})
	var code Code
	code.GlobalGet(0).GlobalSet(1)
	fn := m.AddFunction(Function{Type: m.TypeIndex(nil, nil), Locals: []ValType{F64}, Body: code.Bytes()})
	m.AddExport("perFrame", ExternFunc, fn)
	bin := m.Encode()

	sections, err := Sections(bin)
	if err != nil {
		t.Fatalf("Sections returned error: %v", err)
	}
	var ids []SectionID
	for _, s := range sections {
		ids = append(ids, s.ID)
	}
	wantIDs := []SectionID{SectionType, SectionImport, SectionFunction, SectionMemory, SectionGlobal, SectionExport, SectionCode}
	if len(ids) != len(wantIDs) {
		t.Fatalf("sections = %v, want %v", ids, wantIDs)
	}
	for i := range ids {
		if ids[i] != wantIDs[i] {
			t.Fatalf("sections = %v, want %v", ids, wantIDs)
		}
	}
	if sections[1].Entries != 2 {
		t.Fatalf("expected 2 imports, got %d", sections[1].Entries)
	}

	imports, err := Imports(bin)
	if err != nil {
		t.Fatalf("Imports returned error: %v", err)
	}
	if len(imports) != 2 || imports[0].Name != "time" || !imports[0].Global.Mutable || imports[1].Kind != ExternFunc {
		t.Fatalf("unexpected imports %+v", imports)
	}

	exports, err := Exports(bin)
	if err != nil {
		t.Fatalf("Exports returned error: %v", err)
	}
	if len(exports) != 1 || exports[0].Name != "perFrame" || exports[0].Index != 1 {
		t.Fatalf("unexpected exports %+v", exports)
	}
}

func TestSectionsRejectsGarbage(t *testing.T) {
	if _, err := Sections([]byte("not wasm")); err != ErrNotModule {
		t.Fatalf("expected ErrNotModule, got %v", err)
	}
	bin := NewModule().Encode()
	bin = append(bin, byte(SectionType), 0x10, 0x01)
	if _, err := Sections(bin); err == nil {
		t.Fatalf("expected an error for a truncated section")
	}
}

func TestCodeBuilder(t *testing.T) {
	var c Code
	c.I32Const(-1).LocalTee(2).TruncSat(FCI32TruncSatF64S).F64Load(8).If(BlockF64).Op(OpElse, OpEnd)
	want := []byte{
		0x41, 0x7f,
		0x22, 0x02,
		0xfc, 0x02,
		0x2b, 0x03, 0x08,
		0x04, 0x7c,
		0x05, 0x0b,
	}
	if !bytes.Equal(c.Bytes(), want) {
		t.Fatalf("code = % x, want % x", c.Bytes(), want)
	}
}
