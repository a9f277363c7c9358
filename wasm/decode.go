package wasm

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrNotModule is returned when input lacks the binary module header.
var ErrNotModule = errors.New("wasm: missing module header")

// SectionInfo summarises one section of an encoded module.
type SectionInfo struct {
	ID      SectionID
	Offset  int // offset of the section body
	Size    int
	Entries int // vector length; zero for custom sections
}

// Sections lists the sections of an encoded module in file order.
func Sections(bin []byte) ([]SectionInfo, error) {
	if len(bin) < 8 || !bytes.Equal(bin[:4], magic) || !bytes.Equal(bin[4:8], version) {
		return nil, ErrNotModule
	}
	var out []SectionInfo
	pos := 8
	for pos < len(bin) {
		id := SectionID(bin[pos])
		size, n, err := ReadULEB128(bin[pos+1:])
		if err != nil {
			return nil, fmt.Errorf("section at offset %d: %w", pos, err)
		}
		body := pos + 1 + n
		if body+int(size) > len(bin) {
			return nil, fmt.Errorf("section %s at offset %d: %w", id, pos, ErrTruncated)
		}
		info := SectionInfo{ID: id, Offset: body, Size: int(size)}
		if id != SectionCustom && size > 0 {
			count, _, err := ReadULEB128(bin[body : body+int(size)])
			if err != nil {
				return nil, fmt.Errorf("section %s: %w", id, err)
			}
			info.Entries = int(count)
		}
		out = append(out, info)
		pos = body + int(size)
	}
	return out, nil
}

// Exports decodes the export section of an encoded module.
func Exports(bin []byte) ([]Export, error) {
	sections, err := Sections(bin)
	if err != nil {
		return nil, err
	}
	for _, s := range sections {
		if s.ID != SectionExport {
			continue
		}
		r := &reader{buf: bin[s.Offset : s.Offset+s.Size]}
		count := r.u32()
		exports := make([]Export, 0, count)
		for i := uint32(0); i < count && r.err == nil; i++ {
			name := r.name()
			kind := ExternKind(r.readByte())
			exports = append(exports, Export{Name: name, Kind: kind, Index: r.u32()})
		}
		if r.err != nil {
			return nil, fmt.Errorf("export section: %w", r.err)
		}
		return exports, nil
	}
	return nil, nil
}

// Imports decodes the import section of an encoded module.
func Imports(bin []byte) ([]Import, error) {
	sections, err := Sections(bin)
	if err != nil {
		return nil, err
	}
	for _, s := range sections {
		if s.ID != SectionImport {
			continue
		}
		r := &reader{buf: bin[s.Offset : s.Offset+s.Size]}
		count := r.u32()
		imports := make([]Import, 0, count)
		for i := uint32(0); i < count && r.err == nil; i++ {
			imp := Import{Module: r.name(), Name: r.name(), Kind: ExternKind(r.readByte())}
			switch imp.Kind {
			case ExternFunc:
				imp.Type = r.u32()
			case ExternGlobal:
				imp.Global = GlobalType{Type: ValType(r.readByte()), Mutable: r.readByte() == 0x01}
			default:
				return nil, fmt.Errorf("import %s.%s: unsupported kind %s", imp.Module, imp.Name, imp.Kind)
			}
			imports = append(imports, imp)
		}
		if r.err != nil {
			return nil, fmt.Errorf("import section: %w", r.err)
		}
		return imports, nil
	}
	return nil, nil
}

type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) readByte() byte {
	if r.err != nil {
		return 0
	}
	if r.pos >= len(r.buf) {
		r.err = ErrTruncated
		return 0
	}
	b := r.buf[r.pos]
	r.pos++
	return b
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	v, n, err := ReadULEB128(r.buf[r.pos:])
	if err != nil {
		r.err = err
		return 0
	}
	r.pos += n
	return uint32(v)
}

func (r *reader) name() string {
	n := int(r.u32())
	if r.err != nil {
		return ""
	}
	if r.pos+n > len(r.buf) {
		r.err = ErrTruncated
		return ""
	}
	s := string(r.buf[r.pos : r.pos+n])
	r.pos += n
	return s
}
