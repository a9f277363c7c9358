package wasm

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrTruncated is returned by the decoders when input ends mid-value.
var ErrTruncated = errors.New("wasm: truncated input")

// ErrOverflow is returned when a LEB128 value does not fit in 64 bits.
var ErrOverflow = errors.New("wasm: LEB128 value overflows 64 bits")

// AppendULEB128 appends v in unsigned LEB128 form.
func AppendULEB128(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// AppendSLEB128 appends v in signed LEB128 form.
func AppendSLEB128(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// ReadULEB128 decodes an unsigned LEB128 value from the start of b and
// reports how many bytes it used.
func ReadULEB128(b []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i, c := range b {
		if shift >= 64 || (shift == 63 && c&0x7e != 0) {
			return 0, 0, ErrOverflow
		}
		result |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, ErrTruncated
}

// ReadSLEB128 decodes a signed LEB128 value from the start of b and reports
// how many bytes it used.
func ReadSLEB128(b []byte) (int64, int, error) {
	var result int64
	var shift uint
	for i, c := range b {
		if shift >= 64 {
			return 0, 0, ErrOverflow
		}
		result |= int64(c&0x7f) << shift
		shift += 7
		if c&0x80 == 0 {
			if shift < 64 && c&0x40 != 0 {
				result |= -1 << shift
			}
			return result, i + 1, nil
		}
	}
	return 0, 0, ErrTruncated
}

// AppendF64 appends the IEEE-754 bits of v in little-endian order.
func AppendF64(dst []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
}

// ReadF64 decodes a little-endian double from the start of b.
func ReadF64(b []byte) (float64, error) {
	if len(b) < 8 {
		return 0, ErrTruncated
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// EncodeVector prefixes pre-encoded contents with their element count.
func EncodeVector(count int, contents []byte) []byte {
	out := AppendULEB128(make([]byte, 0, len(contents)+5), uint64(count))
	return append(out, contents...)
}

// EncodeString encodes s as a length-prefixed byte vector.
func EncodeString(s string) []byte {
	out := AppendULEB128(make([]byte, 0, len(s)+5), uint64(len(s)))
	return append(out, s...)
}

// EncodeSection wraps body in a section header with the given id.
func EncodeSection(id SectionID, body []byte) []byte {
	out := make([]byte, 0, len(body)+6)
	out = append(out, byte(id))
	out = AppendULEB128(out, uint64(len(body)))
	return append(out, body...)
}
