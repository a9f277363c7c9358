package wasm

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestAppendULEB128(t *testing.T) {
	cases := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{624485, []byte{0xe5, 0x8e, 0x26}},
		{math.MaxUint32, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
	}
	for _, tc := range cases {
		if got := AppendULEB128(nil, tc.v); !bytes.Equal(got, tc.want) {
			t.Errorf("AppendULEB128(%d) = % x, want % x", tc.v, got, tc.want)
		}
	}
}

func TestAppendSLEB128(t *testing.T) {
	cases := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{2, []byte{0x02}},
		{-1, []byte{0x7f}},
		{63, []byte{0x3f}},
		{64, []byte{0xc0, 0x00}},
		{-64, []byte{0x40}},
		{-65, []byte{0xbf, 0x7f}},
		{-123456, []byte{0xc0, 0xbb, 0x78}},
		{1048576, []byte{0x80, 0x80, 0xc0, 0x00}},
	}
	for _, tc := range cases {
		if got := AppendSLEB128(nil, tc.v); !bytes.Equal(got, tc.want) {
			t.Errorf("AppendSLEB128(%d) = % x, want % x", tc.v, got, tc.want)
		}
	}
}

func TestLEB128RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		u := rapid.Uint64().Draw(t, "u")
		enc := AppendULEB128(nil, u)
		got, n, err := ReadULEB128(enc)
		if err != nil || got != u || n != len(enc) {
			t.Fatalf("ReadULEB128(% x) = %d, %d, %v; want %d, %d", enc, got, n, err, u, len(enc))
		}

		s := rapid.Int64().Draw(t, "s")
		enc = AppendSLEB128(nil, s)
		gotS, n, err := ReadSLEB128(enc)
		if err != nil || gotS != s || n != len(enc) {
			t.Fatalf("ReadSLEB128(% x) = %d, %d, %v; want %d, %d", enc, gotS, n, err, s, len(enc))
		}
	})
}

func TestReadLEB128Errors(t *testing.T) {
	if _, _, err := ReadULEB128([]byte{0x80, 0x80}); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if _, _, err := ReadSLEB128(nil); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	tooLong := bytes.Repeat([]byte{0xff}, 10)
	tooLong = append(tooLong, 0x01)
	if _, _, err := ReadULEB128(tooLong); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestAppendF64(t *testing.T) {
	got := AppendF64(nil, 1.0)
	want := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xf0, 0x3f}
	if !bytes.Equal(got, want) {
		t.Fatalf("AppendF64(1) = % x, want % x", got, want)
	}
	v, err := ReadF64(AppendF64(nil, -0.1))
	if err != nil || v != -0.1 {
		t.Fatalf("ReadF64 = %v, %v", v, err)
	}
}

func TestEncodeVectorAndString(t *testing.T) {
	if got := EncodeString("sin"); !bytes.Equal(got, []byte{0x03, 's', 'i', 'n'}) {
		t.Fatalf("EncodeString = % x", got)
	}
	if got := EncodeVector(2, []byte{0xaa, 0xbb}); !bytes.Equal(got, []byte{0x02, 0xaa, 0xbb}) {
		t.Fatalf("EncodeVector = % x", got)
	}
	if got := EncodeSection(SectionType, []byte{0x00}); !bytes.Equal(got, []byte{0x01, 0x01, 0x00}) {
		t.Fatalf("EncodeSection = % x", got)
	}
}
