package extract

import (
	"testing"

	"golang.org/x/text/encoding/unicode"
)

func TestDecode_PlainPassesThrough(t *testing.T) {
	in := []byte{'{', 0xff, '}'}
	got, err := Decode(in)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != string(in) {
		t.Fatalf("invalid utf-8 must pass through untouched, got %q", got)
	}
}

func TestDecode_StripsUTF8BOM(t *testing.T) {
	got, err := Decode([]byte("\xEF\xBB\xBF{\"a\": 1}"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != `{"a": 1}` {
		t.Fatalf("got %q", got)
	}
}

func TestDecode_UTF16WithBOM(t *testing.T) {
	for _, endian := range []unicode.Endianness{unicode.LittleEndian, unicode.BigEndian} {
		enc := unicode.UTF16(endian, unicode.UseBOM).NewEncoder()
		raw, err := enc.Bytes([]byte(`{name: 'é'}`))
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := Decode(raw)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got != `{name: 'é'}` {
			t.Fatalf("endian %v: got %q", endian, got)
		}
	}
}
