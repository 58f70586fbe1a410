package codec

import (
	"bytes"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestUTF8PassThrough(t *testing.T) {
	enc := UTF8()

	in := "héllo wörld"
	out := enc.EncodeText(in)
	if !bytes.Equal(out, []byte(in)) {
		t.Errorf("EncodeText changed bytes: %q -> %q", in, out)
	}
	if got := enc.DecodeText(out); got != in {
		t.Errorf("DecodeText = %q, want %q", got, in)
	}
}

func TestCharmapEncoding(t *testing.T) {
	enc := ForEncoding(charmap.ISO8859_1)

	out := enc.EncodeText("café")
	want := []byte{'c', 'a', 'f', 0xE9}
	if !bytes.Equal(out, want) {
		t.Errorf("EncodeText = %v, want %v", out, want)
	}

	if got := enc.DecodeText(want); got != "café" {
		t.Errorf("DecodeText = %q, want %q", got, "café")
	}
}

func TestCharmapReplacesUnsupported(t *testing.T) {
	enc := ForEncoding(charmap.ISO8859_1)

	// The rune has no Latin-1 mapping; encoding must substitute, not fail,
	// so a lookup is never aborted by its input text.
	out := enc.EncodeText("a世b")
	if len(out) != 3 {
		t.Fatalf("EncodeText length = %d, want 3 (one substitution byte)", len(out))
	}
	if out[0] != 'a' || out[2] != 'b' {
		t.Errorf("surrounding bytes corrupted: %v", out)
	}
}

func TestTerminatorIsSingleNewline(t *testing.T) {
	if !bytes.Equal(Terminator, []byte{'\n'}) {
		t.Errorf("Terminator = %v, want single newline", Terminator)
	}
}
