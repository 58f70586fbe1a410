package codec

import (
	"golang.org/x/text/encoding"
)

// TextEncoding converts between host strings and the byte representation the
// guest expects. The strategy is chosen once at construction; nothing else in
// the bridge branches on deployment target.
type TextEncoding interface {
	// EncodeText converts a host string to guest bytes.
	EncodeText(s string) []byte
	// DecodeText converts guest bytes to a host string.
	DecodeText(b []byte) string
}

// utf8Encoding passes bytes through unchanged; Go strings are already UTF-8
// and the current guest build consumes UTF-8.
type utf8Encoding struct{}

func (utf8Encoding) EncodeText(s string) []byte { return []byte(s) }
func (utf8Encoding) DecodeText(b []byte) string { return string(b) }

// UTF8 returns the default pass-through encoding.
func UTF8() TextEncoding {
	return utf8Encoding{}
}

// xtextEncoding adapts a golang.org/x/text encoding (e.g. a charmap) to the
// TextEncoding strategy. Unsupported runes are replaced rather than failing,
// so EncodeText never aborts a lookup.
type xtextEncoding struct {
	enc encoding.Encoding
}

// ForEncoding wraps an x/text encoding as a TextEncoding strategy.
func ForEncoding(e encoding.Encoding) TextEncoding {
	return &xtextEncoding{enc: e}
}

func (x *xtextEncoding) EncodeText(s string) []byte {
	out, err := encoding.ReplaceUnsupported(x.enc.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		// ReplaceUnsupported leaves only I/O-style failures, which cannot
		// happen on an in-memory transform; keep the input bytes if it does.
		return []byte(s)
	}
	return out
}

func (x *xtextEncoding) DecodeText(b []byte) string {
	out, err := x.enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
