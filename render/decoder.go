package render

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// streamDecoder decodes UTF-8 across chunk boundaries. Bytes of a rune split
// between two chunks are held back until the rest arrives. Invalid sequences
// become U+FFFD.
type streamDecoder struct {
	t       transform.Transformer
	pending []byte
}

func newStreamDecoder() *streamDecoder {
	return &streamDecoder{t: unicode.UTF8.NewDecoder()}
}

// Decode returns the text completed by chunk. With atEOF set, any held back
// bytes are flushed as replacement characters.
func (d *streamDecoder) Decode(chunk []byte, atEOF bool) (string, error) {
	src := append(d.pending, chunk...)
	d.pending = nil

	var out strings.Builder
	dst := make([]byte, 3*len(src)+utf8.UTFMax)
	for {
		nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
		out.Write(dst[:nDst])
		src = src[nSrc:]

		switch {
		case err == nil:
			return out.String(), nil
		case errors.Is(err, transform.ErrShortSrc):
			d.pending = append([]byte(nil), src...)
			return out.String(), nil
		case errors.Is(err, transform.ErrShortDst) && (nDst > 0 || nSrc > 0):
			continue
		default:
			return out.String(), err
		}
	}
}
