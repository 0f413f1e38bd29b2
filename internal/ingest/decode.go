package ingest

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const utf8BOM = "\uFEFF"

var encodings = map[string]encoding.Encoding{
	"windows-1250": charmap.Windows1250,
	"cp1250":       charmap.Windows1250,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-2":   charmap.ISO8859_2,
	"latin2":       charmap.ISO8859_2,
}

// decoder wraps r so it yields UTF-8. UTF-8 input has a leading BOM removed;
// UTF-16 input with a BOM is honored as well.
func decoder(r io.Reader, name string) (io.Reader, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "utf-8", "utf8":
		return transform.NewReader(r, unicode.BOMOverride(encoding.Nop.NewDecoder())), nil
	}
	enc, ok := encodings[key]
	if !ok {
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// cleanHeader trims a column name, drops a stray BOM and puts it in NFC so
// composed and decomposed accents compare equal.
func cleanHeader(s string) string {
	s = strings.TrimPrefix(s, utf8BOM)
	return norm.NFC.String(strings.TrimSpace(s))
}

// SupportedEncoding reports whether name is accepted by Options.Encoding.
func SupportedEncoding(name string) bool {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "utf-8", "utf8":
		return true
	}
	_, ok := encodings[key]
	return ok
}
