package ingest

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"rulecheck/internal/dataset"
)

const defaultRecordTag = "record"

// readXML reads <root><record><field>v</field>...</record>...</root>. Every
// element named RecordTag at any depth is a row; its child elements are the
// cells. Attributes and deeper nesting are ignored.
func readXML(ctx context.Context, r io.Reader, opts Options) Result {
	tag := opts.RecordTag
	if tag == "" {
		tag = defaultRecordTag
	}

	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(label string, in io.Reader) (io.Reader, error) {
		if opts.Encoding != "" {
			// already transcoded by decoder()
			return in, nil
		}
		enc, err := htmlindex.Get(label)
		if err != nil {
			return nil, err
		}
		return enc.NewDecoder().Reader(in), nil
	}

	b := newBuilder()
	var (
		inRecord bool
		field    string
		depth    int // depth inside the current record
		text     strings.Builder
	)
	for n := 0; ; n++ {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return fail("canceled", err)
			}
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail("parse", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case !inRecord && t.Name.Local == tag:
				inRecord, depth = true, 0
				b.startRow()
			case inRecord:
				depth++
				if depth == 1 {
					field = t.Name.Local
					text.Reset()
				}
			}
		case xml.CharData:
			if inRecord && depth == 1 {
				text.Write(t)
			}
		case xml.EndElement:
			if !inRecord {
				continue
			}
			if depth == 0 {
				inRecord = false
				continue
			}
			if depth == 1 {
				v := dataset.Null()
				if s := text.String(); strings.TrimSpace(s) != "" {
					v = dataset.String(s)
				}
				b.set(field, v)
			}
			depth--
		}
	}
	if b.rows == 0 {
		return fail("no records", fmt.Errorf("no <%s> elements found", tag))
	}
	ds, err := b.build()
	if err != nil {
		return fail("build", err)
	}
	return Result{Dataset: ds}
}
