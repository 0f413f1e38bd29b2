package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"rulecheck/internal/dataset"
)

// readJSON reads a top-level array of flat objects. Key order of first
// appearance defines column order. Numbers become Int when integral and in
// range, otherwise Float; booleans become "true"/"false" strings.
func readJSON(ctx context.Context, r io.Reader) Result {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return fail("empty input", nil)
	}
	if err != nil {
		return fail("parse", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return fail("parse", fmt.Errorf("expected a JSON array of objects, got %v", tok))
	}

	b := newBuilder()
	for n := 0; dec.More(); n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return fail("canceled", err)
			}
		}
		if err := readObject(dec, b, n); err != nil {
			return fail("parse", err)
		}
	}
	if _, err := dec.Token(); err != nil {
		return fail("parse", err)
	}
	ds, err := b.build()
	if err != nil {
		return fail("build", err)
	}
	return Result{Dataset: ds}
}

func readObject(dec *json.Decoder, b *builder, n int) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("element %d: expected object, got %v", n, tok)
	}
	b.startRow()
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		vt, err := dec.Token()
		if err != nil {
			return err
		}
		v, err := jsonValue(vt)
		if err != nil {
			return fmt.Errorf("element %d key %q: %w", n, key, err)
		}
		b.set(key, v)
	}
	_, err = dec.Token()
	return err
}

func jsonValue(tok json.Token) (dataset.Value, error) {
	switch t := tok.(type) {
	case nil:
		return dataset.Null(), nil
	case string:
		if t == "" {
			return dataset.Null(), nil
		}
		return dataset.String(t), nil
	case bool:
		return dataset.String(strconv.FormatBool(t)), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return dataset.Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return dataset.Value{}, err
		}
		return dataset.Float(f), nil
	default:
		return dataset.Value{}, errors.New("nested objects and arrays are not supported")
	}
}
