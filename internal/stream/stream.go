// Package stream reads package parts into memory for one-shot
// processing, normalizing text encoding quirks along the way.
package stream

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadPart consumes the reader fully and returns the part's bytes with
// any leading UTF-8 byte-order mark removed. Authoring tools disagree on
// whether XML parts carry a BOM; stripping it here keeps downstream
// substring matching against raw text reliable.
func ReadPart(r io.Reader) ([]byte, error) {
	dec := unicode.UTF8BOM.NewDecoder()
	data, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return nil, fmt.Errorf("stream: read part: %w", err)
	}
	return data, nil
}
