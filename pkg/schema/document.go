package schema

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document wraps the raw definition payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument constructs a Document wrapper while validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Document{}, fmt.Errorf("schema: %s is empty", src.Location())
	}
	clone := append([]byte(nil), raw...)
	return Document{source: src, raw: clone}, nil
}

// MustNewDocument panics if the document cannot be created. Useful for tests.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Parse decodes the document. JSON documents parse as YAML.
func (d Document) Parse() (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(d.raw, &def); err != nil {
		return Definition{}, fmt.Errorf("schema: parse %s: %w", d.Location(), err)
	}
	if err := def.Validate(d.Location()); err != nil {
		return Definition{}, err
	}
	return def, nil
}
