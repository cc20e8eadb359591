// Package collection defines the named document partitions the engine searches.
package collection

import (
	"fmt"
	"regexp"

	"github.com/fixhub-ai/partsearch/internal/domain/collection/field"
	"github.com/fixhub-ai/partsearch/internal/domain/search/mode"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Kind distinguishes the two metadata schemas the engine knows about.
type Kind string

const (
	// KindPart is a structured appliance-part record.
	KindPart Kind = "part"
	// KindGuide is a text chunk from a repair guide or article.
	KindGuide Kind = "guide"
)

// IsValid checks if the kind is supported.
func (k Kind) IsValid() bool {
	return k == KindPart || k == KindGuide
}

// Collection is an immutable descriptor of one document partition:
// its name, schema kind, metadata fields, and default search mode.
type Collection struct {
	name   string
	kind   Kind
	fields []field.Field
	mode   mode.Mode
}

// New validates and creates a Collection descriptor.
// Name: ^[a-zA-Z0-9_-]+$, 1-64 chars. Fields: unique names, max 64.
func New(name string, kind Kind, searchMode mode.Mode, fields []field.Field) (Collection, error) {
	if err := validateName(name); err != nil {
		return Collection{}, err
	}
	if !kind.IsValid() {
		return Collection{}, fmt.Errorf("invalid collection kind: %q", kind)
	}
	if !searchMode.IsValid() {
		return Collection{}, fmt.Errorf("invalid search mode: %q", searchMode)
	}
	if err := validateFields(fields); err != nil {
		return Collection{}, err
	}
	return Collection{name: name, kind: kind, fields: fields, mode: searchMode}, nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("collection name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("collection name must be alphanumeric with underscores and hyphens")
	}
	return nil
}

func validateFields(fields []field.Field) error {
	if len(fields) > 64 {
		return fmt.Errorf("too many fields (max 64)")
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name()] {
			return fmt.Errorf("duplicate field name: %s", f.Name())
		}
		seen[f.Name()] = true
	}
	return nil
}

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// Kind returns the schema kind.
func (c Collection) Kind() Kind { return c.kind }

// Mode returns the default search mode for this collection's content.
func (c Collection) Mode() mode.Mode { return c.mode }

// Fields returns the metadata schema.
func (c Collection) Fields() []field.Field { return c.fields }

// FieldByName looks up a schema field. The second return reports presence;
// callers never assume cross-schema fields exist without this check.
func (c Collection) FieldByName(name string) (field.Field, bool) {
	for _, f := range c.fields {
		if f.Name() == name {
			return f, true
		}
	}
	return field.Field{}, false
}
