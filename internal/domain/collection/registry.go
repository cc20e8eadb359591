package collection

import (
	"fmt"

	"github.com/fixhub-ai/partsearch/internal/domain/collection/field"
	"github.com/fixhub-ai/partsearch/internal/domain/search/mode"
)

// Well-known collection names. The corpus is partitioned by appliance family
// for parts and by source for text chunks.
const (
	PartsRefrigerator = "parts_refrigerator"
	PartsDishwasher   = "parts_dishwasher"
	RepairSymptoms    = "repair_symptoms"
	BlogsArticles     = "blogs_articles"
)

// Registry is a fixed set of collection descriptors keyed by name.
type Registry struct {
	byName map[string]Collection
	names  []string
}

// NewRegistry creates a registry from descriptors, preserving order.
func NewRegistry(cols ...Collection) (*Registry, error) {
	r := &Registry{byName: make(map[string]Collection, len(cols))}
	for _, c := range cols {
		if _, dup := r.byName[c.Name()]; dup {
			return nil, fmt.Errorf("duplicate collection %q", c.Name())
		}
		r.byName[c.Name()] = c
		r.names = append(r.names, c.Name())
	}
	return r, nil
}

// Get looks up a collection descriptor by name.
func (r *Registry) Get(name string) (Collection, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Names returns collection names in registration order.
func (r *Registry) Names() []string { return r.names }

// partFields is the metadata schema shared by the part collections.
func partFields() []field.Field {
	return []field.Field{
		field.MustNew("appliance_type", field.Tag),
		field.MustNew("brand", field.Tag),
		field.MustNew("part_type", field.Tag),
		field.MustNew("stock_status", field.Tag),
		field.MustNew("partselect_number", field.Tag),
		field.MustNew("manufacturer_number", field.Tag),
		field.MustNew("url", field.Tag),
		field.MustNew("price", field.Numeric),
		field.MustNew("rating", field.Numeric),
		field.MustNew("review_count", field.Numeric),
	}
}

// guideFields is the metadata schema shared by the text-chunk collections.
func guideFields() []field.Field {
	return []field.Field{
		field.MustNew("appliance_type", field.Tag),
		field.MustNew("symptom", field.Tag),
		field.MustNew("part_name", field.Tag),
		field.MustNew("difficulty", field.Tag),
		field.MustNew("has_video", field.Tag),
		field.MustNew("video_url", field.Tag),
		field.MustNew("guide_title", field.Tag),
		field.MustNew("topic_category", field.Tag),
		field.MustNew("url", field.Tag),
	}
}

// DefaultRegistry returns the engine's static collection set.
// Parts are self-contained structured records (vector only); repair guides
// and articles mix error codes and part names with prose (hybrid).
func DefaultRegistry() *Registry {
	mustCol := func(name string, kind Kind, m mode.Mode, fields []field.Field) Collection {
		c, err := New(name, kind, m, fields)
		if err != nil {
			panic(err)
		}
		return c
	}
	r, err := NewRegistry(
		mustCol(PartsRefrigerator, KindPart, mode.VectorOnly, partFields()),
		mustCol(PartsDishwasher, KindPart, mode.VectorOnly, partFields()),
		mustCol(RepairSymptoms, KindGuide, mode.Hybrid, guideFields()),
		mustCol(BlogsArticles, KindGuide, mode.Hybrid, guideFields()),
	)
	if err != nil {
		panic(err)
	}
	return r
}
