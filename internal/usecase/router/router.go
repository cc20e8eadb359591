// Package router maps a classified intent and its extracted entities to the
// collections to query, the search mode per collection, and the metadata
// pre-filters to apply.
package router

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/fixhub-ai/partsearch/internal/domain"
	"github.com/fixhub-ai/partsearch/internal/domain/collection"
	"github.com/fixhub-ai/partsearch/internal/domain/collection/field"
	"github.com/fixhub-ai/partsearch/internal/domain/intent"
	"github.com/fixhub-ai/partsearch/internal/domain/search/filter"
	"github.com/fixhub-ai/partsearch/internal/domain/search/mode"
	"github.com/fixhub-ai/partsearch/internal/metrics"
)

// Target is one collection to search, with its mode and pre-filters.
type Target struct {
	Collection collection.Collection
	Mode       mode.Mode
	Filters    filter.Expression
}

// routes is the static, total intent table. Every supported intent maps to
// at least one collection; anything else is ErrUnsupportedIntent.
var routes = map[intent.Intent][]string{
	intent.ProductSearch:      {collection.PartsRefrigerator, collection.PartsDishwasher},
	intent.CompatibilityCheck: {collection.PartsRefrigerator, collection.PartsDishwasher},
	intent.ReviewComparison:   {collection.PartsRefrigerator, collection.PartsDishwasher},
	intent.Troubleshooting:    {collection.RepairSymptoms, collection.BlogsArticles},
	intent.Installation:       {collection.RepairSymptoms, collection.BlogsArticles},
	intent.GeneralHelp:        {collection.PartsRefrigerator, collection.PartsDishwasher, collection.RepairSymptoms},
}

// applianceCollections narrows the parts collections when the classifier
// extracted an appliance type.
var applianceCollections = map[string]string{
	"refrigerator": collection.PartsRefrigerator,
	"dishwasher":   collection.PartsDishwasher,
}

// Router resolves intents against the static table and coerces entities
// into per-collection filters.
type Router struct {
	registry *collection.Registry
	logger   *zap.Logger
}

// New creates a Router over the collection registry.
func New(registry *collection.Registry, logger *zap.Logger) *Router {
	return &Router{registry: registry, logger: logger}
}

// Route returns the ordered search targets for an intent. Entities become
// metadata pre-filters on each target; an entity with no matching schema
// field, or a value that cannot be coerced to the field type, is silently
// dropped for that collection.
func (r *Router) Route(in intent.Intent, entities map[string]string) ([]Target, error) {
	names, ok := routes[in]
	if !ok {
		return nil, fmt.Errorf("intent %q: %w", in, domain.ErrUnsupportedIntent)
	}

	names = r.narrowByAppliance(names, entities)

	targets := make([]Target, 0, len(names))
	for _, name := range names {
		col, ok := r.registry.Get(name)
		if !ok {
			return nil, fmt.Errorf("collection %q: %w", name, domain.ErrCollectionNotFound)
		}
		filters, err := r.buildFilters(col, entities)
		if err != nil {
			return nil, err
		}
		targets = append(targets, Target{Collection: col, Mode: col.Mode(), Filters: filters})
	}
	return targets, nil
}

// narrowByAppliance keeps only the matching parts collection when the
// appliance type is known. Guide collections are never narrowed away.
func (r *Router) narrowByAppliance(names []string, entities map[string]string) []string {
	want, ok := applianceCollections[entities["appliance_type"]]
	if !ok {
		return names
	}

	narrowed := make([]string, 0, len(names))
	for _, name := range names {
		if name == collection.PartsRefrigerator || name == collection.PartsDishwasher {
			if name == want {
				narrowed = append(narrowed, name)
			}
			continue
		}
		narrowed = append(narrowed, name)
	}
	if len(narrowed) == 0 {
		return names
	}
	return narrowed
}

// buildFilters coerces entities into filter conditions against one
// collection's schema.
func (r *Router) buildFilters(col collection.Collection, entities map[string]string) (filter.Expression, error) {
	conditions := make([]filter.Condition, 0, len(entities))

	for key, value := range entities {
		if value == "" {
			continue
		}

		// max_price is a ceiling on the price field, not a field itself.
		if key == "max_price" {
			cond, ok := r.priceCeiling(col, value)
			if !ok {
				continue
			}
			conditions = append(conditions, cond)
			continue
		}

		f, ok := col.FieldByName(key)
		if !ok {
			r.dropFilter(col.Name(), key, "no such field")
			continue
		}

		cond, err := coerceCondition(f, value)
		if err != nil {
			r.dropFilter(col.Name(), key, err.Error())
			continue
		}
		conditions = append(conditions, cond)
	}

	return filter.NewExpression(conditions...)
}

func (r *Router) priceCeiling(col collection.Collection, value string) (filter.Condition, bool) {
	if _, ok := col.FieldByName("price"); !ok {
		r.dropFilter(col.Name(), "max_price", "no price field")
		return filter.Condition{}, false
	}
	ceiling, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.dropFilter(col.Name(), "max_price", "not a number")
		return filter.Condition{}, false
	}
	rng, err := filter.NewRangeBounds(nil, nil, nil, &ceiling)
	if err != nil {
		return filter.Condition{}, false
	}
	cond, err := filter.NewRange("price", rng)
	if err != nil {
		return filter.Condition{}, false
	}
	return cond, true
}

func coerceCondition(f field.Field, value string) (filter.Condition, error) {
	if f.FieldType() == field.Numeric {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return filter.Condition{}, fmt.Errorf("not a number: %q", value)
		}
		rng, err := filter.NewRangeBounds(nil, &v, nil, &v)
		if err != nil {
			return filter.Condition{}, err
		}
		return filter.NewRange(f.Name(), rng)
	}
	return filter.NewMatch(f.Name(), value)
}

func (r *Router) dropFilter(col, key, reason string) {
	metrics.FilterDropsTotal.WithLabelValues(col, key).Inc()
	r.logger.Debug("dropped entity filter",
		zap.String("collection", col),
		zap.String("field", key),
		zap.String("reason", reason),
	)
}
