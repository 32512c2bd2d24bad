// Package keywords holds the loaded-once keyword index used by the classifier.
package keywords

import "digest_curator/internal/model"

// Index is an immutable view over the keyword list, arranged for
// classification lookups. Build it once per session from the store and pass
// it by value.
type Index struct {
	byCategory map[model.ContentCategory][]model.Keyword
	categories []model.ContentCategory
	specific   []model.Keyword
}

// NewIndex arranges keywords per category. Category iteration follows the
// taxonomy display order so classification candidates come out in a stable
// sequence regardless of store ordering.
func NewIndex(kws []model.Keyword) *Index {
	idx := &Index{
		byCategory: make(map[model.ContentCategory][]model.Keyword),
	}
	for _, kw := range kws {
		idx.byCategory[kw.Category] = append(idx.byCategory[kw.Category], kw)
		if !kw.Generic {
			idx.specific = append(idx.specific, kw)
		}
	}
	for _, cat := range model.ContentCategories {
		if len(idx.byCategory[cat]) > 0 {
			idx.categories = append(idx.categories, cat)
		}
	}
	return idx
}

// Categories returns the categories that have at least one keyword,
// in taxonomy order.
func (i *Index) Categories() []model.ContentCategory {
	return i.categories
}

// ForCategory returns every keyword (generic and specific) of a category,
// in load order.
func (i *Index) ForCategory(cat model.ContentCategory) []model.Keyword {
	return i.byCategory[cat]
}

// Specific returns the non-generic keywords across all categories. Only
// these participate in version-pattern release detection.
func (i *Index) Specific() []model.Keyword {
	return i.specific
}
