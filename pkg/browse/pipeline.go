// Package browse holds the pure filter and sort steps applied to the
// breed catalog before display.
package browse

import (
	"cmp"
	"slices"
	"strings"

	"github.com/illmade-knight/go-catpedia/pkg/catalog"
)

// Filter keeps the breeds whose name or temperament contains query,
// ignoring case. An empty query returns breeds unchanged.
func Filter(breeds []catalog.Breed, query string) []catalog.Breed {
	if query == "" {
		return breeds
	}
	q := strings.ToLower(query)
	out := make([]catalog.Breed, 0, len(breeds))
	for _, b := range breeds {
		if strings.Contains(strings.ToLower(b.Name), q) ||
			(b.Temperament != "" && strings.Contains(strings.ToLower(b.Temperament), q)) {
			out = append(out, b)
		}
	}
	return out
}

// Sort orders breeds by opt. SortNone, and any option Sort does not know,
// return breeds as given. Otherwise a new slice is returned; the input is
// never reordered. Equal values keep their input order.
func Sort(breeds []catalog.Breed, opt SortOption) []catalog.Breed {
	key, ok := sortKeys[opt]
	if !ok {
		return breeds
	}
	out := slices.Clone(breeds)
	slices.SortStableFunc(out, func(a, b catalog.Breed) int {
		if key.descending {
			return cmp.Compare(key.field(b), key.field(a))
		}
		return cmp.Compare(key.field(a), key.field(b))
	})
	return out
}

// Apply filters, then sorts the filtered result.
func Apply(breeds []catalog.Breed, query string, opt SortOption) []catalog.Breed {
	return Sort(Filter(breeds, query), opt)
}

// SelectFavorites returns the breeds whose id is in ids, in catalog order.
// Ids the catalog does not contain are ignored.
func SelectFavorites(breeds []catalog.Breed, ids []string) []catalog.Breed {
	if len(ids) == 0 {
		return nil
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var out []catalog.Breed
	for _, b := range breeds {
		if _, ok := wanted[b.ID]; ok {
			out = append(out, b)
		}
	}
	return out
}
