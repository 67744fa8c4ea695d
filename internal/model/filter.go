package model

import "fmt"

// Filter is a view-only predicate over items. It never reaches the store.
type Filter string

const (
	FilterAll         Filter = "all"
	FilterPurchased   Filter = "purchased"
	FilterUnpurchased Filter = "unpurchased"
)

var filterOrder = []Filter{FilterAll, FilterUnpurchased, FilterPurchased}

// ParseFilter accepts "all", "purchased" or "unpurchased". Empty means all.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterPurchased, FilterUnpurchased:
		return Filter(s), nil
	}
	return "", fmt.Errorf("unknown filter %q (want all, purchased or unpurchased)", s)
}

func (f Filter) Match(it Item) bool {
	switch f {
	case FilterPurchased:
		return it.Purchased
	case FilterUnpurchased:
		return !it.Purchased
	}
	return true
}

// Apply returns the matching items in their original order.
func (f Filter) Apply(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	return out
}

// Next cycles all -> unpurchased -> purchased -> all.
func (f Filter) Next() Filter {
	for i, v := range filterOrder {
		if v == f {
			return filterOrder[(i+1)%len(filterOrder)]
		}
	}
	return FilterAll
}

func (f Filter) Label() string {
	switch f {
	case FilterPurchased:
		return "Purchased"
	case FilterUnpurchased:
		return "To buy"
	}
	return "All"
}
