package model

import "strings"

// Item represents a single wishlist entry. An empty Link means the item has
// no link: clearing a link stores "" and it is left out of the JSON.
type Item struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Link      string `json:"link,omitempty"`
	Purchased bool   `json:"purchased"`
}

// Apply returns a copy of the item with every field present in p replaced.
// It does not validate p; callers run p.Validate() first.
func (it Item) Apply(p Patch) Item {
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Link != nil {
		it.Link = *p.Link
	}
	if p.Purchased != nil {
		it.Purchased = *p.Purchased
	}
	return it
}

// blank reports whether a name is empty once surrounding whitespace is removed.
func blank(name string) bool {
	return strings.TrimSpace(name) == ""
}
