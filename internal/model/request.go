package model

import (
	"bytes"
	"encoding/json"
)

// Draft is the input for creating an item.
//
// Type mismatches found while decoding JSON are kept and reported by
// Validate, so decoding only fails on syntactically broken bodies.
type Draft struct {
	Name string
	Link string

	err error
}

// Validate checks that the draft can become an item.
func (d Draft) Validate() error {
	if d.err != nil {
		return d.err
	}
	if blank(d.Name) {
		return invalid("name", "item name is required")
	}
	return nil
}

func (d Draft) MarshalJSON() ([]byte, error) {
	out := struct {
		Name string `json:"name"`
		Link string `json:"link,omitempty"`
	}{d.Name, d.Link}
	return json.Marshal(out)
}

func (d *Draft) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = Draft{}

	if v, ok := raw["name"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &d.Name); err != nil {
			d.err = invalid("name", "item name must be a string")
			return nil
		}
	}
	// links are kept as text; a number or object has no sensible rendering
	// and would break typed clients, so it is rejected instead of stored
	if v, ok := raw["link"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &d.Link); err != nil {
			d.err = invalid("link", "field 'link' must be a string")
		}
	}
	return nil
}

// Patch is a partial update. A nil field is left unchanged; a Link pointing
// at "" clears the link.
type Patch struct {
	Name      *string
	Link      *string
	Purchased *bool

	err error
}

// Validate checks every provided field before anything is applied.
func (p Patch) Validate() error {
	if p.err != nil {
		return p.err
	}
	if p.Name != nil && blank(*p.Name) {
		return invalid("name", "item name must not be empty")
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Link == nil && p.Purchased == nil
}

func (p Patch) MarshalJSON() ([]byte, error) {
	out := struct {
		Name      *string `json:"name,omitempty"`
		Link      *string `json:"link,omitempty"`
		Purchased *bool   `json:"purchased,omitempty"`
	}{p.Name, p.Link, p.Purchased}
	return json.Marshal(out)
}

func (p *Patch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Patch{}

	if v, ok := raw["name"]; ok {
		var name string
		if isNull(v) || json.Unmarshal(v, &name) != nil {
			p.err = invalid("name", "item name must not be empty")
			return nil
		}
		p.Name = &name
	}
	if v, ok := raw["link"]; ok {
		var link string
		// null clears the link; non-string values are refused as in Draft
		if !isNull(v) {
			if err := json.Unmarshal(v, &link); err != nil {
				p.err = invalid("link", "field 'link' must be a string")
				return nil
			}
		}
		p.Link = &link
	}
	if v, ok := raw["purchased"]; ok {
		var purchased bool
		if isNull(v) || json.Unmarshal(v, &purchased) != nil {
			p.err = invalid("purchased", "field 'purchased' must be a boolean")
			return nil
		}
		p.Purchased = &purchased
	}
	return nil
}

// SetName, SetLink and SetPurchased build patches without JSON.
func SetName(name string) Patch { return Patch{Name: &name} }

func SetLink(link string) Patch { return Patch{Link: &link} }

func SetPurchased(v bool) Patch { return Patch{Purchased: &v} }

// Merge returns p with every field present in other added on top.
func (p Patch) Merge(other Patch) Patch {
	if other.Name != nil {
		p.Name = other.Name
	}
	if other.Link != nil {
		p.Link = other.Link
	}
	if other.Purchased != nil {
		p.Purchased = other.Purchased
	}
	if other.err != nil {
		p.err = other.err
	}
	return p
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
