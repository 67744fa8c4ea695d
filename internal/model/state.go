package model

// State is the whole persisted wishlist: the ordered items plus the id counter.
// Backends store and load it as a single record.
type State struct {
	Items  []Item `json:"items"`
	NextID int64  `json:"nextId"`
}

// SeedState is what a store starts with the very first time it runs.
func SeedState() *State {
	return &State{
		Items: []Item{
			{ID: 1, Name: "Mangá One Piece Vol.1", Link: "https://www.amazon.com.br/One-Piece-Ed-Eiichiro-Oda/dp/8573516976"},
			{ID: 2, Name: "Fone de ouvido", Link: "https://www.mercadolivre.com.br/fone-de-ouvido-com-mic-sem-fio-wave-beam-2-jbl-preto/p/MLB43943907"},
		},
		NextID: 3,
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	items := make([]Item, len(s.Items))
	copy(items, s.Items)
	return &State{Items: items, NextID: s.NextID}
}

// Add appends a new item built from d, taking the next id.
func (s *State) Add(d Draft) Item {
	it := Item{
		ID:   s.NextID,
		Name: d.Name,
		Link: d.Link,
	}
	s.Items = append(s.Items, it)
	s.NextID++
	return it
}

// Index returns the position of the item with the given id, or -1.
func (s *State) Index(id int64) int {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Remove deletes the item with the given id and reports whether it existed.
func (s *State) Remove(id int64) bool {
	i := s.Index(id)
	if i < 0 {
		return false
	}
	s.Items = append(s.Items[:i], s.Items[i+1:]...)
	return true
}

// Normalize repairs a loaded state so NextID is always above every id in use.
func (s *State) Normalize() {
	if s.Items == nil {
		s.Items = []Item{}
	}
	for _, it := range s.Items {
		if it.ID >= s.NextID {
			s.NextID = it.ID + 1
		}
	}
	if s.NextID < 1 {
		s.NextID = 1
	}
}
