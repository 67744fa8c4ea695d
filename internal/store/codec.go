package store

import (
	"encoding/json"
	"fmt"

	"wishlist/internal/model"
)

// encodeState produces the same two-space indented layout on every backend,
// so a snapshot can be copied between them by hand.
func encodeState(st *model.State) ([]byte, error) {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return data, nil
}

func decodeState(data []byte) (*model.State, error) {
	var st model.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return &st, nil
}
