package locker

import (
	"encoding/json"
	"fmt"
)

// Encode serializes a grid as a complete JSON snapshot:
// {"rows":R,"columns":C,"lockers":{"<id>":{"id":N,"state":"..."}}}.
func Encode(g *Grid) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("locker: cannot encode nil grid")
	}
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal grid: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot produced by Encode and checks its invariants.
func Decode(data []byte) (*Grid, error) {
	var g Grid
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grid: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}
