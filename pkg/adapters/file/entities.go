package file

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/scriptbridge/pkg/domain"
)

// LoadEntities reads a list of entities in the wire layout
// (`[{"@": "d:one", "rdf:type": [{"type": "Uri", "data": "v-s:Thing"}]}]`).
// YAML files use the same shape.
func LoadEntities(path string) ([]*domain.Entity, error) {
	var raw []map[string]any
	if _, err := decode(path, &raw); err != nil {
		return nil, err
	}

	out := make([]*domain.Entity, 0, len(raw))
	for i, m := range raw {
		data, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("entity %d: %w", i, err)
		}
		e, err := domain.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("entity %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}
