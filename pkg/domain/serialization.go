package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// idKey is the JSON key carrying the entity id.
const idKey = "@"

// MarshalJSON serializes the entity as {"@": id, "<predicate>": [values...]}.
// Predicates keep their insertion order.
func (e *Entity) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	id, err := json.Marshal(e.id)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"@":`)
	buf.Write(id)

	for _, p := range e.order {
		key, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		vals := e.predicates[p]
		if vals == nil {
			vals = []Value{}
		}
		data, err := json.Marshal(vals)
		if err != nil {
			return nil, fmt.Errorf("predicate %s: %w", p, err)
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(data)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON deserializes the entity. Predicates are ordered by name since
// JSON objects carry no order.
func (e *Entity) UnmarshalJSON(data []byte) error {
	if e == nil {
		return fmt.Errorf("entity: UnmarshalJSON on nil pointer")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed := NewEntity("")
	if rawID, ok := raw[idKey]; ok {
		if err := json.Unmarshal(rawID, &parsed.id); err != nil {
			return fmt.Errorf("field @: %w", err)
		}
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		if k != idKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		dec := json.NewDecoder(bytes.NewReader(raw[k]))
		dec.UseNumber()
		var vals []Value
		if err := dec.Decode(&vals); err != nil {
			return fmt.Errorf("predicate %s: %w", k, err)
		}
		for i := range vals {
			norm, err := vals[i].Normalize()
			if err != nil {
				return fmt.Errorf("predicate %s: %w", k, err)
			}
			vals[i] = norm
		}
		parsed.Set(k, vals...)
	}

	*e = *parsed
	return nil
}

// Parse decodes raw store bytes into an entity.
// Any decoding failure is reported as ErrUnprocessableEntity.
func Parse(raw []byte) (*Entity, error) {
	e := NewEntity("")
	if err := e.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnprocessableEntity, err)
	}
	return e, nil
}
