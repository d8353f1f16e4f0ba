package domain

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

// ValueType tags the data carried by a Value.
type ValueType string

const (
	TypeURI      ValueType = "Uri"
	TypeString   ValueType = "String"
	TypeInteger  ValueType = "Integer"
	TypeDecimal  ValueType = "Decimal"
	TypeBoolean  ValueType = "Boolean"
	TypeDatetime ValueType = "Datetime"
)

// PredicateType is the predicate holding the classes of an entity.
const PredicateType = "rdf:type"

// Value is one typed object of a predicate.
// Data holds a string (Uri, String, Datetime), an int64, a float64 or a bool.
type Value struct {
	Type ValueType `json:"type" mapstructure:"type"`
	Data any       `json:"data" mapstructure:"data"`
	Lang string    `json:"lang,omitempty" mapstructure:"lang"`
}

// URI returns a reference value.
func URI(id string) Value { return Value{Type: TypeURI, Data: id} }

// String returns a string value with an optional language tag.
func String(s, lang string) Value { return Value{Type: TypeString, Data: s, Lang: lang} }

// Integer returns an integer value.
func Integer(i int64) Value { return Value{Type: TypeInteger, Data: i} }

// Decimal returns a decimal value.
func Decimal(f float64) Value { return Value{Type: TypeDecimal, Data: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Type: TypeBoolean, Data: b} }

// Normalize coerces Data to the Go type expected for Type.
// It returns ErrInvalidArgument when the data cannot represent the type.
func (v Value) Normalize() (Value, error) {
	switch v.Type {
	case TypeURI, TypeString, TypeDatetime:
		switch d := v.Data.(type) {
		case string:
			return v, nil
		case fmt.Stringer:
			v.Data = d.String()
			return v, nil
		}
	case TypeInteger:
		switch d := v.Data.(type) {
		case int64:
			return v, nil
		case int:
			v.Data = int64(d)
			return v, nil
		case float64:
			if d == math.Trunc(d) && !math.IsInf(d, 0) {
				v.Data = int64(d)
				return v, nil
			}
		case string:
			i, err := strconv.ParseInt(d, 10, 64)
			if err == nil {
				v.Data = i
				return v, nil
			}
		case interface{ Int64() (int64, error) }:
			i, err := d.Int64()
			if err == nil {
				v.Data = i
				return v, nil
			}
		}
	case TypeDecimal:
		switch d := v.Data.(type) {
		case float64:
			return v, nil
		case int64:
			v.Data = float64(d)
			return v, nil
		case int:
			v.Data = float64(d)
			return v, nil
		case string:
			f, err := strconv.ParseFloat(d, 64)
			if err == nil {
				v.Data = f
				return v, nil
			}
		case interface{ Float64() (float64, error) }:
			f, err := d.Float64()
			if err == nil {
				v.Data = f
				return v, nil
			}
		}
	case TypeBoolean:
		switch d := v.Data.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(d)
			if err == nil {
				v.Data = b
				return v, nil
			}
		}
	}
	return v, fmt.Errorf("%w: value %v is not a valid %q", ErrInvalidArgument, v.Data, v.Type)
}

// Text renders the data of the value as a string.
func (v Value) Text() string {
	switch d := v.Data.(type) {
	case string:
		return d
	case int64:
		return strconv.FormatInt(d, 10)
	case float64:
		return strconv.FormatFloat(d, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(d)
	default:
		return fmt.Sprint(d)
	}
}

// Equal reports whether two values carry the same type, data and language.
func (v Value) Equal(o Value) bool {
	return v.Type == o.Type && v.Lang == o.Lang && v.Text() == o.Text()
}

// Entity is an identified record of predicate to values.
// The zero value is an empty entity without an id.
type Entity struct {
	id         string
	predicates map[string][]Value
	order      []string
}

// NewEntity creates an empty entity with the given id.
func NewEntity(id string) *Entity {
	return &Entity{id: id, predicates: make(map[string][]Value)}
}

// ID returns the entity identifier.
func (e *Entity) ID() string { return e.id }

// SetID assigns the identifier. Once non-empty it can only be set to the same value.
func (e *Entity) SetID(id string) error {
	if e.id != "" && e.id != id {
		return fmt.Errorf("%w: %q -> %q", ErrIDImmutable, e.id, id)
	}
	e.id = id
	return nil
}

// Predicates returns predicate names in insertion order.
func (e *Entity) Predicates() []string {
	return slices.Clone(e.order)
}

// Has reports whether the predicate is present.
func (e *Entity) Has(predicate string) bool {
	_, ok := e.predicates[predicate]
	return ok
}

// Values returns a copy of the values of a predicate.
func (e *Entity) Values(predicate string) []Value {
	return slices.Clone(e.predicates[predicate])
}

// First returns the first value of a predicate.
func (e *Entity) First(predicate string) (Value, bool) {
	vals := e.predicates[predicate]
	if len(vals) == 0 {
		return Value{}, false
	}
	return vals[0], true
}

// Types returns the Uri values of rdf:type.
func (e *Entity) Types() []string {
	var out []string
	for _, v := range e.predicates[PredicateType] {
		if v.Type == TypeURI {
			out = append(out, v.Text())
		}
	}
	return out
}

func (e *Entity) ensure(predicate string) {
	if e.predicates == nil {
		e.predicates = make(map[string][]Value)
	}
	if _, ok := e.predicates[predicate]; !ok {
		e.predicates[predicate] = nil
		e.order = append(e.order, predicate)
	}
}

// Add appends values to a predicate.
func (e *Entity) Add(predicate string, values ...Value) {
	e.ensure(predicate)
	e.predicates[predicate] = append(e.predicates[predicate], values...)
}

// AddUnique appends the values not already present on the predicate.
func (e *Entity) AddUnique(predicate string, values ...Value) {
	e.ensure(predicate)
	for _, v := range values {
		if !slices.ContainsFunc(e.predicates[predicate], v.Equal) {
			e.predicates[predicate] = append(e.predicates[predicate], v)
		}
	}
}

// Set replaces the values of a predicate.
func (e *Entity) Set(predicate string, values ...Value) {
	e.ensure(predicate)
	e.predicates[predicate] = slices.Clone(values)
}

// RemoveValues drops the given values from a predicate. The predicate stays
// present even if it ends up empty.
func (e *Entity) RemoveValues(predicate string, values ...Value) {
	cur, ok := e.predicates[predicate]
	if !ok {
		return
	}
	e.predicates[predicate] = slices.DeleteFunc(cur, func(v Value) bool {
		return slices.ContainsFunc(values, v.Equal)
	})
}

// RemovePredicate drops a predicate and all its values.
func (e *Entity) RemovePredicate(predicate string) {
	if _, ok := e.predicates[predicate]; !ok {
		return
	}
	delete(e.predicates, predicate)
	e.order = slices.DeleteFunc(e.order, func(p string) bool { return p == predicate })
}

// Clone returns a deep copy.
func (e *Entity) Clone() *Entity {
	c := NewEntity(e.id)
	for _, p := range e.order {
		c.Set(p, e.predicates[p]...)
	}
	return c
}

// String renders the entity for diagnostics.
func (e *Entity) String() string {
	data, err := e.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("{@:%s}", e.id)
	}
	return string(data)
}
