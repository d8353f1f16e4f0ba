package session

import (
	"strings"

	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/aretw0/scriptbridge/pkg/ports"
)

// Sigil prefixes keys bound to script-local entities.
const Sigil = "$"

// Well-known attribute and entity keys.
const (
	KeyTicket           = "$ticket"
	KeyUser             = "$user"
	KeyEventID          = "$event_id"
	KeyDocument         = "$document"
	KeyPrevState        = "$prev_state"
	KeyParentScriptID   = "$parent_script_id"
	KeyParentDocumentID = "$parent_document_id"
	KeySuperClasses     = "$super_classes"
)

// Variables maps keys to bound entities and to string attributes.
// It is not safe for concurrent use; wrap it in a Guard.
type Variables struct {
	entities map[string]*domain.Entity
	attrs    map[string]string
}

// NewVariables creates an empty store.
func NewVariables() *Variables {
	return &Variables{
		entities: make(map[string]*domain.Entity),
		attrs:    make(map[string]string),
	}
}

// IsBound reports whether key names a session-local binding.
func IsBound(key string) bool { return strings.HasPrefix(key, Sigil) }

// SetEntity binds an entity under key.
func (v *Variables) SetEntity(key string, e *domain.Entity) {
	v.entities[key] = e
}

// Entity returns the entity bound under key.
func (v *Variables) Entity(key string) (*domain.Entity, bool) {
	e, ok := v.entities[key]
	return e, ok
}

// SetAttr stores a string attribute.
func (v *Variables) SetAttr(key, value string) {
	v.attrs[key] = value
}

// Attr returns a string attribute.
func (v *Variables) Attr(key string) (string, bool) {
	s, ok := v.attrs[key]
	return s, ok
}

// BindParent derives the parent document and script from an event id of the
// form "doc+script;rest". Both attributes are set, empty when absent.
func (v *Variables) BindParent(eventID string) {
	head, _, _ := strings.Cut(eventID, ";")
	parts := strings.Split(head, "+")
	if len(parts) >= 2 {
		v.attrs[KeyParentDocumentID] = parts[0]
		v.attrs[KeyParentScriptID] = parts[1]
		return
	}
	v.attrs[KeyParentDocumentID] = ""
	v.attrs[KeyParentScriptID] = ""
}

// BindSuperClasses stores the union of the ancestors of types as a
// bracketed list of quoted ids, e.g. ["v-s:Base","rdfs:Resource"].
func (v *Variables) BindSuperClasses(types []string, onto ports.Ontology) {
	seen := make(map[string]bool)
	var supers []string
	for _, t := range types {
		for _, s := range onto.GetSupers(t) {
			if !seen[s] {
				seen[s] = true
				supers = append(supers, s)
			}
		}
	}
	v.attrs[KeySuperClasses] = FormatList(supers)
}

// FormatList renders ids as ["a","b"].
func FormatList(ids []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(id)
		b.WriteByte('"')
	}
	b.WriteByte(']')
	return b.String()
}

// ParseList is the inverse of FormatList.
func ParseList(s string) []string {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		out = append(out, strings.Trim(part, `"`))
	}
	return out
}
