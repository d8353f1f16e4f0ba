package domain

// Access is a bit set of rights on a resource.
type Access uint8

const (
	CanCreate Access = 1 << iota
	CanRead
	CanUpdate
	CanDelete
)

// FullAccess is the mask requested by get_rights.
const FullAccess = CanCreate | CanRead | CanUpdate | CanDelete

// PermissionStatementType is the class of the synthetic rights entity.
const PermissionStatementType = "v-s:PermissionStatement"

var accessPredicates = []struct {
	bit       Access
	predicate string
}{
	{CanCreate, "v-s:canCreate"},
	{CanRead, "v-s:canRead"},
	{CanUpdate, "v-s:canUpdate"},
	{CanDelete, "v-s:canDelete"},
}

// Has reports whether all bits of want are granted.
func (a Access) Has(want Access) bool { return a&want == want }

// PermissionStatement builds the entity returned to scripts by get_rights.
// It carries one true boolean predicate per granted right.
func PermissionStatement(rights Access) *Entity {
	e := NewEntity("_")
	e.Add(PredicateType, URI(PermissionStatementType))
	for _, ap := range accessPredicates {
		if rights&ap.bit != 0 {
			e.Add(ap.predicate, Bool(true))
		}
	}
	return e
}
