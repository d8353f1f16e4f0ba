package ports

// Ontology resolves the class hierarchy.
type Ontology interface {
	// GetSupers returns every ancestor of typeID, nearest first, without duplicates.
	GetSupers(typeID string) []string
}
