package memory

import "sync"

// Ontology implements ports.Ontology from a map of class to direct parents.
type Ontology struct {
	mu      sync.RWMutex
	parents map[string][]string
}

// NewOntology creates an ontology from direct parent links.
func NewOntology(parents map[string][]string) *Ontology {
	o := &Ontology{parents: make(map[string][]string, len(parents))}
	for class, ps := range parents {
		o.parents[class] = append([]string(nil), ps...)
	}
	return o
}

// AddClass registers direct parents for a class.
func (o *Ontology) AddClass(class string, parents ...string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.parents[class] = append(o.parents[class], parents...)
}

// GetSupers walks the hierarchy breadth-first from typeID.
// The result lists each ancestor once, nearest first; typeID itself is excluded.
func (o *Ontology) GetSupers(typeID string) []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	seen := map[string]bool{typeID: true}
	var out []string
	queue := append([]string(nil), o.parents[typeID]...)
	for len(queue) > 0 {
		class := queue[0]
		queue = queue[1:]
		if seen[class] {
			continue
		}
		seen[class] = true
		out = append(out, class)
		queue = append(queue, o.parents[class]...)
	}
	return out
}
