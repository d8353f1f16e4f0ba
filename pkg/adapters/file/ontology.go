package file

import "github.com/aretw0/scriptbridge/pkg/adapters/memory"

// OntologyFile is the layout of an ontology file:
//
//	classes:
//	  v-s:Contract: [v-s:Document]
//	  v-s:Document: [rdfs:Resource]
type OntologyFile struct {
	Classes map[string][]string `yaml:"classes" json:"classes"`
}

// LoadOntology builds an in-memory ontology. A missing file yields an empty one.
func LoadOntology(path string) (*memory.Ontology, error) {
	var f OntologyFile
	if _, err := decode(path, &f); err != nil {
		return nil, err
	}
	return memory.NewOntology(f.Classes), nil
}
