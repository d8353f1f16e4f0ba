package txn

import "github.com/aretw0/scriptbridge/pkg/domain"

// mergeFunc applies the diff carried by patch onto prior in place.
type mergeFunc func(prior, patch *domain.Entity)

var merges = map[domain.Op]mergeFunc{
	domain.OpAddTo:      addTo,
	domain.OpSetIn:      setIn,
	domain.OpRemoveFrom: removeFrom,
}

// addTo appends the patch values that prior does not hold yet.
func addTo(prior, patch *domain.Entity) {
	for _, p := range patch.Predicates() {
		prior.AddUnique(p, patch.Values(p)...)
	}
}

// setIn overwrites every predicate named by the patch.
func setIn(prior, patch *domain.Entity) {
	for _, p := range patch.Predicates() {
		prior.Set(p, patch.Values(p)...)
	}
}

// removeFrom drops the listed values. A predicate listed without values is dropped entirely.
func removeFrom(prior, patch *domain.Entity) {
	for _, p := range patch.Predicates() {
		vals := patch.Values(p)
		if len(vals) == 0 {
			prior.RemovePredicate(p)
			continue
		}
		prior.RemoveValues(p, vals...)
	}
}
