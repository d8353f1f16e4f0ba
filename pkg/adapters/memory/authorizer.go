package memory

import (
	"context"
	"sync"

	"github.com/aretw0/scriptbridge/pkg/domain"
)

// AnySubject grants rights to every subject on a resource.
const AnySubject = "*"

// Authorizer implements ports.Authorizer with an in-memory grant table.
type Authorizer struct {
	mu     sync.RWMutex
	grants map[string]map[string]domain.Access
}

// NewAuthorizer creates an empty authorizer: every query answers zero rights.
func NewAuthorizer() *Authorizer {
	return &Authorizer{grants: make(map[string]map[string]domain.Access)}
}

// Grant adds rights for subject on resource.
func (a *Authorizer) Grant(resourceID, subjectID string, rights domain.Access) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bySubject, ok := a.grants[resourceID]
	if !ok {
		bySubject = make(map[string]domain.Access)
		a.grants[resourceID] = bySubject
	}
	bySubject[subjectID] |= rights
}

// Authorize returns the granted subset of want.
func (a *Authorizer) Authorize(ctx context.Context, resourceID, subjectID string, want domain.Access, trace bool) (domain.Access, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	bySubject := a.grants[resourceID]
	return (bySubject[subjectID] | bySubject[AnySubject]) & want, nil
}
