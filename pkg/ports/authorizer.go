package ports

import (
	"context"

	"github.com/aretw0/scriptbridge/pkg/domain"
)

// Authorizer answers which of the requested rights a subject holds on a resource.
type Authorizer interface {
	// Authorize returns the granted subset of want. An authorizer with no
	// answer for the pair returns zero rights and no error.
	Authorize(ctx context.Context, resourceID, subjectID string, want domain.Access, trace bool) (domain.Access, error)
}
