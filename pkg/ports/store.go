package ports

import (
	"context"

	"github.com/aretw0/scriptbridge/pkg/domain"
)

// EntityStore defines the backing entity store.
// Both calls are blocking request/response; no retry happens at this layer.
type EntityStore interface {
	// Get returns the raw serialized entity for an id.
	// Returns domain.ErrNotFound if the entity does not exist.
	Get(ctx context.Context, id string) ([]byte, error)

	// Update applies one write. A call that fails to complete returns an
	// error wrapping domain.ErrTransport; a completed call reports its outcome in Status.
	Update(ctx context.Context, req domain.UpdateRequest) (domain.UpdateResult, error)
}

// Fetch retrieves and parses an entity.
// It returns domain.ErrNotFound, an error wrapping domain.ErrUnprocessableEntity
// when the payload does not parse, or the store error.
func Fetch(ctx context.Context, store EntityStore, id string) (*domain.Entity, error) {
	raw, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.Parse(raw)
}
