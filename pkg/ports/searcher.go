package ports

import (
	"context"

	"github.com/aretw0/scriptbridge/pkg/domain"
)

// Searcher runs full-text queries. The result is opaque to the core and is
// passed through to scripts.
type Searcher interface {
	Query(ctx context.Context, req domain.SearchRequest) (domain.SearchResult, error)
}
