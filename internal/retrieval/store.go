package retrieval

import (
	"context"

	"claimcheck/internal/model"
)

// Store is the read-only vector retrieval collaborator. Implementations
// return documents ordered by descending similarity; an empty result is
// not an error, it just means the domain has no nearby evidence.
type Store interface {
	Query(ctx context.Context, domain model.Domain, text string, topK int) ([]model.RetrievedDocument, error)
}

// NoopStore always retrieves nothing. Used when retrieval is disabled,
// which forces every claim down the web search path.
type NoopStore struct{}

// Query returns no documents
func (NoopStore) Query(ctx context.Context, domain model.Domain, text string, topK int) ([]model.RetrievedDocument, error) {
	return nil, nil
}

// New creates a retrieval store from configuration
func New(cfg model.RetrievalConfig) (Store, error) {
	if !cfg.Enabled {
		return NoopStore{}, nil
	}
	return NewChromaStore(cfg)
}
