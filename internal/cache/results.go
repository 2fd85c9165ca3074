package cache

import (
	"encoding/json"
	"time"

	"claimcheck/internal/model"
)

// ResultStore is the typed cache the workflow engine talks to. It
// normalizes claim text into keys, handles the bundle codec, and degrades
// every backend failure to a miss: an unavailable cache must never block
// or fail the pipeline.
type ResultStore struct {
	backend Cache // nil means caching disabled (always miss)
	ttl     time.Duration
}

// NewResultStore wraps a cache backend. A nil backend is valid and yields
// a store that always misses.
func NewResultStore(backend Cache, ttl time.Duration) *ResultStore {
	return &ResultStore{
		backend: backend,
		ttl:     ttl,
	}
}

// Get looks up the bundle for a claim. A corrupt or expired entry is a miss.
func (s *ResultStore) Get(claimText string) (*model.ResultBundle, bool) {
	if s == nil || s.backend == nil {
		return nil, false
	}

	data, found := s.backend.Get(Key(model.NormalizeClaim(claimText)))
	if !found {
		return nil, false
	}

	var bundle model.ResultBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, false
	}
	return &bundle, true
}

// Put stores a bundle under its claim's normalized key, overwriting any
// existing entry. Failures are swallowed: losing a cache write only costs
// a future recomputation.
func (s *ResultStore) Put(bundle *model.ResultBundle) {
	if s == nil || s.backend == nil || bundle == nil {
		return
	}

	data, err := json.Marshal(bundle)
	if err != nil {
		return
	}
	_ = s.backend.Set(Key(bundle.Claim.Key), data, s.ttl)
}
