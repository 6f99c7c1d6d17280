// Package session resolves which shared bucket a browser tab is looking at,
// from a one-time URL fragment or from the tab's saved configuration.
package session

import (
	"context"
	"fmt"
	"time"

	"pantrywall/internal/cache"
	"pantrywall/internal/pantry"
)

// StorageKey names the saved tab configuration.
const StorageKey = "pantry.session.config.v1"

// Store holds one bucket reference per tab.
type Store interface {
	Load(ctx context.Context, tabID string) (pantry.Ref, bool, error)
	Save(ctx context.Context, tabID string, ref pantry.Ref) error
}

// TabStore keeps tab configuration in a cache.Store with an expiry that
// stands in for the tab's lifetime.
type TabStore struct {
	cache cache.Store
	ttl   time.Duration
}

func NewTabStore(c cache.Store, ttl time.Duration) *TabStore {
	return &TabStore{cache: c, ttl: ttl}
}

func tabKey(tabID string) string {
	return StorageKey + ":" + tabID
}

// Load returns the saved reference. A saved value missing either half is
// treated as absent.
func (s *TabStore) Load(ctx context.Context, tabID string) (pantry.Ref, bool, error) {
	var ref pantry.Ref
	ok, err := s.cache.Get(ctx, tabKey(tabID), &ref)
	if err != nil {
		return pantry.Ref{}, false, fmt.Errorf("load tab config: %w", err)
	}
	if !ok || !ref.Valid() {
		return pantry.Ref{}, false, nil
	}
	return ref, true, nil
}

func (s *TabStore) Save(ctx context.Context, tabID string, ref pantry.Ref) error {
	if err := s.cache.Set(ctx, tabKey(tabID), ref, s.ttl); err != nil {
		return fmt.Errorf("save tab config: %w", err)
	}
	return nil
}
