package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"pantrywall/internal/pantry"
)

// ErrIncompleteRef is returned when a settings change lacks either the
// pantry id or the basket name.
var ErrIncompleteRef = errors.New("pantry id and basket name are required")

// Resolver decides the active bucket for a tab.
type Resolver struct {
	store  Store
	logger *zap.Logger
}

func NewResolver(store Store, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: store, logger: logger}
}

// Resolve consumes a complete fragment (saving it for the tab and
// stripping it from src), otherwise falls back to the tab's saved
// configuration. It returns nil when the tab is unconfigured. A failed
// read of the saved configuration counts as unconfigured.
func (r *Resolver) Resolve(ctx context.Context, src URLSource, tabID string) (*pantry.Ref, error) {
	if src != nil {
		pid, key := ParseFragment(src.Fragment())
		if pid != "" && key != "" {
			ref := pantry.Ref{PantryID: pid, Basket: key}
			if err := r.store.Save(ctx, tabID, ref); err != nil {
				return nil, err
			}
			src.ReplaceWithoutFragment()
			r.logger.Debug("bucket taken from url fragment", zap.String("pantry_id", pid), zap.String("basket", key))
			return &ref, nil
		}
	}

	ref, ok, err := r.store.Load(ctx, tabID)
	if err != nil {
		r.logger.Warn("tab config unreadable, treating tab as unconfigured", zap.Error(err))
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	return &ref, nil
}

// Apply stores a manually entered reference for the tab, bypassing the
// fragment. Any fragment still on src is stripped so a stale link cannot
// override the new settings on the next resolve.
func (r *Resolver) Apply(ctx context.Context, src URLSource, tabID string, ref pantry.Ref) (pantry.Ref, error) {
	ref = ref.Trimmed()
	if !ref.Valid() {
		return pantry.Ref{}, ErrIncompleteRef
	}
	if err := r.store.Save(ctx, tabID, ref); err != nil {
		return pantry.Ref{}, err
	}
	if src != nil {
		src.ReplaceWithoutFragment()
	}
	return ref, nil
}
