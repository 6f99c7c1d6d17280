package wall

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"pantrywall/internal/journal"
	"pantrywall/internal/names"
	"pantrywall/internal/pantry"
	"pantrywall/internal/session"
)

// View is one viewer (identity) looking at the wall from one tab. Results
// that come back after Close, or after the tab moved to another bucket,
// are not cached.
type View struct {
	svc    *Service
	tab    string
	self   string
	closed atomic.Bool
}

// Open starts a view for identity self in tab.
func (s *Service) Open(tab, self string) *View {
	return &View{svc: s, tab: tab, self: self}
}

// Identity is the viewer's identity.
func (v *View) Identity() string {
	return v.self
}

// Tab is the tab scope of the view.
func (v *View) Tab() string {
	return v.tab
}

// Close marks the view inactive. Work still in flight finishes but its
// results are dropped.
func (v *View) Close() {
	v.closed.Store(true)
}

// Bucket resolves the tab's active bucket, consuming a link fragment on
// src if one is present. It returns nil when the tab is unconfigured.
func (v *View) Bucket(ctx context.Context, src session.URLSource) (*pantry.Ref, error) {
	return v.svc.sessions.Resolve(ctx, src, v.tab)
}

// Refresh fetches the bucket and caches the result as the last known
// state. A result for a bucket the tab no longer shows is discarded.
func (v *View) Refresh(ctx context.Context, ref pantry.Ref) (Board, error) {
	snap, err := v.svc.Fetch(ctx, ref)
	if err != nil {
		return Board{}, err
	}
	if err := v.accept(ctx, ref); err != nil {
		v.svc.logger.Debug("discarding refresh result", zap.String("tab", v.tab), zap.Error(err))
		return Board{}, err
	}
	v.store(ctx, entriesKey(v.tab, ref), snap.Entries)
	if !snap.Degraded {
		v.store(ctx, directoryKey(v.tab, ref), snap.Directory)
	}
	return snap.Board(v.self), nil
}

// SaveNote writes text as the viewer's note. It merges into the last
// known entry map and replaces the remote basket with the result, so a
// note another viewer saved since that map was read is overwritten.
func (v *View) SaveNote(ctx context.Context, ref pantry.Ref, text string) (Board, error) {
	current, err := v.lastKnownEntries(ctx, ref)
	if err != nil {
		return Board{}, err
	}
	next := current.With(v.self, text)
	if err := v.svc.remote.Put(ctx, ref, next); err != nil {
		return Board{}, fmt.Errorf("save note: %w", err)
	}
	v.svc.record(ctx, journal.Event{
		Kind:     journal.NoteSaved,
		PantryID: ref.PantryID,
		Basket:   ref.Basket,
		Identity: v.self,
		Detail:   text,
	})

	dir := v.svc.names.Fetch(ctx, ref)
	directory := dir.Value
	if dir.IsDegraded() {
		directory = v.cachedDirectory(ctx, ref)
	}

	if err := v.accept(ctx, ref); err == nil {
		v.store(ctx, entriesKey(v.tab, ref), next)
		if !dir.IsDegraded() {
			v.store(ctx, directoryKey(v.tab, ref), directory)
		}
	}
	board := BuildBoard(next, directory, v.self)
	board.Degraded = dir.IsDegraded()
	return board, nil
}

// ClaimName asks the registry for requested and returns the assigned label.
func (v *View) ClaimName(ctx context.Context, ref pantry.Ref, requested string) (string, error) {
	label, dir, err := v.svc.names.Claim(ctx, ref, v.self, requested)
	if err != nil {
		return "", err
	}
	v.svc.record(ctx, journal.Event{
		Kind:     journal.NameClaimed,
		PantryID: ref.PantryID,
		Basket:   ref.Basket,
		Identity: v.self,
		Detail:   label,
	})
	if err := v.accept(ctx, ref); err == nil {
		v.store(ctx, directoryKey(v.tab, ref), dir)
	}
	return label, nil
}

// ApplySettings stores a manually entered bucket for the tab, waits one
// settle tick, and refreshes the new bucket.
func (v *View) ApplySettings(ctx context.Context, src session.URLSource, ref pantry.Ref) (pantry.Ref, Board, error) {
	applied, err := v.svc.sessions.Apply(ctx, src, v.tab, ref)
	if err != nil {
		return pantry.Ref{}, Board{}, err
	}
	v.svc.record(ctx, journal.Event{
		Kind:     journal.SettingsApplied,
		PantryID: applied.PantryID,
		Basket:   applied.Basket,
		Identity: v.self,
	})

	timer := time.NewTimer(v.svc.settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return applied, Board{}, ctx.Err()
	case <-timer.C:
	}

	board, err := v.Refresh(ctx, applied)
	return applied, board, err
}

// Display is the viewer's display name from the cached directory.
func (v *View) Display(ctx context.Context, ref pantry.Ref) string {
	return DisplayFor(v.cachedDirectory(ctx, ref), v.self)
}

// accept reports whether results for ref may still be applied.
func (v *View) accept(ctx context.Context, ref pantry.Ref) error {
	if v.closed.Load() {
		return ErrClosed
	}
	current, err := v.svc.sessions.Resolve(ctx, nil, v.tab)
	if err != nil {
		return err
	}
	if current == nil || *current != ref {
		return ErrBucketChanged
	}
	return nil
}

// lastKnownEntries is the cached entry map for ref. A tab that never
// loaded the wall has no last known map, so it is fetched first.
func (v *View) lastKnownEntries(ctx context.Context, ref pantry.Ref) (Entries, error) {
	var cached Entries
	ok, err := v.svc.cache.Get(ctx, entriesKey(v.tab, ref), &cached)
	if err != nil {
		v.svc.logger.Warn("entry cache unreadable", zap.String("tab", v.tab), zap.Error(err))
	}
	if ok && err == nil {
		return cached.Clone(), nil
	}
	fetched := Entries{}
	if err := v.svc.remote.Get(ctx, ref, &fetched); err != nil {
		return nil, fmt.Errorf("fetch entries: %w", err)
	}
	return fetched, nil
}

func (v *View) cachedDirectory(ctx context.Context, ref pantry.Ref) names.Directory {
	var dir names.Directory
	if ok, err := v.svc.cache.Get(ctx, directoryKey(v.tab, ref), &dir); err != nil || !ok {
		return names.Directory{}.Clone()
	}
	return dir.Clone()
}

func (v *View) store(ctx context.Context, key string, value any) {
	if err := v.svc.cache.Set(ctx, key, value, v.svc.cacheTTL); err != nil {
		v.svc.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
