// Package names keeps the per-pantry directory of display names. A base
// name can be claimed by many identities; each later claimant gets the
// next number, rendered as name(n).
//
// Claims are read-modify-write against the remote basket with no
// server-side atomicity. Two identities claiming the same base name at
// the same moment can both read count c and both be assigned c+1. The
// wall accepts this; labels are a courtesy, not an identity.
package names

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"pantrywall/internal/pantry"
)

// Basket is the basket holding the directory, shared by every wall in a pantry.
const Basket = "_nameDb"

// MaxLength is the longest accepted base name, in characters.
const MaxLength = 10

var (
	ErrEmpty         = errors.New("name must not be empty")
	ErrTooLong       = fmt.Errorf("name must be at most %d characters", MaxLength)
	ErrReservedChars = errors.New("name must not contain ( or )")
)

// Store is the remote basket API used by the registry.
type Store interface {
	Get(ctx context.Context, ref pantry.Ref, out any) error
	Put(ctx context.Context, ref pantry.Ref, v any) error
	Post(ctx context.Context, ref pantry.Ref, v any) error
}

// Registry claims and reads display names.
type Registry struct {
	store  Store
	logger *zap.Logger
}

func NewRegistry(store Store, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{store: store, logger: logger}
}

// DirectoryRef is where the directory for wall's pantry lives.
func DirectoryRef(wall pantry.Ref) pantry.Ref {
	return wall.WithBasket(Basket)
}

// Validate trims requested and checks it can be claimed.
func Validate(requested string) (string, error) {
	base := strings.TrimSpace(requested)
	switch {
	case base == "":
		return "", ErrEmpty
	case strings.ContainsAny(base, "()"):
		return "", ErrReservedChars
	case utf8.RuneCountInString(base) > MaxLength:
		return "", ErrTooLong
	}
	return base, nil
}

// Fetch reads the directory for wall's pantry. Any failure degrades to an
// empty directory.
func (r *Registry) Fetch(ctx context.Context, wall pantry.Ref) pantry.Outcome[Directory] {
	var dir Directory
	if err := r.store.Get(ctx, DirectoryRef(wall), &dir); err != nil {
		r.logger.Warn("name directory unavailable, using empty directory",
			zap.String("pantry_id", wall.PantryID), zap.Error(err))
		return pantry.Degraded(Directory{}.Clone(), err)
	}
	return pantry.Ok(dir.Clone())
}

// Claim assigns requested to id and returns the rendered label with the
// directory as written. Re-claiming the name id already holds keeps its
// number; any other name takes that name's next number. Validation
// failures return before anything is read or written.
func (r *Registry) Claim(ctx context.Context, wall pantry.Ref, id, requested string) (string, Directory, error) {
	base, err := Validate(requested)
	if err != nil {
		return "", Directory{}, err
	}

	dir := r.Fetch(ctx, wall).Value

	next := dir.Names[base] + 1
	if prior, ok := dir.Users[id]; ok && prior.Name == base {
		next = prior.Seq
		if next < 1 {
			next = 1
		}
	}
	if next > dir.Names[base] {
		dir.Names[base] = next
	}
	assigned := Assignment{Name: base, Seq: next}
	dir.Users[id] = assigned

	if err := r.save(ctx, wall, dir); err != nil {
		return "", Directory{}, err
	}
	r.logger.Info("name claimed",
		zap.String("pantry_id", wall.PantryID),
		zap.String("name", base),
		zap.Int("seq", next),
	)
	return Label(assigned), dir, nil
}

// save prefers create semantics and falls back to replace, since the
// directory basket may or may not exist yet.
func (r *Registry) save(ctx context.Context, wall pantry.Ref, dir Directory) error {
	ref := DirectoryRef(wall)
	postErr := r.store.Post(ctx, ref, dir)
	if postErr == nil {
		return nil
	}
	r.logger.Debug("directory post failed, retrying as put", zap.Error(postErr))
	if err := r.store.Put(ctx, ref, dir); err != nil {
		return fmt.Errorf("save name directory: %w", err)
	}
	return nil
}
