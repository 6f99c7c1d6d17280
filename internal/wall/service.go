// Package wall is the view model of a shared note wall: it fetches the
// entry map and name directory of a bucket, merges the viewer's note into
// the last known map and writes it back whole, and renders labels.
package wall

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pantrywall/internal/cache"
	"pantrywall/internal/journal"
	"pantrywall/internal/names"
	"pantrywall/internal/pantry"
	"pantrywall/internal/session"
)

// DefaultSettleDelay is the pause between applying settings and the
// refresh that follows.
const DefaultSettleDelay = 10 * time.Millisecond

// Remote is the basket API the wall reads and writes.
type Remote interface {
	names.Store
}

// Recorder receives an event for every write made through the wall.
type Recorder interface {
	Record(ctx context.Context, e journal.Event) error
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, journal.Event) error { return nil }

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Remote   Remote
	Cache    cache.Store
	CacheTTL time.Duration
	Sessions *session.Resolver
	// Recorder is optional.
	Recorder    Recorder
	SettleDelay time.Duration
	Logger      *zap.Logger
}

// Service is shared by all viewers. Per-viewer state lives in View.
type Service struct {
	remote   Remote
	names    *names.Registry
	cache    cache.Store
	cacheTTL time.Duration
	sessions *session.Resolver
	recorder Recorder
	settle   time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	settle := cfg.SettleDelay
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &Service{
		remote:   cfg.Remote,
		names:    names.NewRegistry(cfg.Remote, logger),
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		sessions: cfg.Sessions,
		recorder: recorder,
		settle:   settle,
		logger:   logger,
		now:      time.Now,
	}
}

// Snapshot is one fetch of a bucket.
type Snapshot struct {
	Bucket    pantry.Ref      `json:"bucket"`
	Entries   Entries         `json:"entries"`
	Directory names.Directory `json:"directory"`
	// Degraded is set when the directory could not be read and an empty
	// one stands in for it.
	Degraded  bool      `json:"degraded,omitempty"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Board renders the snapshot for viewer self.
func (s Snapshot) Board(self string) Board {
	board := BuildBoard(s.Entries, s.Directory, self)
	board.Degraded = s.Degraded
	return board
}

// Fetch reads the entry map and the name directory of ref concurrently.
// An entry map failure is returned; a directory failure only marks the
// snapshot degraded.
func (s *Service) Fetch(ctx context.Context, ref pantry.Ref) (Snapshot, error) {
	var (
		entries Entries
		dir     pantry.Outcome[names.Directory]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fetched := Entries{}
		if err := s.remote.Get(gctx, ref, &fetched); err != nil {
			return fmt.Errorf("fetch entries: %w", err)
		}
		entries = fetched
		return nil
	})
	g.Go(func() error {
		dir = s.names.Fetch(gctx, ref)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Bucket:    ref,
		Entries:   entries,
		Directory: dir.Value,
		Degraded:  dir.IsDegraded(),
		FetchedAt: s.now(),
	}, nil
}

func (s *Service) record(ctx context.Context, e journal.Event) {
	if err := s.recorder.Record(ctx, e); err != nil {
		s.logger.Warn("journal write failed", zap.String("kind", string(e.Kind)), zap.Error(err))
	}
}

// Query cache keys mirror the client-side query keys, scoped by tab.
func entriesKey(tab string, ref pantry.Ref) string {
	return queryKey(tab, "pantry", "entries", ref.PantryID, ref.Basket)
}

func directoryKey(tab string, ref pantry.Ref) string {
	return queryKey(tab, "pantry", "nameDb", ref.PantryID)
}

func queryKey(tab string, parts ...string) string {
	return "query:" + tab + ":" + strings.Join(parts, ":")
}

var (
	// ErrClosed is returned for work finished after its view was closed.
	ErrClosed = errors.New("wall view closed")
	// ErrBucketChanged is returned when the tab switched buckets while a
	// fetch for the old bucket was in flight. The result is discarded.
	ErrBucketChanged = errors.New("bucket changed while the request was in flight")
)
