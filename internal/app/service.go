package app

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"pantrywall/internal/config"
	"pantrywall/internal/identity"
	"pantrywall/internal/journal"
	"pantrywall/internal/pantry"
	"pantrywall/internal/session"
	"pantrywall/internal/share"
	"pantrywall/internal/wall"
)

// Pinger is anything /api/ready checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyCheck names one dependency for /api/ready.
type ReadyCheck struct {
	Name   string
	Pinger Pinger
}

// ActivityLog lists journal events. A nil ActivityLog disables the
// activity endpoint.
type ActivityLog interface {
	Recent(ctx context.Context, ref pantry.Ref, limit int) ([]journal.Event, error)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Wall       *wall.Service
	Identities *identity.Manager
	Journal    ActivityLog
	Checks     []ReadyCheck
	Logger     *zap.Logger
}

type Service struct {
	cfg        config.Config
	wall       *wall.Service
	identities *identity.Manager
	journal    ActivityLog
	checks     []ReadyCheck
	logger     *zap.Logger
}

func New(cfg config.Config, deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:        cfg,
		wall:       deps.Wall,
		identities: deps.Identities,
		journal:    deps.Journal,
		checks:     deps.Checks,
		logger:     logger,
	}
}

// Open identifies the visitor of r (minting the identity and tab cookies
// on w when missing) and opens their wall view.
func (s *Service) Open(w http.ResponseWriter, r *http.Request) *wall.View {
	id := s.identities.Ensure(identity.NewHTTPJar(w, r))
	tab := session.TabID(w, r, s.cfg.TabCookie)
	return s.wall.Open(tab, id)
}

type SessionResult struct {
	Configured bool        `json:"configured"`
	Bucket     *pantry.Ref `json:"bucket"`
	Location   string      `json:"location,omitempty"`
	Identity   string      `json:"identity"`
	Display    string      `json:"display"`
}

type ShareInfo struct {
	URL string `json:"url,omitempty"`
}

type WallResult struct {
	Bucket pantry.Ref `json:"bucket"`
	wall.Board
	Share ShareInfo `json:"share"`
}

type SettingsResult struct {
	WallResult
	Location string `json:"location,omitempty"`
}

type NameResult struct {
	Label   string `json:"label"`
	Display string `json:"display"`
}

// StartSession consumes a bucket link fragment in pageURL, if any, and
// reports the tab's configuration. Location is the address the page
// should show, without the consumed fragment.
func (s *Service) StartSession(ctx context.Context, view *wall.View, pageURL string) (SessionResult, error) {
	page, err := parsePage(pageURL)
	if err != nil {
		return SessionResult{}, err
	}
	var src session.URLSource
	if page != nil {
		src = page
	}
	ref, err := view.Bucket(ctx, src)
	if err != nil {
		return SessionResult{}, err
	}
	result := SessionResult{
		Configured: ref != nil,
		Bucket:     ref,
		Identity:   view.Identity(),
		Display:    wall.SelfLabel,
	}
	if page != nil {
		result.Location = page.String()
	}
	if ref != nil {
		result.Display = view.Display(ctx, *ref)
	}
	return result, nil
}

// ApplySettings stores a manually entered bucket and returns the
// refreshed wall for it.
func (s *Service) ApplySettings(ctx context.Context, view *wall.View, ref pantry.Ref, pageURL string) (SettingsResult, error) {
	page, err := parsePage(pageURL)
	if err != nil {
		return SettingsResult{}, err
	}
	var src session.URLSource
	if page != nil {
		src = page
	}
	applied, board, err := view.ApplySettings(ctx, src, ref)
	if err != nil {
		return SettingsResult{}, err
	}
	result := SettingsResult{WallResult: s.wallResult(applied, board, page)}
	if page != nil {
		result.Location = page.String()
	}
	return result, nil
}

// Wall refreshes the tab's bucket.
func (s *Service) Wall(ctx context.Context, view *wall.View, pageURL string) (WallResult, error) {
	page, err := parsePage(pageURL)
	if err != nil {
		return WallResult{}, err
	}
	ref, err := s.requireBucket(ctx, view)
	if err != nil {
		return WallResult{}, err
	}
	board, err := view.Refresh(ctx, ref)
	if err != nil {
		return WallResult{}, err
	}
	return s.wallResult(ref, board, page), nil
}

func (s *Service) SaveNote(ctx context.Context, view *wall.View, text, pageURL string) (WallResult, error) {
	page, err := parsePage(pageURL)
	if err != nil {
		return WallResult{}, err
	}
	ref, err := s.requireBucket(ctx, view)
	if err != nil {
		return WallResult{}, err
	}
	board, err := view.SaveNote(ctx, ref, text)
	if err != nil {
		return WallResult{}, err
	}
	return s.wallResult(ref, board, page), nil
}

func (s *Service) ClaimName(ctx context.Context, view *wall.View, name string) (NameResult, error) {
	ref, err := s.requireBucket(ctx, view)
	if err != nil {
		return NameResult{}, err
	}
	label, err := view.ClaimName(ctx, ref, name)
	if err != nil {
		return NameResult{}, err
	}
	return NameResult{Label: label, Display: label}, nil
}

// ShareLink is the link that opens pageURL on the tab's bucket.
func (s *Service) ShareLink(ctx context.Context, view *wall.View, pageURL string) (string, error) {
	page, err := parsePage(pageURL)
	if err != nil {
		return "", err
	}
	if page == nil {
		return "", domainError(http.StatusBadRequest, "INVALID_URL", "url is required", nil)
	}
	ref, err := s.requireBucket(ctx, view)
	if err != nil {
		return "", err
	}
	return share.URL(page.URL(), ref)
}

func (s *Service) Activity(ctx context.Context, view *wall.View, limit int) ([]journal.Event, error) {
	if s.journal == nil {
		return nil, errJournalDisabled
	}
	ref, err := s.requireBucket(ctx, view)
	if err != nil {
		return nil, err
	}
	return s.journal.Recent(ctx, ref, limit)
}

// Ready pings every dependency and returns the failures by name.
func (s *Service) Ready(ctx context.Context) map[string]error {
	results := make(map[string]error, len(s.checks))
	for _, check := range s.checks {
		results[check.Name] = check.Pinger.Ping(ctx)
	}
	return results
}

func (s *Service) requireBucket(ctx context.Context, view *wall.View) (pantry.Ref, error) {
	ref, err := view.Bucket(ctx, nil)
	if err != nil {
		return pantry.Ref{}, err
	}
	if ref == nil {
		return pantry.Ref{}, errNotConfigured
	}
	return *ref, nil
}

func (s *Service) wallResult(ref pantry.Ref, board wall.Board, page *session.PageURL) WallResult {
	result := WallResult{Bucket: ref, Board: board}
	if page != nil {
		if link, err := share.URL(page.URL(), ref); err == nil {
			result.Share.URL = link
		}
	}
	return result
}

// parsePage returns nil for an empty url.
func parsePage(raw string) (*session.PageURL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	page, err := session.ParsePageURL(raw)
	if err != nil {
		return nil, domainError(http.StatusBadRequest, "INVALID_URL", err.Error(), nil)
	}
	return page, nil
}
