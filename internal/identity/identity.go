// Package identity hands out the stable per-browser token that keys a
// visitor's note and display name on every wall.
package identity

import (
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pantrywall/internal/util"
)

const (
	DefaultCookieName = "pantry_uid"
	DefaultMaxAge     = 3650 * 24 * time.Hour
)

var ipv4Pattern = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)

// CookieJar is the ambient cookie storage seen by one visitor.
type CookieJar interface {
	// Cookie returns the named cookie value, if present.
	Cookie(name string) (string, bool)
	// SetCookie persists c for later calls and later visits.
	SetCookie(c *http.Cookie)
	// Host is the hostname the cookie is scoped from, without port.
	Host() string
}

// Manager reads or mints the identity cookie.
type Manager struct {
	cookieName string
	maxAge     time.Duration
	newToken   func() string
	logger     *zap.Logger
}

func NewManager(cookieName string, maxAge time.Duration, logger *zap.Logger) *Manager {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cookieName: cookieName,
		maxAge:     maxAge,
		newToken:   NewToken,
		logger:     logger,
	}
}

// CookieName is the name of the identity cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Ensure returns the visitor's identity, creating and persisting one on
// first sight. Later calls with the same jar return the same value.
func (m *Manager) Ensure(jar CookieJar) string {
	if id, ok := jar.Cookie(m.cookieName); ok && strings.TrimSpace(id) != "" {
		return id
	}
	id := m.newToken()
	jar.SetCookie(m.cookie(id, jar.Host()))
	m.logger.Info("minted visitor identity", zap.String("host", jar.Host()))
	return id
}

func (m *Manager) cookie(id, host string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    id,
		Path:     "/",
		Domain:   RootDomain(host),
		MaxAge:   int(m.maxAge / time.Second),
		SameSite: http.SameSiteLaxMode,
	}
}

// NewToken returns a random UUID, or a pseudo-random token when the
// secure source fails.
func NewToken() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return util.PseudoRandomID(time.Now())
	}
	return id.String()
}

// RootDomain widens host to its parent registrable domain with a leading
// dot so sibling subdomains share the cookie. It returns "" for IP
// literals, localhost, and single-label hosts, meaning host-only.
//
// Only the last two labels are kept, so hosts under multi-part public
// suffixes such as example.co.uk widen to ".co.uk", which browsers refuse.
func RootDomain(host string) string {
	host = strings.TrimSuffix(strings.ToLower(stripPort(host)), ".")
	if host == "" || host == "localhost" {
		return ""
	}
	if ipv4Pattern.MatchString(host) || net.ParseIP(strings.Trim(host, "[]")) != nil {
		return ""
	}
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return ""
	}
	return "." + strings.Join(parts[len(parts)-2:], ".")
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
