package session

import (
	"net/http"
	"strings"

	"pantrywall/internal/util"
)

// TabHeader lets a client that keeps its own per-tab id (for example in
// sessionStorage) scope configuration to that tab.
const TabHeader = "X-Wall-Tab"

// DefaultTabCookie is the browser-session cookie used when no header is sent.
const DefaultTabCookie = "wall_tab"

// TabID returns the tab scope for a request: the X-Wall-Tab header when
// present, else the session cookie, else a fresh id set as a session
// cookie on w.
func TabID(w http.ResponseWriter, r *http.Request, cookieName string) string {
	if cookieName == "" {
		cookieName = DefaultTabCookie
	}
	if header := strings.TrimSpace(r.Header.Get(TabHeader)); header != "" {
		return header
	}
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := util.NewID("tab")
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
