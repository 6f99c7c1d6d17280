package identity

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"pantrywall/internal/cache"
)

type memoryJar struct {
	host    string
	cookies map[string]*http.Cookie
}

func newMemoryJar(host string) *memoryJar {
	return &memoryJar{host: host, cookies: make(map[string]*http.Cookie)}
}

func (j *memoryJar) Cookie(name string) (string, bool) {
	c, ok := j.cookies[name]
	if !ok {
		return "", false
	}
	return c.Value, true
}

func (j *memoryJar) SetCookie(c *http.Cookie) { j.cookies[c.Name] = c }

func (j *memoryJar) Host() string { return j.host }

func TestEnsureMintsAndPersists(t *testing.T) {
	jar := newMemoryJar("wall.mju.no")
	manager := NewManager("", 0, nil)

	id := manager.Ensure(jar)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected a UUID identity, got %q: %v", id, err)
	}

	c := jar.cookies[DefaultCookieName]
	if c == nil {
		t.Fatal("identity cookie was not set")
	}
	if c.Path != "/" {
		t.Errorf("Path = %q, want /", c.Path)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
	if c.MaxAge != 3650*24*60*60 {
		t.Errorf("MaxAge = %d", c.MaxAge)
	}
	if c.Domain != ".mju.no" {
		t.Errorf("Domain = %q, want .mju.no", c.Domain)
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	jar := newMemoryJar("localhost")
	manager := NewManager("", 0, nil)

	first := manager.Ensure(jar)
	second := manager.Ensure(jar)
	if first != second {
		t.Fatalf("Ensure() returned %q then %q", first, second)
	}
}

func TestEnsureKeepsExistingCookie(t *testing.T) {
	jar := newMemoryJar("mju.no")
	jar.cookies[DefaultCookieName] = &http.Cookie{Name: DefaultCookieName, Value: "existing-id"}
	manager := NewManager("", 0, nil)
	manager.newToken = func() string {
		t.Fatal("should not mint a token when one exists")
		return ""
	}

	if got := manager.Ensure(jar); got != "existing-id" {
		t.Fatalf("Ensure() = %q, want existing-id", got)
	}
}

func TestRootDomain(t *testing.T) {
	cases := []struct {
		host string
		want string
	}{
		{host: "mju.no", want: ".mju.no"},
		{host: "scheduler.mju.no", want: ".mju.no"},
		{host: "a.b.mju.no:8443", want: ".mju.no"},
		{host: "localhost", want: ""},
		{host: "localhost:5173", want: ""},
		{host: "127.0.0.1", want: ""},
		{host: "192.168.1.20:8787", want: ""},
		{host: "[::1]:8787", want: ""},
		{host: "intranet", want: ""},
		{host: "", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.host, func(t *testing.T) {
			if got := RootDomain(tc.host); got != tc.want {
				t.Fatalf("RootDomain(%q) = %q, want %q", tc.host, got, tc.want)
			}
		})
	}
}

func TestHTTPJarSetsHeaderAndRemembers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://wall.mju.no/api/wall", nil)
	rr := httptest.NewRecorder()
	jar := NewHTTPJar(rr, req)
	manager := NewManager("", 0, nil)

	id := manager.Ensure(jar)
	if again := manager.Ensure(jar); again != id {
		t.Fatalf("second Ensure() = %q, want %q", again, id)
	}

	header := rr.Header().Values("Set-Cookie")
	if len(header) != 1 {
		t.Fatalf("expected exactly one Set-Cookie, got %v", header)
	}
	if !strings.Contains(header[0], "pantry_uid="+id) || !strings.Contains(header[0], "Domain=mju.no") {
		t.Fatalf("unexpected Set-Cookie %q", header[0])
	}
}

func TestStoreJarPersistsAcrossJars(t *testing.T) {
	store := cache.NewMemoryStore()
	manager := NewManager("", 0, nil)

	first := manager.Ensure(NewStoreJar(store, "localhost"))
	second := manager.Ensure(NewStoreJar(store, "localhost"))
	if first != second {
		t.Fatalf("identity changed between jars: %q vs %q", first, second)
	}
}

func TestNewTokenIsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token := NewToken()
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = struct{}{}
	}
}
