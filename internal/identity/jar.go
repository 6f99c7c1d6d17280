package identity

import (
	"context"
	"net/http"
	"time"

	"pantrywall/internal/cache"
)

// HTTPJar reads cookies from an incoming request and writes Set-Cookie
// headers on the response. Cookies set during the request are visible to
// later Cookie calls on the same jar.
type HTTPJar struct {
	request *http.Request
	writer  http.ResponseWriter
	set     map[string]string
}

func NewHTTPJar(w http.ResponseWriter, r *http.Request) *HTTPJar {
	return &HTTPJar{request: r, writer: w, set: make(map[string]string)}
}

func (j *HTTPJar) Cookie(name string) (string, bool) {
	if value, ok := j.set[name]; ok {
		return value, true
	}
	c, err := j.request.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

func (j *HTTPJar) SetCookie(c *http.Cookie) {
	j.set[c.Name] = c.Value
	http.SetCookie(j.writer, c)
}

func (j *HTTPJar) Host() string {
	return stripPort(j.request.Host)
}

// StoreJar keeps cookies in a cache.Store. The CLI uses it over a file
// store so a terminal keeps one identity across runs.
type StoreJar struct {
	store cache.Store
	host  string
}

func NewStoreJar(store cache.Store, host string) *StoreJar {
	return &StoreJar{store: store, host: host}
}

func (j *StoreJar) Cookie(name string) (string, bool) {
	var value string
	ok, err := j.store.Get(context.Background(), "cookie:"+name, &value)
	if err != nil || !ok {
		return "", false
	}
	return value, true
}

func (j *StoreJar) SetCookie(c *http.Cookie) {
	ttl := time.Duration(c.MaxAge) * time.Second
	_ = j.store.Set(context.Background(), "cookie:"+c.Name, c.Value, ttl)
}

func (j *StoreJar) Host() string {
	return j.host
}
