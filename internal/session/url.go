package session

import (
	"fmt"
	"net/url"
	"strings"
)

// URLSource is the visible page address. Implementations stand in for
// window.location plus history.replaceState.
type URLSource interface {
	// Fragment returns the raw fragment without the leading '#'.
	Fragment() string
	// ReplaceWithoutFragment drops the fragment from the visible address
	// without navigating.
	ReplaceWithoutFragment()
}

// PageURL is a URLSource over a parsed page address. After a fragment is
// consumed, String returns the address the client should show.
type PageURL struct {
	u        *url.URL
	replaced bool
}

// ParsePageURL parses an absolute page address as sent by a client.
func ParsePageURL(raw string) (*PageURL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("page url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("page url %q is not absolute", raw)
	}
	return &PageURL{u: u}, nil
}

func (p *PageURL) Fragment() string {
	return p.u.EscapedFragment()
}

func (p *PageURL) ReplaceWithoutFragment() {
	if p.u.Fragment == "" && p.u.RawFragment == "" {
		return
	}
	p.u.Fragment = ""
	p.u.RawFragment = ""
	p.replaced = true
}

// Replaced reports whether the fragment was stripped.
func (p *PageURL) Replaced() bool {
	return p.replaced
}

// URL returns a copy of the current address.
func (p *PageURL) URL() *url.URL {
	clone := *p.u
	return &clone
}

func (p *PageURL) String() string {
	return p.u.String()
}

// ParseFragment extracts the bucket owner id and basket name from a
// fragment in the form pid=<id>&key=<basket>. "basket" is accepted when
// "key" is missing or empty. Missing values come back empty.
func ParseFragment(fragment string) (pid, key string) {
	raw := strings.TrimPrefix(fragment, "#")
	if raw == "" {
		return "", ""
	}
	// ParseQuery keeps the pairs it could parse even when it reports an error.
	values, _ := url.ParseQuery(raw)
	pid = values.Get("pid")
	key = values.Get("key")
	if key == "" {
		key = values.Get("basket")
	}
	return pid, key
}
