package resource

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Key is a canonical request key: method, cleaned path and sorted query,
// optionally followed by an auth scope ("GET /posts?_page=1 @user:3").
type Key string

// Request identifies a remote read.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Scope separates responses fetched under different credentials.
	Scope string
}

// Key canonicalizes the request. Parameter order never affects the result.
func (r Request) Key() Key {
	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method == "" {
		method = "GET"
	}
	p := path.Clean("/" + strings.TrimSpace(r.Path))

	var b strings.Builder
	b.WriteString(method)
	b.WriteByte(' ')
	b.WriteString(p)
	if len(r.Query) > 0 {
		// Encode sorts by parameter name
		if q := r.Query.Encode(); q != "" {
			b.WriteByte('?')
			b.WriteString(q)
		}
	}
	if r.Scope != "" {
		b.WriteString(" @")
		b.WriteString(r.Scope)
	}
	return Key(b.String())
}

func (r Request) String() string { return string(r.Key()) }

// ParseRequest reads "METHOD /path?query" (method optional, defaults to GET).
func ParseRequest(s string) (Request, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Request{}, fmt.Errorf("empty request")
	}

	var scope string
	if i := strings.Index(s, " @"); i >= 0 {
		scope = strings.TrimSpace(s[i+2:])
		s = strings.TrimSpace(s[:i])
	}

	method := "GET"
	target := s
	if i := strings.IndexByte(s, ' '); i >= 0 {
		method = s[:i]
		target = strings.TrimSpace(s[i+1:])
	}
	if !strings.HasPrefix(target, "/") {
		return Request{}, fmt.Errorf("request path must start with '/': %q", target)
	}

	u, err := url.Parse(target)
	if err != nil {
		return Request{}, fmt.Errorf("parse request %q: %w", s, err)
	}
	return Request{Method: method, Path: u.Path, Query: u.Query(), Scope: scope}, nil
}

// IsKey reports whether s looks like a request key rather than a tag.
func IsKey(s string) bool {
	return strings.Contains(s, " /")
}
