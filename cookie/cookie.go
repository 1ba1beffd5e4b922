// Package cookie builds and parses HTTP cookie headers for the session
// layer. Construction is deterministic string assembly with a fixed
// attribute order; parsing tolerates malformed pairs by skipping them.
package cookie

import (
	"fmt"
	"strings"
)

// SessionCookieName is the cookie carrying the session id.
const SessionCookieName = "streamgate_session"

// Options controls the security attributes of a built cookie.
type Options struct {
	MaxAge   int    // seconds; 0 means the attribute is still emitted
	Path     string // defaults to "/"
	Secure   bool   // set on production transport
	SameSite string // defaults to "Lax"
}

func (o Options) normalize() Options {
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == "" {
		o.SameSite = "Lax"
	}
	return o
}

// Build assembles a Set-Cookie header value. Attribute order is fixed:
// name=value; Max-Age; Path; HttpOnly; Secure; SameSite. Session cookies
// are always HttpOnly.
func Build(name, value string, opts Options) string {
	opts = opts.normalize()

	var b strings.Builder
	fmt.Fprintf(&b, "%s=%s; Max-Age=%d; Path=%s; HttpOnly", name, value, opts.MaxAge, opts.Path)
	if opts.Secure {
		b.WriteString("; Secure")
	}
	fmt.Fprintf(&b, "; SameSite=%s", opts.SameSite)
	return b.String()
}

// BuildExpired assembles a header value that forces client-side deletion of
// the named cookie (Max-Age=0, empty value).
func BuildExpired(name string, opts Options) string {
	opts.MaxAge = 0
	return Build(name, "", opts)
}

// ExtractValue parses a raw Cookie request header (semicolon-delimited
// name=value pairs) and returns the first value under the given name.
// Whitespace around separators is tolerated; pairs without "=" are skipped.
func ExtractValue(header, name string) (string, bool) {
	if header == "" || name == "" {
		return "", false
	}
	for _, pair := range strings.Split(header, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		eq := strings.IndexByte(pair, '=')
		if eq < 0 {
			continue
		}
		if strings.TrimSpace(pair[:eq]) == name {
			return pair[eq+1:], true
		}
	}
	return "", false
}
