// Package manifest rewrites stored adaptive-streaming manifests so that
// every URI a player will fetch points at a gated delivery endpoint and
// carries the streaming token as a query parameter. Rewriting is a pure
// transformation: same input and context always yield the same output, and
// running it again with the same token is byte-stable.
package manifest

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/streamgate/streamgate/core"
)

// DetectFormat inspects a stored manifest body. Returns ErrManifestCorrupt
// when the body matches neither recognized format.
func DetectFormat(body []byte) (core.ManifestFormat, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n\xef\xbb\xbf")
	switch {
	case bytes.HasPrefix(trimmed, []byte("#EXTM3U")):
		return core.FormatHLS, nil
	case bytes.HasPrefix(trimmed, []byte("<?xml")), bytes.HasPrefix(trimmed, []byte("<MPD")):
		return core.FormatDASH, nil
	}
	return "", core.ErrManifestCorrupt
}

// Rewrite dispatches to the format-specific rewriter.
func Rewrite(src core.ManifestSource, rctx core.RewriteContext) ([]byte, error) {
	switch src.Format {
	case core.FormatHLS:
		return RewriteHLS(src.Body, rctx)
	case core.FormatDASH:
		return RewriteDASH(src.Body, rctx)
	}
	return nil, core.ErrManifestCorrupt
}

// withToken returns rawURL with the token query parameter set to the given
// value, replacing any previous one. An empty token strips the parameter
// instead. Unparseable URIs are returned unchanged.
func withToken(rawURL, token string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Del("token")
	if token != "" {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// baseName returns the final path component of a URI, query stripped.
func baseName(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.LastIndexByte(raw, '/'); i >= 0 {
		raw = raw[i+1:]
	}
	return raw
}
