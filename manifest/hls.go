package manifest

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/streamgate/streamgate/core"
)

// segmentName matches the final path component of a media segment
// reference: a name carrying a numeric index suffix plus a segment file
// extension. Directive lines never reach this check.
var segmentName = regexp.MustCompile(`^[A-Za-z0-9_.-]*[0-9]+\.(ts|m4s|mp4|aac)$`)

// keyURI captures the quoted URI attribute of a key directive.
var keyURI = regexp.MustCompile(`URI="([^"]*)"`)

// keyDirectives are the playlist directives whose URI attribute points at
// key-delivery and therefore needs the token appended.
var keyDirectives = []string{"#EXT-X-KEY:", "#EXT-X-SESSION-KEY:"}

// RewriteHLS processes a text playlist line by line. Segment references are
// redirected under the gated segment prefix with the token appended; key
// directives get the token appended inside their quoted URI only; every
// other directive line is emitted byte-identical. Rewriting an already
// rewritten playlist replaces the previous token, never stacks a second.
func RewriteHLS(body []byte, rctx core.RewriteContext) ([]byte, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n\xef\xbb\xbf")
	if !bytes.HasPrefix(trimmed, []byte("#EXTM3U")) {
		return nil, core.ErrManifestCorrupt
	}

	var out strings.Builder
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if !first {
			out.WriteByte('\n')
		}
		first = false
		out.WriteString(rewriteHLSLine(line, rctx))
	}
	if err := scanner.Err(); err != nil {
		return nil, core.Wrap(core.ErrManifestCorrupt, err)
	}
	if bytes.HasSuffix(body, []byte("\n")) {
		out.WriteByte('\n')
	}
	return []byte(out.String()), nil
}

func rewriteHLSLine(line string, rctx core.RewriteContext) string {
	stripped := strings.TrimSpace(line)
	if stripped == "" {
		return line
	}

	if strings.HasPrefix(stripped, "#") {
		for _, dir := range keyDirectives {
			if strings.HasPrefix(stripped, dir) {
				return rewriteKeyDirective(line, rctx.Token)
			}
		}
		// Any other directive stays byte-identical.
		return line
	}

	name := baseName(stripped)
	if !segmentName.MatchString(name) {
		return line
	}
	return withToken(rctx.BaseSegmentPath+"/"+name, rctx.Token)
}

// rewriteKeyDirective appends the token to the directive's quoted URI
// value, leaving all other attributes and line structure untouched.
func rewriteKeyDirective(line, token string) string {
	return keyURI.ReplaceAllStringFunc(line, func(m string) string {
		sub := keyURI.FindStringSubmatch(m)
		return `URI="` + withToken(sub[1], token) + `"`
	})
}
