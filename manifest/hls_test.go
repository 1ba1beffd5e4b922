package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamgate/streamgate/core"
)

func hlsContext(token string) core.RewriteContext {
	return core.RewriteContext{
		VideoID:         "abc",
		Token:           token,
		BaseSegmentPath: "segment",
		BaseKeyPath:     "key",
	}
}

const playlist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-KEY:METHOD=AES-128,URI="key.bin",IV=0xDEADBEEF
#EXTINF:10.0,
segment_000.ts
#EXTINF:10.0,
segment_001.ts
#EXT-X-ENDLIST
`

func TestRewriteHLSSegmentsAndKey(t *testing.T) {
	out, err := RewriteHLS([]byte(playlist), hlsContext("xyz"))
	require.NoError(t, err)

	lines := strings.Split(string(out), "\n")
	assert.Equal(t, "#EXTM3U", lines[0])
	assert.Equal(t, "#EXT-X-VERSION:3", lines[1])
	assert.Equal(t, "#EXT-X-TARGETDURATION:10", lines[2])
	assert.Equal(t, `#EXT-X-KEY:METHOD=AES-128,URI="key.bin?token=xyz",IV=0xDEADBEEF`, lines[3])
	assert.Equal(t, "#EXTINF:10.0,", lines[4])
	assert.Equal(t, "segment/segment_000.ts?token=xyz", lines[5])
	assert.Equal(t, "segment/segment_001.ts?token=xyz", lines[7])
	assert.Equal(t, "#EXT-X-ENDLIST", lines[8])
}

func TestRewriteHLSDirectivesUntouched(t *testing.T) {
	in := "#EXTM3U\n#EXTINF:10.0,\nsegment_000.ts\n"
	out, err := RewriteHLS([]byte(in), hlsContext("xyz"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "#EXTINF:10.0,\n")
}

func TestRewriteHLSIdempotent(t *testing.T) {
	once, err := RewriteHLS([]byte(playlist), hlsContext("T"))
	require.NoError(t, err)

	twice, err := RewriteHLS(once, hlsContext("T"))
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))
}

func TestRewriteHLSTokenReplaced(t *testing.T) {
	first, err := RewriteHLS([]byte(playlist), hlsContext("T1"))
	require.NoError(t, err)

	second, err := RewriteHLS(first, hlsContext("T2"))
	require.NoError(t, err)

	text := string(second)
	assert.NotContains(t, text, "T1")
	assert.Contains(t, text, "segment/segment_000.ts?token=T2")
	assert.Contains(t, text, `URI="key.bin?token=T2"`)
	// Exactly one token parameter per URI, never stacked.
	assert.Equal(t, 3, strings.Count(text, "token="))
}

func TestRewriteHLSNoToken(t *testing.T) {
	out, err := RewriteHLS([]byte(playlist), hlsContext(""))
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "segment/segment_000.ts\n")
	assert.Contains(t, text, `URI="key.bin"`)
	assert.NotContains(t, text, "token=")
}

func TestRewriteHLSNonSegmentLinesUntouched(t *testing.T) {
	in := "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1280000\nvariant_low.m3u8\n"
	out, err := RewriteHLS([]byte(in), hlsContext("xyz"))
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}

func TestRewriteHLSCorrupt(t *testing.T) {
	_, err := RewriteHLS([]byte("not a playlist at all"), hlsContext("xyz"))
	assert.ErrorIs(t, err, core.ErrManifestCorrupt)
}

func TestRewriteHLSPreservesMissingTrailingNewline(t *testing.T) {
	in := "#EXTM3U\nsegment_000.ts"
	out, err := RewriteHLS([]byte(in), hlsContext("z"))
	require.NoError(t, err)
	assert.Equal(t, "#EXTM3U\nsegment/segment_000.ts?token=z", string(out))
}

func TestDetectFormat(t *testing.T) {
	f, err := DetectFormat([]byte(playlist))
	require.NoError(t, err)
	assert.Equal(t, core.FormatHLS, f)

	f, err = DetectFormat([]byte(`<?xml version="1.0"?><MPD></MPD>`))
	require.NoError(t, err)
	assert.Equal(t, core.FormatDASH, f)

	_, err = DetectFormat([]byte("garbage"))
	assert.ErrorIs(t, err, core.ErrManifestCorrupt)
}
