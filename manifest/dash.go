package manifest

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/streamgate/streamgate/core"
)

// clearkeySchemeID is the ContentProtection scheme URN for the clearkey
// key system.
const clearkeySchemeID = "urn:uuid:e2719d58-a985-b3c9-781a-b030af78d30e"

// xmlNode is a generic element tree; DASH manifests are rewritten
// structurally rather than by substring matching, so unrelated elements and
// attributes survive untouched (whitespace-insensitively).
type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []xmlNode  `xml:",any"`
}

// RewriteDASH parses the manifest, appends the token query parameter to
// every BaseURL element, points clearkey license/key-acquisition URLs at
// the gated key-delivery endpoint, and re-serializes. Key material itself
// is never embedded; only the gated pointer is. Malformed XML yields
// core.ErrManifestCorrupt with no partial output.
func RewriteDASH(body []byte, rctx core.RewriteContext) ([]byte, error) {
	var root xmlNode
	if err := xml.Unmarshal(body, &root); err != nil {
		return nil, core.Wrap(core.ErrManifestCorrupt, err)
	}
	if root.XMLName.Local != "MPD" {
		return nil, core.ErrManifestCorrupt
	}

	// The decoder records the default namespace both in element names and
	// as a literal xmlns attribute; clearing the name side keeps the
	// re-serialized document from declaring it twice.
	clearNamespace(&root)
	rewriteDASHNode(&root, rctx)

	out, err := xml.MarshalIndent(&root, "", "  ")
	if err != nil {
		return nil, core.Wrap(core.ErrManifestCorrupt, err)
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(out)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func clearNamespace(n *xmlNode) {
	n.XMLName.Space = ""
	for i := range n.Nodes {
		clearNamespace(&n.Nodes[i])
	}
}

func rewriteDASHNode(n *xmlNode, rctx core.RewriteContext) {
	switch {
	case n.XMLName.Local == "BaseURL":
		n.Content = withToken(strings.TrimSpace(n.Content), rctx.Token)
		return
	case n.XMLName.Local == "ContentProtection" && isClearkey(n):
		rewriteClearkey(n, rctx)
		return
	}
	for i := range n.Nodes {
		rewriteDASHNode(&n.Nodes[i], rctx)
	}
}

func isClearkey(n *xmlNode) bool {
	for _, a := range n.Attrs {
		if a.Name.Local == "schemeIdUri" && strings.EqualFold(a.Value, clearkeySchemeID) {
			return true
		}
	}
	return false
}

// rewriteClearkey points the key-acquisition URL (a Laurl child, any
// namespace) at the gated key endpoint bound to the same token and video.
// A clearkey element without one gets one added.
func rewriteClearkey(n *xmlNode, rctx core.RewriteContext) {
	target := withToken(rctx.BaseKeyPath, rctx.Token)
	for i := range n.Nodes {
		if strings.EqualFold(n.Nodes[i].XMLName.Local, "Laurl") {
			n.Nodes[i].Content = target
			return
		}
	}
	n.Nodes = append(n.Nodes, xmlNode{
		XMLName: xml.Name{Local: "Laurl"},
		Content: target,
	})
}
