package renderer

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// URLRewriter rewrites course-relative static references in authored HTML
// to the prefix they are served under. Authors write /static/diagram.png;
// the server mounts the course static directory elsewhere.
type URLRewriter struct {
	// SourcePrefix is the prefix authors use, normally "/static/".
	SourcePrefix string
	// TargetPrefix is the prefix the assets are served under.
	TargetPrefix string
}

// NewURLRewriter creates a rewriter from /static/ to the given prefix.
func NewURLRewriter(targetPrefix string) *URLRewriter {
	if !strings.HasSuffix(targetPrefix, "/") {
		targetPrefix += "/"
	}
	return &URLRewriter{SourcePrefix: "/static/", TargetPrefix: targetPrefix}
}

// urlAttrs are the attributes that carry URLs worth rewriting.
var urlAttrs = map[string]bool{
	"src":    true,
	"href":   true,
	"poster": true,
	"data":   true,
}

// Rewrite replaces static URL prefixes in every URL-carrying attribute of
// the fragment. Malformed HTML is passed through unchanged rather than
// dropped: authored content renders as-is when it cannot be parsed.
func (r *URLRewriter) Rewrite(fragment string) string {
	if !strings.Contains(fragment, r.SourcePrefix) {
		return fragment
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), bodyContext())
	if err != nil {
		return fragment
	}

	var b strings.Builder
	for _, node := range nodes {
		r.rewriteNode(node)
		if err := html.Render(&b, node); err != nil {
			return fragment
		}
	}
	return b.String()
}

func (r *URLRewriter) rewriteNode(node *html.Node) {
	if node.Type == html.ElementNode {
		for i, attr := range node.Attr {
			if urlAttrs[attr.Key] && strings.HasPrefix(attr.Val, r.SourcePrefix) {
				node.Attr[i].Val = r.TargetPrefix + attr.Val[len(r.SourcePrefix):]
			}
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		r.rewriteNode(child)
	}
}

// bodyContext returns a body element node for fragment parsing.
func bodyContext() *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
}
