package ingestion

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// extractTextByClasses parses an HTML document and collects the visible
// text of every element whose class attribute matches one of the given
// class names. Matched regions are returned in document order, separated
// by blank lines. An empty result means no matching region was found.
func extractTextByClasses(r io.Reader, classes []string) (string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	wanted := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		wanted[c] = struct{}{}
	}

	var regions []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasAnyClass(n, wanted) {
			text := collectText(n)
			if text != "" {
				regions = append(regions, text)
			}
			// Nested matches would duplicate text, so do not descend.
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return strings.Join(regions, "\n\n"), nil
}

func hasAnyClass(n *html.Node, wanted map[string]struct{}) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if _, ok := wanted[c]; ok {
				return true
			}
		}
	}
	return false
}

// collectText gathers the text nodes beneath n, skipping script and
// style elements, and normalizes surrounding whitespace per node.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			trimmed := strings.TrimSpace(n.Data)
			if trimmed != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(trimmed)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
