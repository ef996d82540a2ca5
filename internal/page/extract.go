package page

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"quiz-solver/pkg/models"
)

// Extract walks the markup for its title, visible text, and links.
// Relative links are resolved against baseURL.
func Extract(r io.Reader, baseURL string) (models.PageDigest, error) {
	var digest models.PageDigest

	doc, err := html.Parse(r)
	if err != nil {
		return digest, err
	}

	var links []string
	seen := make(map[string]bool)
	var textBuilder strings.Builder

	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil && digest.Title == "" {
			digest.Title = strings.TrimSpace(n.FirstChild.Data)
		}

		// Quiz pages point at data files with anchors and at endpoints with forms.
		if n.Type == html.ElementNode && (n.Data == "a" || n.Data == "form" || n.Data == "audio" || n.Data == "source" || n.Data == "img") {
			for _, a := range n.Attr {
				if a.Key != "href" && a.Key != "action" && a.Key != "src" {
					continue
				}
				absoluteURL := resolveURL(baseURL, a.Val)
				if absoluteURL != "" && !seen[absoluteURL] {
					seen[absoluteURL] = true
					links = append(links, absoluteURL)
				}
			}
		}

		if n.Type == html.TextNode {
			parent := n.Parent
			if parent != nil && parent.Data != "script" && parent.Data != "style" && parent.Data != "title" {
				text := strings.TrimSpace(n.Data)
				if len(text) > 0 {
					textBuilder.WriteString(text + " ")
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}

	visit(doc)

	digest.TextContent = strings.TrimSpace(textBuilder.String())
	digest.OutboundLinks = links
	return digest, nil
}

// resolveURL turns "/data.csv" into "https://site.com/data.csv".
// Only http(s) results are kept.
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	resolved := baseURL.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
