package archive

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// PostContent is the human-readable substance of an archived post page,
// used to show in reports what a deleted post actually said.
type PostContent struct {
	// Author is the display name or handle found on the page, if any.
	Author string
	// Text is the post body text, if any.
	Text string
	// Title is the page title, kept as a fallback when structured
	// metadata is absent.
	Title string
}

// ExtractPost pulls post text out of an archived page.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regular expressions; archived pages span fifteen years of markup
// variants and a tolerant tree parser handles all of them. Extraction is
// best-effort: the platform's pages have carried the post body in
// OpenGraph meta tags for most of their history, with the <title> element
// as the oldest fallback.
func ExtractPost(r io.Reader) (PostContent, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return PostContent{}, err
	}

	var content PostContent
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				property, value := metaAttrs(n)
				switch property {
				case "og:description", "twitter:description":
					if content.Text == "" {
						content.Text = cleanPostText(value)
					}
				case "og:title", "twitter:title":
					if content.Author == "" {
						content.Author = cleanAuthor(value)
					}
				}
			case "title":
				if content.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					content.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	// Old snapshots carry the post only in the title, formatted as
	// `Author on Twitter: "text"`.
	if content.Text == "" && content.Title != "" {
		if author, text, ok := splitLegacyTitle(content.Title); ok {
			if content.Author == "" {
				content.Author = author
			}
			content.Text = text
		}
	}

	return content, nil
}

// metaAttrs returns the property/name and content attributes of a meta
// element.
func metaAttrs(n *html.Node) (property, value string) {
	for _, attr := range n.Attr {
		switch attr.Key {
		case "property", "name":
			property = attr.Val
		case "content":
			value = attr.Val
		}
	}
	return property, value
}

// cleanPostText strips the decorative quotes the platform wraps around
// the body in its OpenGraph description.
func cleanPostText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "“")
	s = strings.TrimSuffix(s, "”")
	return strings.TrimSpace(s)
}

// cleanAuthor strips the "on Twitter"/"on X" suffix from og:title values.
func cleanAuthor(s string) string {
	s = strings.TrimSpace(s)
	for _, suffix := range []string{" on Twitter", " on X"} {
		s = strings.TrimSuffix(s, suffix)
	}
	return s
}

// splitLegacyTitle parses the pre-OpenGraph title format
// `Author on Twitter: "text"`.
func splitLegacyTitle(title string) (author, text string, ok bool) {
	for _, marker := range []string{" on Twitter: ", " on X: "} {
		if idx := strings.Index(title, marker); idx > 0 {
			author = title[:idx]
			text = strings.Trim(title[idx+len(marker):], "\"“” ")
			return author, text, true
		}
	}
	return "", "", false
}
