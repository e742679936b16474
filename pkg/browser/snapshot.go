package browser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Snapshot is a cleaned copy of the page DOM kept for post-mortem inspection
type Snapshot struct {
	HTML      string
	Title     string
	Truncated bool
}

// CleanHTML strips scripts, styles and other noise from rawHTML while keeping
// the attributes locators rely on (placeholder, aria-*, role, for, class).
// Password input values are masked.
func CleanHTML(rawHTML string, maxLength int) (*Snapshot, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	if maxLength <= 0 {
		maxLength = DefaultSnapshotLength
	}

	c := &cleaner{maxLength: maxLength}
	snap := &Snapshot{Title: findTitle(doc)}
	snap.Truncated = c.node(doc, 0)
	snap.HTML = c.b.String()
	return snap, nil
}

type cleaner struct {
	b         strings.Builder
	length    int
	maxLength int
}

// node writes n and returns true once the length budget is spent.
func (c *cleaner) node(n *html.Node, depth int) bool {
	if c.length >= c.maxLength {
		return true
	}

	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return false
	case html.TextNode:
		return c.text(n)
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if droppedElements[tag] {
			return false
		}
		return c.element(n, tag, depth)
	}
	return c.children(n, depth)
}

func (c *cleaner) text(n *html.Node) bool {
	text := strings.TrimSpace(n.Data)
	if text == "" {
		return false
	}

	if c.length+len(text) > c.maxLength {
		// Cut on a rune boundary so the snapshot stays valid UTF-8
		cut := c.maxLength - c.length
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		c.b.WriteString(text[:cut])
		c.b.WriteString("...")
		c.length = c.maxLength
		return true
	}

	c.b.WriteString(text)
	c.length += len(text)
	return false
}

func (c *cleaner) element(n *html.Node, tag string, depth int) bool {
	if depth > 0 && blockElements[tag] {
		c.b.WriteString("\n")
		c.b.WriteString(strings.Repeat("  ", depth))
	}

	c.b.WriteString("<")
	c.b.WriteString(tag)
	password := tag == "input" && attr(n, "type") == "password"
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if !keepAttribute(tag, key) {
			continue
		}
		val := a.Val
		if password && key == "value" {
			val = "********"
		}
		fmt.Fprintf(&c.b, ` %s="%s"`, key, html.EscapeString(val))
	}
	c.b.WriteString(">")
	c.length += len(tag) + 2

	// Icons are reduced to their tag and class, which is what selectors
	// like svg.lucide-settings match on.
	if tag == "svg" {
		c.b.WriteString("</svg>")
		c.length += 6
		return false
	}

	truncated := c.children(n, depth+1)

	if !voidElements[tag] {
		if blockElements[tag] {
			c.b.WriteString("\n")
			c.b.WriteString(strings.Repeat("  ", depth))
		}
		c.b.WriteString("</")
		c.b.WriteString(tag)
		c.b.WriteString(">")
		c.length += len(tag) + 3
	}

	return truncated
}

func (c *cleaner) children(n *html.Node, depth int) bool {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if c.node(child, depth) {
			return true
		}
	}
	return false
}

var droppedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"embed":    true,
	"object":   true,
	"template": true,
}

var blockElements = map[string]bool{
	"div": true, "p": true, "section": true, "article": true, "header": true,
	"footer": true, "nav": true, "main": true, "aside": true, "dialog": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "table": true, "tr": true, "td": true,
	"th": true, "form": true, "fieldset": true, "label": true,
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

var globalAttributes = map[string]bool{
	"id":       true,
	"class":    true,
	"role":     true,
	"title":    true,
	"hidden":   true,
	"disabled": true,
}

func keepAttribute(tag, key string) bool {
	if globalAttributes[key] || strings.HasPrefix(key, "aria-") || strings.HasPrefix(key, "data-") {
		return true
	}

	switch tag {
	case "a":
		return key == "href"
	case "img":
		return key == "alt"
	case "input", "textarea", "select":
		return key == "name" || key == "type" || key == "placeholder" || key == "value"
	case "label":
		return key == "for"
	case "button":
		return key == "type" || key == "name"
	case "form":
		return key == "action" || key == "method"
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.ToLower(a.Val)
		}
	}
	return ""
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := findTitle(c); title != "" {
			return title
		}
	}
	return ""
}
