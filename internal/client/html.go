package client

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// StripHTML returns the text content of an HTML fragment. Line-breaking
// elements become newlines so synthesized speech pauses between them.
func StripHTML(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
			if n.Data == "br" {
				b.WriteString("\n")
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) {
			b.WriteString("\n")
		}
	}
	walk(doc)
	return strings.TrimSpace(b.String())
}

// ToMarkdown converts the small HTML vocabulary the relay emits into
// markdown suitable for terminal rendering.
func ToMarkdown(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var b strings.Builder
	var walk func(n *html.Node, depth int)
	walkChildren := func(n *html.Node, depth int) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, depth)
		}
	}
	walk = func(n *html.Node, depth int) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type != html.ElementNode {
			walkChildren(n, depth)
			return
		}

		switch n.Data {
		case "script", "style":
		case "br":
			b.WriteString("  \n")
		case "p", "div":
			walkChildren(n, depth)
			b.WriteString("\n\n")
		case "h1", "h2", "h3", "h4":
			b.WriteString(strings.Repeat("#", int(n.Data[1]-'0')) + " ")
			walkChildren(n, depth)
			b.WriteString("\n\n")
		case "strong", "b":
			b.WriteString("**")
			walkChildren(n, depth)
			b.WriteString("**")
		case "em", "i":
			b.WriteString("*")
			walkChildren(n, depth)
			b.WriteString("*")
		case "code":
			b.WriteString("`")
			walkChildren(n, depth)
			b.WriteString("`")
		case "a":
			b.WriteString("[")
			walkChildren(n, depth)
			fmt.Fprintf(&b, "](%s)", attr(n, "href"))
		case "ul", "ol":
			if depth > 0 {
				b.WriteString("\n")
			}
			item := 0
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode || c.Data != "li" {
					continue
				}
				item++
				b.WriteString(strings.Repeat("  ", depth))
				if n.Data == "ol" {
					fmt.Fprintf(&b, "%d. ", item)
				} else {
					b.WriteString("- ")
				}
				walkChildren(c, depth+1)
				b.WriteString("\n")
			}
			if depth == 0 {
				b.WriteString("\n")
			}
		default:
			walkChildren(n, depth)
		}
	}
	walk(doc, 0)
	return strings.TrimSpace(b.String())
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "ul", "ol", "h1", "h2", "h3", "h4":
		return true
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
