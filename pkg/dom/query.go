package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// ChildAt returns the i-th child of parent, counting every node type, or nil.
func ChildAt(parent *html.Node, i int) *html.Node {
	if parent == nil || i < 0 {
		return nil
	}
	c := parent.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

// IndexOf returns the position of child among parent's children, or -1.
func IndexOf(parent, child *html.Node) int {
	if parent == nil || child == nil {
		return -1
	}
	i := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c == child {
			return i
		}
		i++
	}
	return -1
}

// WalkElements visits root and its element descendants depth-first.
// Returning false from fn skips that element's subtree.
func WalkElements(root *html.Node, fn func(*html.Node) bool) {
	if root == nil {
		return
	}
	if root.Type == html.ElementNode && !fn(root) {
		return
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		WalkElements(c, fn)
	}
}

// FindByAttr returns the first element under root (inclusive) whose
// attribute key equals value.
func FindByAttr(root *html.Node, key, value string) *html.Node {
	var found *html.Node
	WalkElements(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if v, ok := Attr(n, key); ok && v == value {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindAllWithAttr returns every element under root (inclusive) that carries
// key, in document order.
func FindAllWithAttr(root *html.Node, key string) []*html.Node {
	var out []*html.Node
	WalkElements(root, func(n *html.Node) bool {
		if _, ok := Attr(n, key); ok {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Attr returns the value of an attribute.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an attribute.
func SetAttr(n *html.Node, key, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

// RemoveAttr deletes an attribute if present.
func RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// TextContent concatenates all descendant text.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// RemoveChildren detaches and returns every child of n.
func RemoveChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		out = append(out, c)
		c = next
	}
	return out
}

// ReplaceChildren swaps n's children for children. Nodes still attached
// elsewhere are detached first.
func ReplaceChildren(n *html.Node, children []*html.Node) {
	RemoveChildren(n)
	for _, c := range children {
		Detach(c)
		n.AppendChild(c)
	}
}

// Detach removes n from its parent. It reports whether n was attached.
func Detach(n *html.Node) bool {
	if n == nil || n.Parent == nil {
		return false
	}
	n.Parent.RemoveChild(n)
	return true
}
