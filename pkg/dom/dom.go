package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/kinetic/pkg/vdom"
)

// FragmentAttr marks the wrapper element MaterializeRoot creates when a tree
// does not produce exactly one root node.
const FragmentAttr = "data-fragment"

// Document is a minimal headless document.
type Document struct {
	Root *html.Node
	Head *html.Node
	Body *html.Node
}

// NewDocument builds <html><head></head><body></body></html>.
func NewDocument() *Document {
	root := &html.Node{Type: html.DocumentNode}
	htmlEl := newElement("html")
	head := newElement("head")
	body := newElement("body")
	root.AppendChild(htmlEl)
	htmlEl.AppendChild(head)
	htmlEl.AppendChild(body)
	return &Document{Root: root, Head: head, Body: body}
}

// HTML renders the whole document.
func (d *Document) HTML() string {
	return Render(d.Root)
}

// Materialize converts a declarative tree into detached live nodes.
// Fragments are flattened and component nodes are rendered inline, so the
// result may hold zero, one, or many nodes.
func Materialize(v *vdom.VNode) []*html.Node {
	var out []*html.Node
	materialize(v, &out)
	return out
}

// MaterializeRoot converts a tree into exactly one detached node. A tree
// that yields several (or no) top-level nodes is wrapped in a div carrying
// FragmentAttr.
func MaterializeRoot(v *vdom.VNode) *html.Node {
	nodes := Materialize(v)
	if len(nodes) == 1 {
		return nodes[0]
	}
	wrapper := newElement("div")
	wrapper.Attr = append(wrapper.Attr, html.Attribute{Key: FragmentAttr})
	for _, n := range nodes {
		wrapper.AppendChild(n)
	}
	return wrapper
}

func materialize(v *vdom.VNode, out *[]*html.Node) {
	if v == nil {
		return
	}
	switch v.Kind {
	case vdom.KindText:
		*out = append(*out, &html.Node{Type: html.TextNode, Data: v.Text})
	case vdom.KindRaw:
		*out = append(*out, parseRaw(v.Text)...)
	case vdom.KindFragment:
		for _, child := range v.Children {
			materialize(child, out)
		}
	case vdom.KindComponent:
		if v.Comp != nil {
			materialize(v.Comp.Render(), out)
		}
	case vdom.KindElement:
		el := newElement(v.Tag)
		for _, k := range v.AttrKeys() {
			val, _ := v.Attr(k)
			el.Attr = append(el.Attr, html.Attribute{Key: k, Val: val})
		}
		if !vdom.IsVoidElement(v.Tag) {
			var children []*html.Node
			for _, child := range v.Children {
				materialize(child, &children)
			}
			for _, c := range children {
				el.AppendChild(c)
			}
		}
		*out = append(*out, el)
	}
}

func newElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// parseRaw parses an HTML snippet in body context. Parse failures degrade
// to a text node so raw content is never silently lost.
func parseRaw(s string) []*html.Node {
	ctx := newElement("body")
	nodes, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return []*html.Node{{Type: html.TextNode, Data: s}}
	}
	return nodes
}

// Render serializes n and its descendants.
func Render(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// RenderChildren serializes the children of n without n itself.
func RenderChildren(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}
