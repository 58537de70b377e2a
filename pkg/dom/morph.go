package dom

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/vango-dev/kinetic/pkg/vdom"
)

// Morph is the default patch collaborator. It materializes the new tree and
// morphs the live root in place: matching elements keep their identity and
// have attributes and children synced, while a change of node type, tag, or
// root key replaces the node wholesale.
//
// Children are matched by position. Morph keeps no state and is safe to
// share.
type Morph struct{}

// Patch reconciles the live node at container's index-th child against next.
// A nil next removes the live node; a missing live node is appended.
func (Morph) Patch(container *html.Node, prev, next *vdom.VNode, index int) error {
	if container == nil {
		return fmt.Errorf("dom: patch: nil container")
	}
	live := ChildAt(container, index)
	if next == nil {
		if live != nil {
			container.RemoveChild(live)
		}
		return nil
	}

	target := MaterializeRoot(next)
	if live == nil {
		container.AppendChild(target)
		return nil
	}
	if prev != nil && prev.Key != next.Key {
		replace(live, target)
		return nil
	}
	morph(live, target)
	return nil
}

// morph turns live into target and returns the node now in live's position.
func morph(live, target *html.Node) *html.Node {
	if live.Type != target.Type || (live.Type == html.ElementNode && live.Data != target.Data) {
		replace(live, target)
		return target
	}
	switch live.Type {
	case html.TextNode, html.CommentNode:
		if live.Data != target.Data {
			live.Data = target.Data
		}
	case html.ElementNode:
		syncAttrs(live, target)
		morphChildren(live, target)
	}
	return live
}

func replace(live, target *html.Node) {
	parent := live.Parent
	parent.InsertBefore(target, live)
	parent.RemoveChild(live)
}

func syncAttrs(live, target *html.Node) {
	if attrsEqual(live.Attr, target.Attr) {
		return
	}
	live.Attr = append([]html.Attribute(nil), target.Attr...)
}

func attrsEqual(a, b []html.Attribute) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func morphChildren(live, target *html.Node) {
	wanted := RemoveChildren(target)
	cur := live.FirstChild
	for _, want := range wanted {
		if cur == nil {
			live.AppendChild(want)
			continue
		}
		next := cur.NextSibling
		morph(cur, want)
		cur = next
	}
	for cur != nil {
		next := cur.NextSibling
		live.RemoveChild(cur)
		cur = next
	}
}
