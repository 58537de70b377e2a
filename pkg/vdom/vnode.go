package vdom

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement   VKind = iota // <div>, <button>, etc.
	KindText                   // Plain text node
	KindFragment               // Grouping without wrapper
	KindComponent              // Nested render function, expanded inline
	KindRaw                    // Raw HTML (dangerous)
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindComponent:
		return "Component"
	case KindRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// VNode is a node of the declarative tree a component renders.
type VNode struct {
	Kind     VKind     // Node type
	Tag      string    // Element tag name (e.g., "div")
	Props    Props     // Attributes
	Children []*VNode  // Child nodes
	Key      string    // Reconciliation key
	Text     string    // For KindText and KindRaw
	Comp     Component // For KindComponent
}

// Props holds element attributes. Values are rendered with PropString.
type Props map[string]any

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// Component is anything that can render to a VNode.
type Component interface {
	Render() *VNode
}

// FuncComponent wraps a render function.
type FuncComponent func() *VNode

// Render implements Component.
func (f FuncComponent) Render() *VNode {
	return f()
}

// Func creates a component from a render function.
func Func(render func() *VNode) Component {
	return FuncComponent(render)
}

// Attr returns the string form of a prop and whether it renders at all.
// false and nil props are omitted; true renders as an empty attribute.
func (v *VNode) Attr(key string) (string, bool) {
	if v == nil || v.Props == nil {
		return "", false
	}
	val, ok := v.Props[key]
	if !ok {
		return "", false
	}
	return PropString(val)
}

// SetProp sets a prop, allocating Props if needed.
func (v *VNode) SetProp(key string, value any) {
	if v.Props == nil {
		v.Props = make(Props)
	}
	v.Props[key] = value
}

// AttrKeys returns the keys of renderable attributes in sorted order.
// The reconciliation key and event handlers are excluded.
func (v *VNode) AttrKeys() []string {
	if v == nil || len(v.Props) == 0 {
		return nil
	}
	keys := make([]string, 0, len(v.Props))
	for k, val := range v.Props {
		if k == "key" || IsEventHandler(k) {
			continue
		}
		if _, ok := PropString(val); !ok {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of the tree. Component nodes keep their
// Component value.
func (v *VNode) Clone() *VNode {
	if v == nil {
		return nil
	}
	c := *v
	if v.Props != nil {
		c.Props = make(Props, len(v.Props))
		for k, val := range v.Props {
			c.Props[k] = val
		}
	}
	if v.Children != nil {
		c.Children = make([]*VNode, len(v.Children))
		for i, child := range v.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// Walk visits v and its descendants depth-first. Returning false from fn
// skips the node's children.
func (v *VNode) Walk(fn func(*VNode) bool) {
	if v == nil {
		return
	}
	if !fn(v) {
		return
	}
	for _, child := range v.Children {
		child.Walk(fn)
	}
}

// String renders a compact debug form, e.g. div[class=card]("hi").
func (v *VNode) String() string {
	var b strings.Builder
	v.debug(&b)
	return b.String()
}

func (v *VNode) debug(b *strings.Builder) {
	if v == nil {
		b.WriteString("<nil>")
		return
	}
	switch v.Kind {
	case KindText:
		b.WriteString(strconv.Quote(v.Text))
		return
	case KindRaw:
		b.WriteString("raw")
		b.WriteString(strconv.Quote(v.Text))
		return
	case KindComponent:
		fmt.Fprintf(b, "component(%T)", v.Comp)
		return
	case KindFragment:
		b.WriteString("fragment")
	default:
		b.WriteString(v.Tag)
	}
	if keys := v.AttrKeys(); len(keys) > 0 {
		b.WriteString("[")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(" ")
			}
			s, _ := v.Attr(k)
			fmt.Fprintf(b, "%s=%s", k, s)
		}
		b.WriteString("]")
	}
	if len(v.Children) > 0 {
		b.WriteString("(")
		for i, child := range v.Children {
			if i > 0 {
				b.WriteString(" ")
			}
			child.debug(b)
		}
		b.WriteString(")")
	}
}

// IsEventHandler returns true if the key names an event handler prop.
// Case-insensitive to catch onclick, ONCLICK, onClick, OnLoad, etc.
func IsEventHandler(key string) bool {
	return len(key) > 2 && strings.EqualFold(key[:2], "on")
}

// PropString converts a prop value to its attribute string. The second
// result is false when the attribute should be omitted.
func PropString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case bool:
		if val {
			return "", true
		}
		return "", false
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}
