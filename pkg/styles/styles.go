package styles

import (
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/kinetic/pkg/dom"
	"github.com/vango-dev/kinetic/pkg/vdom"
)

// Injector is the style-injection collaborator.
type Injector interface {
	// Inject installs css scoped to scopeID and returns the stylesheet id.
	// Injecting the same id again is idempotent.
	Inject(css, scopeID string) (string, error)

	// Remove releases one reference to the stylesheet id.
	Remove(id string)
}

// ScopeID derives a stable, short scope id from a name such as a
// component's type name.
func ScopeID(name string) string {
	return "k" + strconv.FormatUint(xxhash.Sum64String(name), 36)
}

type sheet struct {
	node *html.Node
	refs int
}

// Registry is an Injector that writes <style data-scope="id"> elements into
// a document head. Each id is reference counted: the element is added on the
// first Inject and removed when the last reference is released.
type Registry struct {
	mu     sync.Mutex
	head   *html.Node
	sheets map[string]*sheet
}

// NewRegistry creates a Registry that writes into head. A nil head keeps the
// bookkeeping without touching any document.
func NewRegistry(head *html.Node) *Registry {
	return &Registry{
		head:   head,
		sheets: make(map[string]*sheet),
	}
}

// Inject implements Injector.
func (r *Registry) Inject(css, scopeID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sheets[scopeID]; ok {
		s.refs++
		return scopeID, nil
	}

	node := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: vdom.ScopeAttr, Val: scopeID}},
	}
	node.AppendChild(&html.Node{Type: html.TextNode, Data: Scope(css, scopeID)})
	if r.head != nil {
		r.head.AppendChild(node)
	}
	r.sheets[scopeID] = &sheet{node: node, refs: 1}
	return scopeID, nil
}

// Remove implements Injector.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sheets[id]
	if !ok {
		return
	}
	s.refs--
	if s.refs > 0 {
		return
	}
	dom.Detach(s.node)
	delete(r.sheets, id)
}

// Refs returns the current reference count for id.
func (r *Registry) Refs(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sheets[id]; ok {
		return s.refs
	}
	return 0
}

// Len returns the number of installed stylesheets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sheets)
}

// Scope prefixes every selector in css with [data-scope="id"] so the rules
// only apply inside elements carrying that attribute. At-rules with nested
// blocks (@media, @supports) have their inner selectors scoped; other
// at-rules (@keyframes, @font-face) are left alone.
func Scope(css, id string) string {
	prefix := `[` + vdom.ScopeAttr + `="` + id + `"]`
	var b strings.Builder
	scopeBlock(&b, css, prefix)
	return b.String()
}

func scopeBlock(b *strings.Builder, css, prefix string) {
	for {
		open := strings.IndexByte(css, '{')
		if open < 0 {
			b.WriteString(strings.TrimSpace(css))
			return
		}
		selector := strings.TrimSpace(css[:open])
		end := matchingBrace(css, open)
		body := css[open+1 : end]

		switch {
		case strings.HasPrefix(selector, "@media"), strings.HasPrefix(selector, "@supports"):
			b.WriteString(selector)
			b.WriteString("{")
			scopeBlock(b, body, prefix)
			b.WriteString("}")
		case strings.HasPrefix(selector, "@"):
			b.WriteString(selector)
			b.WriteString("{")
			b.WriteString(body)
			b.WriteString("}")
		default:
			b.WriteString(scopeSelectors(selector, prefix))
			b.WriteString("{")
			b.WriteString(strings.TrimSpace(body))
			b.WriteString("}")
		}

		if end+1 >= len(css) {
			return
		}
		css = css[end+1:]
	}
}

func scopeSelectors(selector, prefix string) string {
	parts := strings.Split(selector, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		switch {
		case p == ":root", p == ":host":
			parts[i] = prefix
		default:
			parts[i] = prefix + " " + p + "," + prefix + p
		}
	}
	return strings.Join(parts, ",")
}

// matchingBrace returns the index of the brace closing the one at open, or
// len(css) when unbalanced.
func matchingBrace(css string, open int) int {
	depth := 0
	for i := open; i < len(css); i++ {
		switch css[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(css)
}
