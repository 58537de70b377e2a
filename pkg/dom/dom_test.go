package dom

import (
	"testing"

	"golang.org/x/net/html"

	"github.com/vango-dev/kinetic/pkg/vdom"
)

func TestNewDocument(t *testing.T) {
	doc := NewDocument()
	want := "<html><head></head><body></body></html>"
	if got := doc.HTML(); got != want {
		t.Errorf("HTML() = %q, want %q", got, want)
	}
	if doc.Body.Parent != doc.Head.Parent {
		t.Error("head and body should share the html element")
	}
}

func TestMaterialize(t *testing.T) {
	tests := []struct {
		name string
		tree *vdom.VNode
		want string
	}{
		{
			name: "element with attrs",
			tree: vdom.Div(vdom.ID("a"), vdom.Class("x"), vdom.Text("hi")),
			want: `<div class="x" id="a">hi</div>`,
		},
		{
			name: "text is escaped",
			tree: vdom.P(vdom.Text("<b>")),
			want: `<p>&lt;b&gt;</p>`,
		},
		{
			name: "raw is parsed",
			tree: vdom.Div(vdom.Raw("<b>bold</b>")),
			want: `<div><b>bold</b></div>`,
		},
		{
			name: "fragment flattened",
			tree: vdom.Ul(vdom.Fragment(vdom.Li(vdom.Text("1")), vdom.Li(vdom.Text("2")))),
			want: `<ul><li>1</li><li>2</li></ul>`,
		},
		{
			name: "component inline",
			tree: vdom.Div(vdom.Func(func() *vdom.VNode { return vdom.Span(vdom.Text("c")) })),
			want: `<div><span>c</span></div>`,
		},
		{
			name: "void element drops children",
			tree: vdom.Input(vdom.Type("text"), vdom.Text("ignored")),
			want: `<input type="text"/>`,
		},
		{
			name: "event handlers omitted",
			tree: vdom.Button(vdom.AttrOf("onclick", func() {}), vdom.Text("go")),
			want: `<button>go</button>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := MaterializeRoot(tt.tree)
			if got := Render(n); got != tt.want {
				t.Errorf("Render = %s, want %s", got, tt.want)
			}
			if n.Parent != nil {
				t.Error("materialized root should be detached")
			}
		})
	}
}

func TestMaterializeRootWrapsFragments(t *testing.T) {
	n := MaterializeRoot(vdom.Fragment(vdom.Span(), vdom.Span()))
	if _, ok := Attr(n, FragmentAttr); !ok {
		t.Fatalf("expected %s wrapper, got %s", FragmentAttr, Render(n))
	}
	if ChildAt(n, 1) == nil || ChildAt(n, 2) != nil {
		t.Error("wrapper should hold exactly two children")
	}
}

func TestQueries(t *testing.T) {
	root := MaterializeRoot(vdom.Div(
		vdom.Span(vdom.Ref("a"), vdom.Text("one")),
		vdom.Div(vdom.Span(vdom.Ref("b"), vdom.Text("two"))),
	))

	b := FindByAttr(root, vdom.RefAttr, "b")
	if b == nil || TextContent(b) != "two" {
		t.Fatalf("FindByAttr(b) = %v", b)
	}
	if got := len(FindAllWithAttr(root, vdom.RefAttr)); got != 2 {
		t.Errorf("FindAllWithAttr = %d, want 2", got)
	}
	if FindByAttr(root, vdom.RefAttr, "missing") != nil {
		t.Error("missing ref should not be found")
	}
	if TextContent(root) != "onetwo" {
		t.Errorf("TextContent = %q", TextContent(root))
	}
	second := ChildAt(root, 1)
	if IndexOf(root, second) != 1 || IndexOf(root, b) != -1 {
		t.Error("IndexOf mismatch")
	}

	SetAttr(second, "title", "x")
	SetAttr(second, "title", "y")
	if v, _ := Attr(second, "title"); v != "y" || len(second.Attr) != 1 {
		t.Errorf("SetAttr should replace, attrs = %v", second.Attr)
	}
	RemoveAttr(second, "title")
	if _, ok := Attr(second, "title"); ok {
		t.Error("RemoveAttr failed")
	}
}

func TestRemoveAndReplaceChildren(t *testing.T) {
	a := MaterializeRoot(vdom.Div(vdom.Span(), vdom.Em()))
	b := MaterializeRoot(vdom.Section())

	kids := RemoveChildren(a)
	if len(kids) != 2 || a.FirstChild != nil {
		t.Fatalf("RemoveChildren left %v", Render(a))
	}
	ReplaceChildren(b, kids)
	if got := Render(b); got != "<section><span></span><em></em></section>" {
		t.Errorf("ReplaceChildren = %s", got)
	}
	if !Detach(kids[0]) || Detach(kids[0]) {
		t.Error("Detach should report attachment once")
	}
}

func mount(t *testing.T, tree *vdom.VNode) (*html.Node, *html.Node) {
	t.Helper()
	container := newElement("body")
	if err := (Morph{}).Patch(container, nil, tree, 0); err != nil {
		t.Fatalf("initial patch: %v", err)
	}
	return container, container.FirstChild
}

func TestMorphKeepsIdentity(t *testing.T) {
	prev := vdom.Div(vdom.Class("a"), vdom.P(vdom.Text("x")))
	container, root := mount(t, prev)
	p := root.FirstChild

	next := vdom.Div(vdom.Class("b"), vdom.P(vdom.Text("y")), vdom.Span())
	if err := (Morph{}).Patch(container, prev, next, 0); err != nil {
		t.Fatal(err)
	}

	if container.FirstChild != root {
		t.Error("root element should be morphed in place")
	}
	if root.FirstChild != p {
		t.Error("matching child should keep identity")
	}
	want := `<div class="b"><p>y</p><span></span></div>`
	if got := Render(root); got != want {
		t.Errorf("Render = %s, want %s", got, want)
	}
}

func TestMorphReplacesOnTagChange(t *testing.T) {
	prev := vdom.Div(vdom.P(vdom.Text("x")), vdom.Em())
	container, root := mount(t, prev)

	next := vdom.Div(vdom.Section(vdom.Text("x")))
	if err := (Morph{}).Patch(container, prev, next, 0); err != nil {
		t.Fatal(err)
	}
	if got := Render(root); got != "<div><section>x</section></div>" {
		t.Errorf("Render = %s", got)
	}

	replaced := vdom.Span()
	if err := (Morph{}).Patch(container, next, replaced, 0); err != nil {
		t.Fatal(err)
	}
	if container.FirstChild == root || container.FirstChild.Data != "span" {
		t.Error("root should be replaced on tag change")
	}
}

func TestMorphReplacesOnKeyChange(t *testing.T) {
	prev := vdom.Div(vdom.Key("1"))
	container, root := mount(t, prev)

	if err := (Morph{}).Patch(container, prev, vdom.Div(vdom.Key("2")), 0); err != nil {
		t.Fatal(err)
	}
	if container.FirstChild == root {
		t.Error("root should be replaced when its key changes")
	}
}

func TestMorphIndexAndRemoval(t *testing.T) {
	container := newElement("body")
	container.AppendChild(newElement("header"))
	if err := (Morph{}).Patch(container, nil, vdom.Main(), 1); err != nil {
		t.Fatal(err)
	}
	if ChildAt(container, 1).Data != "main" {
		t.Fatalf("expected main at index 1, got %s", RenderChildren(container))
	}
	if err := (Morph{}).Patch(container, vdom.Main(), nil, 1); err != nil {
		t.Fatal(err)
	}
	if ChildAt(container, 1) != nil {
		t.Error("nil tree should remove the node")
	}
	if err := (Morph{}).Patch(nil, nil, vdom.Main(), 0); err == nil {
		t.Error("nil container should fail")
	}
}
