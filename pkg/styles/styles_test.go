package styles

import (
	"strings"
	"testing"

	"github.com/vango-dev/kinetic/pkg/dom"
	"github.com/vango-dev/kinetic/pkg/vdom"
)

func TestScopeIDStable(t *testing.T) {
	a := ScopeID("Counter")
	if a != ScopeID("Counter") {
		t.Error("ScopeID should be deterministic")
	}
	if a == ScopeID("Clock") {
		t.Error("different names should give different ids")
	}
	if !strings.HasPrefix(a, "k") {
		t.Errorf("ScopeID = %q, want k prefix", a)
	}
}

func TestScope(t *testing.T) {
	p := `[data-scope="s"]`
	tests := []struct {
		name string
		css  string
		want string
	}{
		{
			name: "single selector",
			css:  ".btn { color: red; }",
			want: p + " .btn," + p + ".btn{color: red;}",
		},
		{
			name: "selector list",
			css:  "h1, h2 {margin:0}",
			want: p + " h1," + p + "h1," + p + " h2," + p + "h2{margin:0}",
		},
		{
			name: "root selector",
			css:  ":root{--x:1}",
			want: p + "{--x:1}",
		},
		{
			name: "media nests",
			css:  "@media (max-width: 10px) { p { x: y } }",
			want: "@media (max-width: 10px){" + p + " p," + p + "p{x: y}}",
		},
		{
			name: "keyframes untouched",
			css:  "@keyframes spin { from { a: b } }",
			want: "@keyframes spin{ from { a: b } }",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Scope(tt.css, "s"); got != tt.want {
				t.Errorf("Scope() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestRegistryRefCounts(t *testing.T) {
	doc := dom.NewDocument()
	r := NewRegistry(doc.Head)

	id, err := r.Inject(".a{b:c}", "s1")
	if err != nil || id != "s1" {
		t.Fatalf("Inject = %q, %v", id, err)
	}
	if _, err := r.Inject(".a{b:c}", "s1"); err != nil {
		t.Fatal(err)
	}
	if got := len(dom.FindAllWithAttr(doc.Head, vdom.ScopeAttr)); got != 1 {
		t.Fatalf("style elements = %d, want 1", got)
	}
	if r.Refs("s1") != 2 {
		t.Errorf("Refs = %d, want 2", r.Refs("s1"))
	}

	r.Remove("s1")
	if r.Len() != 1 {
		t.Error("sheet removed while still referenced")
	}
	r.Remove("s1")
	if r.Len() != 0 || doc.Head.FirstChild != nil {
		t.Errorf("sheet not removed: %s", dom.Render(doc.Head))
	}
	r.Remove("unknown")
}

func TestRegistryWritesScopedCSS(t *testing.T) {
	doc := dom.NewDocument()
	r := NewRegistry(doc.Head)
	if _, err := r.Inject("p{x:y}", "z"); err != nil {
		t.Fatal(err)
	}
	want := `<head><style data-scope="z">[data-scope="z"] p,[data-scope="z"]p{x:y}</style></head>`
	if got := dom.Render(doc.Head); got != want {
		t.Errorf("head = %s, want %s", got, want)
	}
}
