package reactive

import (
	"errors"
	"reflect"
	"testing"

	kerrors "github.com/vango-dev/kinetic/internal/errors"
)

type fakeHost struct {
	mounted  bool
	requests []string
}

func (h *fakeHost) IsMounted() bool          { return h.mounted }
func (h *fakeHost) RequestUpdate(key string) { h.requests = append(h.requests, key) }

type gauge struct {
	scope *Scope
	value *Field[int]
	label *Field[string]
	items *Field[[]string]

	calls      []string
	totalCalls int
}

func (g *gauge) OnValue(newValue, oldValue int) {
	g.calls = append(g.calls, "first")
	_ = newValue
	_ = oldValue
}

func (g *gauge) Total() int {
	g.totalCalls++
	return g.value.Get() + len(g.items.Get())
}

func (g *gauge) Bad(x int) int { return x }

var (
	gaugeType = Define[gauge]("gauge")
	gaugeLog  [][2]int
)

func init() {
	if err := gaugeType.WatchMethod("value", "OnValue"); err != nil {
		panic(err)
	}
	if err := Watch(gaugeType, "value", "second", func(g *gauge, newValue, oldValue int) {
		g.calls = append(g.calls, "second")
		gaugeLog = append(gaugeLog, [2]int{newValue, oldValue})
	}); err != nil {
		panic(err)
	}
	if err := gaugeType.ComputedMethod("Total"); err != nil {
		panic(err)
	}
}

func newGauge(host Host) *gauge {
	g := &gauge{}
	g.scope = NewScope(g, host, nil)
	g.value = NewField(g.scope, "value", 0)
	g.label = NewField(g.scope, "label", "")
	g.items = NewField[[]string](g.scope, "items", nil)
	g.scope.EndInit()
	return g
}

func TestDefineIsIdempotent(t *testing.T) {
	if Define[gauge]("other") != gaugeType {
		t.Fatal("Define should return the existing table")
	}
	if TypeOf(&gauge{}) != gaugeType {
		t.Error("TypeOf should resolve the instance type")
	}
	if TypeOf(gauge{}) != nil || TypeOf(nil) != nil {
		t.Error("TypeOf should only match the registered pointer type")
	}
}

func TestWatchersRunInOrderWithNewAndOld(t *testing.T) {
	host := &fakeHost{mounted: true}
	g := newGauge(host)
	gaugeLog = nil

	g.value.Set(5)

	if !reflect.DeepEqual(g.calls, []string{"first", "second"}) {
		t.Errorf("calls = %v, want [first second]", g.calls)
	}
	if !reflect.DeepEqual(gaugeLog, [][2]int{{5, 0}}) {
		t.Errorf("watcher args = %v, want [[5 0]]", gaugeLog)
	}
	if !reflect.DeepEqual(host.requests, []string{"value"}) {
		t.Errorf("requests = %v", host.requests)
	}
	if got := gaugeType.Watchers("value"); !reflect.DeepEqual(got, []string{"OnValue", "second"}) {
		t.Errorf("Watchers = %v", got)
	}
}

func TestSameValueIsNoop(t *testing.T) {
	host := &fakeHost{mounted: true}
	g := newGauge(host)
	items := []string{"a"}
	g.items.Set(items)
	g.value.Set(3)
	_ = Read[int](g.scope, "Total")
	g.calls = nil
	host.requests = nil
	before := g.totalCalls

	g.value.Set(3)
	g.items.Set(items)

	if len(g.calls) != 0 {
		t.Errorf("watchers fired: %v", g.calls)
	}
	if len(host.requests) != 0 {
		t.Errorf("update requested: %v", host.requests)
	}
	_ = Read[int](g.scope, "Total")
	if g.totalCalls != before {
		t.Error("computed slot was invalidated by an identical write")
	}
}

func TestInPlaceMutationNotObserved(t *testing.T) {
	host := &fakeHost{mounted: true}
	g := newGauge(host)
	items := []string{"a", "b"}
	g.items.Set(items)
	host.requests = nil

	items[0] = "z"
	g.items.Set(items)
	if len(host.requests) != 0 {
		t.Error("in-place mutation should not be a change")
	}

	g.items.Set(append([]string(nil), items...))
	if len(host.requests) != 1 {
		t.Error("a new slice should be a change")
	}
}

func TestInitializingWindowOnlyStores(t *testing.T) {
	host := &fakeHost{mounted: true}
	g := &gauge{}
	g.scope = NewScope(g, host, nil)
	g.value = NewField(g.scope, "value", 0)
	g.items = NewField[[]string](g.scope, "items", nil)

	g.value.Set(9)
	if g.value.Get() != 9 {
		t.Error("write during init should store")
	}
	if len(g.calls) != 0 || len(host.requests) != 0 {
		t.Error("write during init should have no side effects")
	}

	g.scope.EndInit()
	if g.scope.Initializing() {
		t.Error("EndInit should close the window")
	}
	if Read[int](g.scope, "Total") != 9 {
		t.Error("computed should see initial writes")
	}
}

func TestNoUpdateWhenHostNotMounted(t *testing.T) {
	host := &fakeHost{}
	g := newGauge(host)
	g.value.Set(1)
	if g.value.Get() != 1 {
		t.Error("value not stored")
	}
	if len(host.requests) != 0 {
		t.Error("unmounted host should not be asked to update")
	}
	if len(g.calls) != 2 {
		t.Error("watchers still run when the host is not mounted")
	}
}

func TestComputedRunsOncePerWrite(t *testing.T) {
	g := newGauge(&fakeHost{mounted: true})

	g.value.Set(4)
	for i := 0; i < 3; i++ {
		if got := Read[int](g.scope, "Total"); got != 4 {
			t.Fatalf("Total = %d, want 4", got)
		}
	}
	if g.totalCalls != 1 {
		t.Errorf("getter ran %d times for 3 reads, want 1", g.totalCalls)
	}

	g.label.Set("unrelated")
	Read[int](g.scope, "Total")
	Read[int](g.scope, "Total")
	if g.totalCalls != 2 {
		t.Errorf("any field write should invalidate, getter ran %d times", g.totalCalls)
	}
}

func TestNewComputed(t *testing.T) {
	g := newGauge(&fakeHost{})
	runs := 0
	c := NewComputed(g.scope, func() string {
		runs++
		return g.label.Get() + "!"
	})
	if !c.Dirty() {
		t.Error("new slot should be dirty")
	}
	g.label.Set("hi")
	c.Get()
	if c.Get() != "hi!" || runs != 1 {
		t.Errorf("Get = %q after %d runs", c.Get(), runs)
	}
	g.value.Set(1)
	if !c.Dirty() {
		t.Error("write should dirty instance slots")
	}
	g.scope.Reset()
	if c.Get() != "hi!" || runs != 2 {
		t.Error("Reset should force a recompute")
	}
}

func TestComputedMethodRejectsNonGetter(t *testing.T) {
	err := gaugeType.ComputedMethod("Bad")
	if !errors.Is(err, kerrors.ErrNotGetter) {
		t.Errorf("ComputedMethod(Bad) = %v, want ErrNotGetter", err)
	}
	if err := gaugeType.ComputedMethod("Missing"); !errors.Is(err, kerrors.ErrNotGetter) {
		t.Errorf("ComputedMethod(Missing) = %v, want ErrNotGetter", err)
	}
	if err := DefineComputed[gauge, int](gaugeType, "nil", nil); !errors.Is(err, kerrors.ErrNotGetter) {
		t.Errorf("DefineComputed(nil) = %v", err)
	}
}

func TestWatchMethodValidatesSignature(t *testing.T) {
	if err := gaugeType.WatchMethod("value", "Total"); !kerrors.HasCode(err, kerrors.CodeInvalidWatcher) {
		t.Errorf("WatchMethod(Total) = %v, want E201", err)
	}
	if err := gaugeType.WatchMethod("value", "Nope"); !kerrors.HasCode(err, kerrors.CodeInvalidWatcher) {
		t.Errorf("WatchMethod(Nope) = %v, want E201", err)
	}
}

type flaky struct {
	scope *Scope
	v     *Field[int]
	ran   []string
}

var flakyType = Define[flaky]("flaky")

func init() {
	_ = Watch(flakyType, "v", "panics", func(f *flaky, _, _ int) {
		f.ran = append(f.ran, "panics")
		panic("watcher exploded")
	})
	_ = Watch(flakyType, "v", "after", func(f *flaky, _, _ int) {
		f.ran = append(f.ran, "after")
	})
}

func TestWatcherPanicIsIsolated(t *testing.T) {
	host := &fakeHost{mounted: true}
	f := &flaky{}
	f.scope = NewScope(f, host, nil)
	f.v = NewField(f.scope, "v", 0)
	f.scope.EndInit()

	f.v.Set(1)
	if !reflect.DeepEqual(f.ran, []string{"panics", "after"}) {
		t.Errorf("ran = %v", f.ran)
	}
	if len(host.requests) != 1 {
		t.Error("update should still be requested after a failing watcher")
	}
}

func TestScopeByName(t *testing.T) {
	g := newGauge(&fakeHost{})
	if err := g.scope.Set("value", 7); err != nil {
		t.Fatal(err)
	}
	if err := g.scope.Set("items", nil); err != nil {
		t.Fatal(err)
	}
	if err := g.scope.Set("missing", 1); !errors.Is(err, kerrors.ErrUnknownField) {
		t.Errorf("unknown field err = %v", err)
	}
	if err := g.scope.Set("value", "seven"); !errors.Is(err, kerrors.ErrFieldType) {
		t.Errorf("type mismatch err = %v", err)
	}

	snap := g.scope.Snapshot()
	if snap["value"] != 7 || snap["label"] != "" {
		t.Errorf("Snapshot = %v", snap)
	}
	if v, ok := g.scope.Get("value"); !ok || v != 7 {
		t.Errorf("Get(value) = %v, %v", v, ok)
	}
	if !reflect.DeepEqual(g.scope.Names(), []string{"value", "label", "items"}) {
		t.Errorf("Names = %v", g.scope.Names())
	}
}

func TestSame(t *testing.T) {
	s := []int{1, 2}
	m := map[string]int{}
	p := &struct{}{}
	fn := func() {}
	type pair struct{ a, b int }
	type holder struct{ v any }

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"nil nil", nil, nil, true},
		{"nil value", nil, 0, false},
		{"ints", 1, 1, true},
		{"different types", 1, int64(1), false},
		{"strings", "a", "b", false},
		{"same slice", s, s, true},
		{"resliced", s, s[:1], false},
		{"copied slice", s, append([]int(nil), s...), false},
		{"same map", m, m, true},
		{"other map", m, map[string]int{}, false},
		{"same pointer", p, p, true},
		{"funcs", fn, fn, false},
		{"structs", pair{1, 2}, pair{1, 2}, true},
		{"uncomparable inside interface", holder{[]int{}}, holder{[]int{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Same(tt.a, tt.b); got != tt.want {
				t.Errorf("Same(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
