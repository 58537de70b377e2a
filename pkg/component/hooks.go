package component

import (
	"context"

	"github.com/vango-dev/kinetic/pkg/reactive"
	"github.com/vango-dev/kinetic/pkg/vdom"
)

// Renderer is implemented by every component. Render returns the tree for
// the current props and state.
type Renderer interface {
	Render() *vdom.VNode
}

// Props are the externally supplied inputs of a component.
type Props map[string]any

// State is a snapshot of reactive field values by name.
type State = reactive.State

// Optional hooks. Base detects them on the embedding value with a type
// assertion; a component implements only the ones it needs.

// BeforeMounter runs before the first render. Field writes inside it only
// store, so the first render already reflects them.
type BeforeMounter interface {
	BeforeMount(ctx context.Context) error
}

// Mounter runs after the root has been attached to its container.
type Mounter interface {
	OnMount(ctx context.Context) error
}

// BeforeUpdater runs before each re-render.
type BeforeUpdater interface {
	BeforeUpdate(ctx context.Context) error
}

// AfterUpdater runs after each patch, once refs are resolved.
type AfterUpdater interface {
	AfterUpdate()
}

// UpdateDecider can veto the DOM sync of an update. It receives the props
// and state of the last render.
type UpdateDecider interface {
	ShouldUpdate(prevProps Props, prevState State) bool
}

// BeforeUnmounter runs first during unmount, while the root is attached.
type BeforeUnmounter interface {
	BeforeUnmount()
}

// Unmounter runs last during unmount, after the root is detached.
type Unmounter interface {
	OnUnmount()
}

// Styler returns CSS to inject while the component is mounted. Selectors are
// scoped to the component's root.
type Styler interface {
	Styles() string
}

// ErrorHandler receives every failure of the component's lifecycle. When
// present, the failure is considered handled and is not returned to the
// caller.
type ErrorHandler interface {
	OnError(err error, info ErrorInfo)
}

// ErrorInfo identifies where a failure happened.
type ErrorInfo struct {
	Component string
	Phase     Phase
}

// Phase names a lifecycle step for error reporting.
type Phase string

const (
	PhaseBeforeMount   Phase = "before-mount"
	PhaseRender        Phase = "render"
	PhaseMount         Phase = "mount"
	PhaseBeforeUpdate  Phase = "before-update"
	PhasePatch         Phase = "patch"
	PhaseAfterUpdate   Phase = "after-update"
	PhaseBeforeUnmount Phase = "before-unmount"
	PhaseCleanup       Phase = "cleanup"
	PhaseUnmount       Phase = "unmount"
	PhaseCallback      Phase = "callback"
)

// Status is the lifecycle state of an instance.
type Status uint8

const (
	StatusUnmounted Status = iota
	StatusInitializing
	StatusMounted
	StatusUpdating
	StatusUnmounting
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusUnmounted:
		return "unmounted"
	case StatusInitializing:
		return "initializing"
	case StatusMounted:
		return "mounted"
	case StatusUpdating:
		return "updating"
	case StatusUnmounting:
		return "unmounting"
	default:
		return "unknown"
	}
}
