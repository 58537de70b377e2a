// Package errors provides structured errors for the runtime.
//
// Every error the runtime produces is an *Error with a registered code, a
// category from the failure taxonomy, and optionally the operation and
// component type involved:
//   - misuse: caller mistakes such as mounting without a container
//   - lifecycle: a hook returned an error or panicked
//   - render/patch: producing or applying a tree failed
//   - scheduler: a queued job failed (logged, never propagated)
//   - reactive: definition-time registry mistakes, unknown fields
//   - config: configuration loading and validation
//
// # Usage
//
//	err := errors.New(errors.CodeHookFailed).
//	    WithOp("Counter.BeforeMount").
//	    WithComponent("Counter").
//	    Wrap(cause)
//
//	if errors.Is(err, errors.ErrMissingContainer) { ... }
//	fmt.Println(err.Format())
package errors
