// Package component provides the lifecycle controller for reactive
// components.
//
// A component embeds *Base, declares its state as reactive fields on the
// Base's scope, and implements Render. Optional hook interfaces
// (BeforeMounter, Mounter, BeforeUpdater, AfterUpdater, UpdateDecider,
// BeforeUnmounter, Unmounter, Styler, ErrorHandler) are picked up by type
// assertion.
//
// # Lifecycle
//
//	unmounted -> initializing -> mounted -> (updating -> mounted)* -> unmounting -> unmounted
//
// Mount renders the first tree and appends it to a container. A field write
// on a mounted component schedules one update with the runtime's scheduler;
// further writes in the same task collapse into it. The update routine
// re-renders, patches through the reconciliation adapter, and carries
// preserved regions across the patch. Unmount is terminal.
//
// # Errors
//
// Every failing phase goes through one path: the error is logged and
// recorded, then handed to OnError if the component implements
// ErrorHandler. Without a handler, Mount and ForceUpdate return the error
// and scheduled updates surface it to the scheduler, which logs it and keeps
// flushing other components.
//
// # Threading
//
// A component belongs to the goroutine driving its runtime's loop. Code on
// other goroutines must hop onto the loop with loop.Loop.Submit.
package component
