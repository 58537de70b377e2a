// Package demo holds the example application served by the kinetic CLI.
//
// App composes three components that between them use every runtime
// feature: Counter (fields, watchers, computed values, scoped styles,
// batched writes), Clock (loop timers released through Subscribe), and
// Widget (an externally managed node kept alive across re-renders). The
// children live in preserved regions of the App's tree.
package demo
