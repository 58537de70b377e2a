// Package ktest provides a deterministic harness for component tests.
//
// A Harness owns a manually driven loop, an isolated scheduler, a headless
// document, and a patch collaborator that counts patch passes. Nothing runs
// until the test calls Flush or Advance.
//
//	func TestCounter(t *testing.T) {
//	    h := ktest.New()
//	    c := NewCounter(h.Option())
//	    h.Mount(t, c)
//	    h.ExpectText(t, "Count: 0")
//
//	    c.Increment()
//	    h.Flush()
//	    h.ExpectText(t, "Count: 1")
//	    h.ExpectPatches(t, 1)
//	}
package ktest
