// Package reconcile adapts rendered trees to the patch collaborator.
//
// Elements carrying a marker attribute from the adapter's allow-list host
// content that was mounted by code outside the owning component (charts,
// editors, portals). Apply detaches their children before the patch and
// reattaches them to the element with the same attribute and value
// afterwards, so a re-render never wipes them.
//
//	a := reconcile.New(dom.Morph{}, reconcile.WithPreserveAttrs("data-chart"))
//	root, err := a.Apply(container, oldTree, newTree, index)
package reconcile
