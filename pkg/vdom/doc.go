// Package vdom provides the declarative tree components render.
//
// VNode is the fundamental building block representing elements, text,
// fragments, nested render functions, and raw HTML. Props holds attributes.
// The runtime materializes trees into live nodes (package dom) and hands old
// and new trees to a patch collaborator (package reconcile).
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1(Text("Title")),
//	    P(Textf("Count: %d", count)),
//	    Div(Ref("chart"), Preserve("data-portal", "chart")),
//	)
//
// Ref names an element for lookup after render. Preserve marks an element
// whose children are mounted by code outside the component and must survive
// patches.
package vdom
