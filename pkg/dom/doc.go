// Package dom is the headless node layer the runtime renders into.
//
// Live nodes are golang.org/x/net/html nodes. Materialize turns a
// vdom.VNode tree into detached nodes, the query helpers locate elements by
// position or attribute, and Morph is the default patch collaborator that
// reconciles a live root against a freshly rendered tree.
package dom
