// Package styles implements the style-injection collaborator.
//
// Components that produce CSS get a stylesheet scoped by the data-scope
// attribute convention: the component root carries data-scope="<id>" and
// every selector in the sheet is prefixed with [data-scope="<id>"].
package styles
