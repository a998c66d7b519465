// Package querylang detects, validates and composes Jira (JQL) and Confluence (CQL) queries.
//
// Every function in this package is a pure transformation of its arguments and holds no
// mutable state, so it is safe to call from any number of goroutines.
package querylang
