// Package middleware provides the HTTP middleware chain along with request
// logging, metrics, and CORS middleware.
package middleware

import "net/http"

// Func wraps an http.Handler with additional behavior.
type Func = func(http.Handler) http.Handler

// Chain is an ordered middleware stack. The first middleware added is the
// outermost when applied.
type Chain struct {
	stack []Func
}

// New creates an empty Chain.
func New() *Chain {
	return &Chain{}
}

// Use appends middleware to the chain.
func (c *Chain) Use(fns ...Func) {
	c.stack = append(c.stack, fns...)
}

// Len returns the number of middleware in the chain.
func (c *Chain) Len() int {
	return len(c.stack)
}

// Apply wraps handler with every middleware in the chain.
func (c *Chain) Apply(handler http.Handler) http.Handler {
	for i := len(c.stack) - 1; i >= 0; i-- {
		handler = c.stack[i](handler)
	}
	return handler
}
