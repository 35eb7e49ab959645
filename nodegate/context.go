package nodegate

import "context"

// invocationKey is the context.Context key under which the current
// InvocationContext is published (spec.md §9, SPEC_FULL.md §4: "a
// task-local... scoped binding acquired on entry and released on every
// exit path"). A context.Context value binding is exactly that: it is
// acquired by deriving a child context before calling the handler, and
// "released" simply by the child context falling out of scope when the
// call returns — there is nothing to explicitly clear, unlike a mutable
// thread-local on a shared worker.
type invocationKey struct{}

// WithInvocation publishes ictx onto goCtx for the duration of a single
// handler invocation.
func WithInvocation(goCtx context.Context, ictx *InvocationContext) context.Context {
	return context.WithValue(goCtx, invocationKey{}, ictx)
}

// InvocationFromContext retrieves the InvocationContext published by
// WithInvocation, if any.
func InvocationFromContext(goCtx context.Context) (*InvocationContext, bool) {
	ictx, ok := goCtx.Value(invocationKey{}).(*InvocationContext)
	return ictx, ok
}
