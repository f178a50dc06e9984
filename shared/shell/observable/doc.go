// Package observable decorates command handlers with metrics, tracing and
// logging. The wrapper translates the handler's explicit result metadata into
// counters and spans while delegating all business logic to the wrapped
// handler; every collector is optional and a missing one costs nothing.
package observable
