// Package shell contains the infrastructure layer shared by the circulation
// features: retry with exponential backoff for row lock contention, handler
// result metadata, the post-commit notification dispatcher, the nightly job
// runner, reservation queue promotion, and observability helpers.
//
// Code in this package may talk to the outside world. Pure business logic
// lives in the circulation package and in shared/core.
package shell
