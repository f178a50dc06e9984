// Package reservebookcopy implements the Reserve Book Copy command use case.
package reservebookcopy
