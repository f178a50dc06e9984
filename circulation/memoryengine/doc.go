// Package memoryengine provides an in-memory circulation.TxRunner with
// snapshot-based all-or-nothing transactions, intended for tests and demos.
package memoryengine
