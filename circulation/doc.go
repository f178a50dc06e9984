// Package circulation contains the core domain model of the circulation and
// fine ledger: book copies, loans, reservations, fines and their audit
// records, together with the contracts the storage engines and the
// orchestrating feature slices are built against.
//
// The package is dependency-free with respect to infrastructure: it defines
// what a unit of work, a borrowing-rules provider, a logger or a metrics
// collector must look like, while the engines under circulation/postgresengine
// and circulation/memoryengine provide the implementations.
package circulation
