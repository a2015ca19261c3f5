// Package audit records retrieval requests and user feedback.
//
// Query records are written fire-and-forget through a worker pool: a failed
// or slow audit write never delays or fails the retrieval that produced it.
// Feedback writes are synchronous and restricted to the caller who issued
// the query being rated.
package audit
