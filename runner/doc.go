// Package runner executes batches of customer-service sessions.
//
// A Runner walks the customer records of a domain, builds one session per
// record through a SessionFactory, and runs them with bounded concurrency.
// Customers whose trajectory file already exists are skipped, which makes an
// interrupted batch resumable. A single failing session is logged and counted
// but never aborts the batch.
//
// See runner.go for the operational implementation details.
package runner
