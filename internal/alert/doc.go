// Package alert evaluates the threshold policy and dispatches best-effort
// webhook notifications for readings that breach it.
//
// Evaluation ([Thresholds.Exceeded]) is a pure predicate kept separate
// from delivery ([Notifier]), so the ingestion path can decide
// synchronously and hand off dispatch without waiting on network I/O.
// Delivery is at-most-once: failures are logged and dropped, never
// retried, never surfaced to the producer.
package alert
