// Package httpclient provides a small HTTP client built around a bounded-retry
// executor: every request is issued at most a fixed number of times, each
// attempt under its own deadline, and exactly one terminal outcome is returned.
//
// Attempts
//   - Controlled per call via Policy{Timeout, MaxAttempts} (Execute) or per
//     client via Builder.WithTimeout / Builder.WithMaxAttempts (Get, Post, Do...).
//   - Timeout is applied to each attempt independently, body read included.
//   - Attempts are strictly sequential and follow each other without backoff.
//
// Failures
//   - timeout: the attempt deadline elapsed before a full response arrived.
//   - server_rejected: a response arrived with a non-2xx status.
//   - transport: the connection failed before the deadline.
//   - parse: Execute only; a 2xx response body was not valid JSON.
//
// All four are retried. When the last attempt fails an *ExhaustedError is
// returned carrying that attempt's error only; earlier errors are reported
// to the AttemptObserver and the log but not retained. Validation and
// interceptor errors are returned immediately without retrying.
//
// Notes
//   - Request bodies are re-sent by rebuilding the http.Request on each attempt.
//   - Every attempt of one call carries the same X-Request-ID.
package httpclient
