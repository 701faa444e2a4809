// Package api exposes the review engine over HTTP. Handlers translate
// requests into calls on the queue selector, session manager and
// statistics aggregator, and render their results as JSON with no
// additional envelope.
package api
