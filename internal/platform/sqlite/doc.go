// Package sqlite implements the review store on an embedded SQLite database
// (modernc.org/sqlite, no cgo). It suits single-node deployments, local
// development and tests. Timestamps are stored as INTEGER unix milliseconds
// so that due-date comparisons are numeric.
package sqlite
