// Package store defines the persistence contract of the review engine.
// The interfaces here keep queue selection, grading and statistics
// independent of the database behind them; implementations live under
// internal/platform.
package store
