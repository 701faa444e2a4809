// Package events carries review session lifecycle events.
//
// Services emit ReviewEvents through an EventEmitter without knowing who
// consumes them. InMemoryEventEmitter fans events out to registered
// handlers in-process; internal/platform/redis publishes them to a Redis
// channel for other processes.
package events
