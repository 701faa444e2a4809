// Package mocks provides centralized mock implementations for testing.
//
// Mocks follow one pattern: optional function fields override each method,
// otherwise a small thread-safe in-memory implementation answers the call.
// Error fields inject failures without writing a full override.
//
//	import "github.com/phrazzld/scry-review/internal/mocks"
//
//	func TestSomething(t *testing.T) {
//	    reviewStore := mocks.NewMockReviewStore()
//	    reviewStore.UpdateError = errors.New("disk full")
//	    // Use the mock in your test...
//	}
package mocks
