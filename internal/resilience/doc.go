// Package resilience provides fault tolerance patterns for remote calls.
//
// The circuitbreaker subpackage wraps github.com/sony/gobreaker so that a sick
// upstream fails fast instead of stalling every date of a walk. Requests are
// never retried: an expected "not found" answer counts as a success and does
// not move the breaker towards open.
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.PageFetchConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return fetchPage()
//	})
package resilience
