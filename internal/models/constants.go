package models

// Booking statuses.
const (
	StatusWaiting  = "WAITING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Booking list filters (the "state" query parameter).
const (
	StateAll      = "ALL"
	StateCurrent  = "CURRENT"
	StatePast     = "PAST"
	StateFuture   = "FUTURE"
	StateWaiting  = "WAITING"
	StateRejected = "REJECTED"
)

const (
	// HeaderUserID carries the acting principal on every scoped endpoint.
	HeaderUserID = "X-Sharer-User-Id"

	// DefaultPageSize applies when list endpoints omit the size parameter.
	DefaultPageSize = 10

	// WorkerQueueSize bounds the in-memory ledger task queue.
	WorkerQueueSize = 128

	// SearchCacheTTL is the lifetime of a cached search page in seconds.
	SearchCacheTTL = 5 * 60
)

// KnownState reports whether s (case-insensitive) is a recognized booking
// list filter. The gateway rejects unknown states; the engine itself treats
// them as ALL.
func KnownState(s string) bool {
	switch normalizeState(s) {
	case StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected:
		return true
	}
	return false
}
