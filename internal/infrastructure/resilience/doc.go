// Package resilience implements a three-state circuit breaker (closed,
// open, half-open) used to guard remote storage backends. An open
// breaker fails requests immediately instead of letting a dead backend
// stall every snapshot save.
//
//	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
package resilience
