// Package services implements the business logic of the relay bridge:
// identity resolution, the two relay directions with edit propagation, and
// broadcast fan-out. This file centralizes common service-level error
// values so they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer; the
// dispatch layer decides which of them become operator-visible notices.
package services

import "errors"

var (
	// ErrTicketNotFound indicates that an operator reply references a
	// message with no corresponding ticket (never forwarded, or already
	// removed by retention).
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrEmptyBroadcast is returned when a broadcast is requested with no
	// message body.
	ErrEmptyBroadcast = errors.New("broadcast text is empty")

	// ErrLoopback is returned when an inbound message originates from the
	// operator channel itself and must not be relayed.
	ErrLoopback = errors.New("message originates from operator channel")
)
