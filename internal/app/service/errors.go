package service

import "errors"

// Classified caller errors of the allocation engine. They are returned
// unwrapped so callers can match them with errors.Is and surface them as is.
var (
	ErrInvalidTarget      = errors.New("invalid target shop")
	ErrInvalidCapacity    = errors.New("max intents must be positive")
	ErrListingNotFound    = errors.New("listing not found")
	ErrDuplicateInterest  = errors.New("shop already expressed interest in listing")
	ErrCapacityExceeded   = errors.New("listing capacity exceeded")
	ErrShopQuotaExceeded  = errors.New("shop public intent quota exceeded")
	ErrNotPending         = errors.New("assignment is not pending confirmation")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrMissingSpu         = errors.New("spu code required")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrAlreadyConfirmed   = errors.New("shop already confirmed listing")
	ErrInvalidReason      = errors.New("abandon reason required")
)
