package domain

import "errors"

// Sentinel errors distinguishable to callers. Storage failures are wrapped
// with fmt.Errorf("...: %w", err) and surfaced unchanged.
var (
	ErrNotFound            = errors.New("not found")
	ErrMissingDecisionDate = errors.New("opportunity has no decision date")
	ErrZeroEffortTimeline  = errors.New("timeline has zero total effort")
	ErrInvalidStatus       = errors.New("invalid resource status")
	ErrInvalidBucket       = errors.New("invalid bucket granularity")
	ErrNoTimeline          = errors.New("no timeline rows for opportunity")
	ErrNoMatchingRows      = errors.New("no timeline rows match selection")
)
