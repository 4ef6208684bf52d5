package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and boundary clients return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record, timeline entry or document does not exist
// - ErrConflict: unique constraint hit (e.g. concurrent duplicate save)
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: external service or resource temporarily unavailable
// - ErrSignTimeout: the signing authority did not answer within the deadline;
//   its own state is unknown, so never fold this into ErrUnavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrSignTimeout  = errors.New("signing timed out")
)
