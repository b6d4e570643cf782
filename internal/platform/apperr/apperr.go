package apperr

import "errors"

// Sentinels for the failure taxonomy every core operation translates into
// before returning across its boundary.
var (
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an absent entity.
	ErrNotFound = errors.New("not found")
	// ErrAccessDenied marks a role that the accessibility rule rejects.
	ErrAccessDenied = errors.New("access denied")
	// ErrRoleNotSet marks a requester whose profile has no role yet.
	ErrRoleNotSet = errors.New("role not set")
	// ErrIntegrity marks a content hash mismatch. Never retried.
	ErrIntegrity = errors.New("integrity check failed")
	// ErrAttestation marks a ledger that is unreachable or rejected the call.
	ErrAttestation = errors.New("ledger attestation failed")
	// ErrStorage marks an unexpected persistence failure.
	ErrStorage = errors.New("storage failure")
)
