package auth

import "github.com/sakif/reactgram/internal/apperror"

// IsOwner reports whether callerID owns a resource recorded as ownerID.
// Exact equality; an empty owner never matches.
func IsOwner(ownerID, callerID string) bool {
	return ownerID != "" && ownerID == callerID
}

// RequireOwner returns a Forbidden error with message unless callerID
// owns the resource. Existence must be checked before calling this, so a
// missing resource still reports 404 rather than 403.
func RequireOwner(ownerID, callerID, message string) error {
	if IsOwner(ownerID, callerID) {
		return nil
	}
	return apperror.Forbidden(message)
}
