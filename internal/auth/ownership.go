package auth

// RequireOwner fails with ErrForbidden unless the caller owns the resource.
// Callers must have confirmed the resource exists first.
func RequireOwner(ownerID, callerID int64) error {
	if ownerID != callerID {
		return ErrForbidden
	}
	return nil
}
