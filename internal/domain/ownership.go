package domain

import "github.com/google/uuid"

// Owned is implemented by resources that only their creator may mutate.
type Owned interface {
	OwnedBy() uuid.UUID
}

func IsOwner(resource Owned, callerID uuid.UUID) bool {
	if resource == nil || callerID == uuid.Nil {
		return false
	}
	return resource.OwnedBy() == callerID
}

// AssertOwner returns a forbidden error carrying message when callerID does
// not own resource.
func AssertOwner(resource Owned, callerID uuid.UUID, message string) error {
	if IsOwner(resource, callerID) {
		return nil
	}
	return NewForbiddenError(message)
}
