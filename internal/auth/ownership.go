package auth

import "github.com/google/uuid"

// Owns reports whether the acting user is the owner of a resource.
// Both identifiers are normalized to canonical UUID string form before
// comparing; comparing heterogeneous representations directly would
// never match and silently disable the check.
func Owns(ownerID, actorID string) bool {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return false
	}
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return false
	}
	return owner.String() == actor.String()
}
