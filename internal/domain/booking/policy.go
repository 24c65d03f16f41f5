package booking

import (
	"github.com/google/uuid"

	"github.com/stablebook/service-booking/pkg/auth"
)

// Actor is the authenticated caller of a booking operation.
type Actor struct {
	UserID uuid.UUID
	Role   auth.Role
}

// CancelActorFor maps an actor's role to the recorded cancellation actor.
func CancelActorFor(role auth.Role) CancelActor {
	switch role {
	case auth.RoleOwner:
		return CancelledByOwner
	case auth.RoleAdmin:
		return CancelledByAdmin
	default:
		return CancelledByRider
	}
}

// CanCancel decides whether the actor may cancel the booking: the rider who
// made it, the operator of the stable it is at, or an admin.
func CanCancel(actor Actor, b *Booking, stableOwnerID uuid.UUID) bool {
	switch actor.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleOwner:
		return actor.UserID == stableOwnerID
	case auth.RoleRider:
		return actor.UserID == b.RiderID()
	default:
		return false
	}
}

// CanBlock decides whether the actor may block time at the stable: its
// operator or an admin.
func CanBlock(actor Actor, stableOwnerID uuid.UUID) bool {
	switch actor.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleOwner:
		return actor.UserID == stableOwnerID
	default:
		return false
	}
}
