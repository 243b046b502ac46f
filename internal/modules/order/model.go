// README: Order projection, status labels, and actor roles.
package order

import "errors"

// Status labels form an open set: any label gets its own index. The named
// ones drive the fixed query paths and the lifecycle rules below.
const (
	StatusPending    = "pending"
	StatusDelivering = "delivering"
	StatusDelivered  = "delivered"
	// StatusCompleted is terminal: its arrival deletes the projection and
	// the order's chat log.
	StatusCompleted = "completed"
)

// riderAssignedStatuses are the statuses at or past rider assignment. Only
// these may write the rider field; earlier statuses must not overwrite a
// real rider id with a default.
var riderAssignedStatuses = map[string]bool{
	StatusDelivering: true,
	StatusDelivered:  true,
}

func riderAssigned(status string) bool {
	return riderAssignedStatuses[status]
}

// activeStatuses back the fixed user/rider list endpoints.
var activeStatuses = []string{StatusDelivering, StatusDelivered}

// openStatuses back the order-count endpoint.
var openStatuses = []string{StatusPending, StatusDelivering, StatusDelivered}

// Projection is the denormalized current-state view of an order,
// reconstructed from its parallel attribute fields.
type Projection struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	UserID  string `json:"userId"`
	RiderID string `json:"riderId,omitempty"`
	Body    string `json:"messageBody"`
}

// Role selects which projection field an actor query filters on. It is a
// closed enumeration: ParseRole is the only way in from the outside.
type Role string

const (
	RoleUser  Role = "USER"
	RoleRider Role = "RIDER"
)

var ErrInvalidRole = errors.New("invalid role")

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleRider:
		return RoleRider, nil
	}
	return "", ErrInvalidRole
}

func (r Role) actorID(p Projection) string {
	if r == RoleRider {
		return p.RiderID
	}
	return p.UserID
}
