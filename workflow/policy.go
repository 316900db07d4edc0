package workflow

// Role discriminates actors. Stored on the users table.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleDelegate   Role = "delegate"
	RoleUser       Role = "user"
)

// ParseRole returns the matching role, or false for anything unknown.
func ParseRole(v string) (Role, bool) {
	switch r := Role(v); r {
	case RoleAdmin, RoleSupervisor, RoleDelegate, RoleUser:
		return r, true
	}
	return "", false
}

// Action names an operation a caller wants to perform on an order.
type Action string

const (
	ActionView                Action = "view"
	ActionViewContracts       Action = "view_contracts"
	ActionClaim               Action = "claim"
	ActionRelease             Action = "release"
	ActionAssignDelegate      Action = "assign_delegate"
	ActionUpdateStatus        Action = "update_status"
	ActionPatch               Action = "patch"
	ActionRequestCancellation Action = "request_cancellation"
	ActionRespondCancellation Action = "respond_cancellation"
	ActionOpenDataRequest     Action = "open_data_request"
	ActionRespondDataRequest  Action = "respond_data_request"
	ActionReplyDataRequest    Action = "reply_data_request"
	ActionCloseDataRequest    Action = "close_data_request"
	ActionEditDataRequest     Action = "edit_data_request"
	ActionReview              Action = "review"
)

// Caller is the authenticated actor.
type Caller struct {
	UserID uint
	Role   Role
}

// OrderRef carries the order attributes the policy depends on.
type OrderRef struct {
	ClientID     uint
	SupervisorID *uint
	DelegateID   *uint
}

func (o OrderRef) claimed() bool {
	return o.SupervisorID != nil
}

func (c Caller) isClient(o OrderRef) bool {
	return c.Role == RoleUser && o.ClientID == c.UserID
}

func (c Caller) isClaimOwner(o OrderRef) bool {
	return c.Role == RoleSupervisor && o.SupervisorID != nil && *o.SupervisorID == c.UserID
}

func (c Caller) isAssignedDelegate(o OrderRef) bool {
	return c.Role == RoleDelegate && o.DelegateID != nil && *o.DelegateID == c.UserID
}

// Authorize is the single access decision for order-scoped actions. It
// returns nil when allowed, otherwise a *Error.
//
// Once an order is claimed, only the claiming supervisor or an admin may
// mutate it.
func Authorize(c Caller, o OrderRef, a Action) error {
	switch a {
	case ActionView:
		if c.Role == RoleAdmin || c.isClient(o) || c.isClaimOwner(o) || c.isAssignedDelegate(o) {
			return nil
		}
		if c.Role == RoleSupervisor && !o.claimed() {
			return nil
		}
		return ErrForbidden

	case ActionViewContracts:
		if c.Role == RoleAdmin || c.isClient(o) || c.isClaimOwner(o) || c.isAssignedDelegate(o) {
			return nil
		}
		return ErrForbidden

	case ActionClaim:
		if c.Role != RoleSupervisor {
			return Forbidden("FORBIDDEN", "Only supervisors can claim orders")
		}
		if o.claimed() {
			return ErrAlreadyClaimed
		}
		return nil

	case ActionPatch:
		// An unclaimed order may be patched by a supervisor, but only to
		// claim it; the caller enforces that restriction on the fields.
		if c.Role == RoleSupervisor && !o.claimed() {
			return nil
		}
		return requireOwner(c, o)

	case ActionRelease, ActionAssignDelegate, ActionRespondCancellation,
		ActionOpenDataRequest, ActionReplyDataRequest, ActionCloseDataRequest:
		return requireOwner(c, o)

	case ActionUpdateStatus:
		if c.isAssignedDelegate(o) {
			return nil
		}
		return requireOwner(c, o)

	case ActionRequestCancellation, ActionRespondDataRequest, ActionReview:
		if c.isClient(o) {
			return nil
		}
		return ErrForbidden

	case ActionEditDataRequest:
		if c.Role == RoleAdmin {
			return nil
		}
		return ErrForbidden
	}
	return ErrForbidden
}

func requireOwner(c Caller, o OrderRef) error {
	if c.Role == RoleAdmin || c.isClaimOwner(o) {
		return nil
	}
	if c.Role == RoleSupervisor {
		if o.claimed() {
			return ErrNotClaimOwner
		}
		return Forbidden("CLAIM_REQUIRED", "Claim the order before acting on it")
	}
	return ErrForbidden
}
