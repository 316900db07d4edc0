package workflow

// Kind classifies a workflow error so transports can map it to a status code.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindForbidden
	KindNotFound
	KindConflict
)

// Error is a domain error with a stable machine-readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on Code so callers can compare against the sentinels below
// even when the message was customised.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrForbidden           = &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: "You do not have permission to perform this action"}
	ErrNotClaimOwner       = &Error{Kind: KindForbidden, Code: "NOT_CLAIM_OWNER", Message: "This order is claimed by another supervisor"}
	ErrAlreadyClaimed      = &Error{Kind: KindConflict, Code: "ALREADY_CLAIMED", Message: "This order has already been claimed"}
	ErrInvalidTransition   = &Error{Kind: KindConflict, Code: "INVALID_TRANSITION", Message: "Status transition is not allowed"}
	ErrConcurrentUpdate    = &Error{Kind: KindConflict, Code: "CONFLICT", Message: "The order was modified by another request, reload and retry"}
	ErrOrderClosed         = &Error{Kind: KindConflict, Code: "ORDER_CLOSED", Message: "The order is already completed or cancelled"}
	ErrSupervisorRequired  = &Error{Kind: KindConflict, Code: "SUPERVISOR_REQUIRED", Message: "A delegate can only be assigned after a supervisor has claimed the order"}
	ErrOrderNotFound       = &Error{Kind: KindNotFound, Code: "ORDER_NOT_FOUND", Message: "Order not found"}
	ErrDataRequestNotFound = &Error{Kind: KindNotFound, Code: "DATA_REQUEST_NOT_FOUND", Message: "Data request not found"}
	ErrDataRequestLocked   = &Error{Kind: KindConflict, Code: "DATA_REQUEST_LOCKED", Message: "The data request can no longer be edited"}
)

// Validation builds a 400-class error.
func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// NotFound builds a 404-class error.
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// Conflict builds a 409-class error.
func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// Forbidden builds a 403-class error.
func Forbidden(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}
