package workflow

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of an order. Only these codes are stored.
type Status string

const (
	StatusNew                 Status = "new"
	StatusAwaitingDelegate    Status = "awaiting_delegate"
	StatusInProgress          Status = "in_progress"
	StatusNeedsClientData     Status = "needs_client_data"
	StatusAwaitingClientReply Status = "awaiting_client_reply"
	StatusCompleted           Status = "completed"
	StatusCancelled           Status = "cancelled"
)

var allStatuses = []Status{
	StatusNew,
	StatusAwaitingDelegate,
	StatusInProgress,
	StatusNeedsClientData,
	StatusAwaitingClientReply,
	StatusCompleted,
	StatusCancelled,
}

// labels are the Arabic strings shown by the dashboards.
var labels = map[Status]string{
	StatusNew:                 "تعيين مشرف",
	StatusAwaitingDelegate:    "تعيين مندوب",
	StatusInProgress:          "تحت الإجراء",
	StatusNeedsClientData:     "مطلوب بيانات إضافية أو مرفقات",
	StatusAwaitingClientReply: "بانتظار رد العميل",
	StatusCompleted:           "تم الانتهاء بنجاح",
	StatusCancelled:           "ملغي",
}

// legacy values written by the old client-facing flow
var legacyStatuses = map[string]Status{
	"pending":     StatusNew,
	"new":         StatusNew,
	"in_progress": StatusInProgress,
	"completed":   StatusCompleted,
	"cancelled":   StatusCancelled,
	"canceled":    StatusCancelled,
}

// transitions lists every legal status change. Anything absent is rejected.
var transitions = map[Status][]Status{
	StatusNew: {
		StatusAwaitingDelegate,
		StatusCancelled,
	},
	StatusAwaitingDelegate: {
		StatusInProgress,
		StatusNew,
		StatusCancelled,
	},
	StatusInProgress: {
		StatusNeedsClientData,
		StatusAwaitingClientReply,
		StatusCompleted,
		StatusAwaitingDelegate,
		StatusCancelled,
	},
	StatusNeedsClientData: {
		StatusAwaitingClientReply,
		StatusInProgress,
		StatusCancelled,
	},
	StatusAwaitingClientReply: {
		StatusNeedsClientData,
		StatusInProgress,
		StatusCompleted,
		StatusCancelled,
	},
}

// AllStatuses returns the closed set of status codes.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// Valid reports whether s is one of the known codes.
func (s Status) Valid() bool {
	_, ok := labels[s]
	return ok
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Label returns the presentation label for s, or the raw code if unknown.
func Label(s Status) string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// ParseStatus accepts a status code, an Arabic label or a legacy value.
func ParseStatus(value string) (Status, error) {
	v := strings.TrimSpace(value)
	if s := Status(v); s.Valid() {
		return s, nil
	}
	if s, ok := legacyStatuses[strings.ToLower(v)]; ok {
		return s, nil
	}
	for s, l := range labels {
		if l == v {
			return s, nil
		}
	}
	return "", Validation("INVALID_STATUS", fmt.Sprintf("Unknown order status %q", value))
}

// CanTransition reports whether from → to is in the transition table.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates from → to and returns an INVALID_TRANSITION error
// when the table does not allow it.
func Transition(from, to Status) error {
	if !to.Valid() {
		return Validation("INVALID_STATUS", fmt.Sprintf("Unknown order status %q", to))
	}
	if !CanTransition(from, to) {
		return &Error{
			Kind:    KindConflict,
			Code:    ErrInvalidTransition.Code,
			Message: fmt.Sprintf("Cannot move order from %s to %s", from, to),
		}
	}
	return nil
}

// manualTargets are the statuses each role may request directly through a
// status update. Assignment-driven states are only reached via claim,
// release and delegate assignment.
var manualTargets = map[Role][]Status{
	RoleAdmin: {
		StatusInProgress,
		StatusNeedsClientData,
		StatusAwaitingClientReply,
		StatusCompleted,
		StatusCancelled,
	},
	RoleSupervisor: {
		StatusInProgress,
		StatusNeedsClientData,
		StatusAwaitingClientReply,
		StatusCompleted,
	},
	RoleDelegate: {
		StatusCompleted,
	},
}

// CanSetManually reports whether role may request status to directly.
func CanSetManually(role Role, to Status) bool {
	for _, s := range manualTargets[role] {
		if s == to {
			return true
		}
	}
	return false
}
