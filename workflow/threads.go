package workflow

import "fmt"

// DataRequestStatus is the lifecycle of a supervisor-to-client data request.
type DataRequestStatus string

const (
	DataRequestPending   DataRequestStatus = "pending"
	DataRequestResponded DataRequestStatus = "responded"
	DataRequestClosed    DataRequestStatus = "closed"
)

var dataRequestTransitions = map[DataRequestStatus][]DataRequestStatus{
	DataRequestPending:   {DataRequestResponded, DataRequestClosed},
	DataRequestResponded: {DataRequestClosed},
}

// DataRequestTransition validates from → to. Closed requests never reopen.
func DataRequestTransition(from, to DataRequestStatus) error {
	for _, next := range dataRequestTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &Error{
		Kind:    KindConflict,
		Code:    ErrInvalidTransition.Code,
		Message: fmt.Sprintf("Cannot move data request from %s to %s", from, to),
	}
}

// ThreadState exposes the replied sub-state, which the status column alone
// does not carry.
func ThreadState(status DataRequestStatus, hasSupervisorReply bool) string {
	if status == DataRequestResponded && hasSupervisorReply {
		return "replied"
	}
	return string(status)
}

// NotificationStatus tracks whether a recipient has handled a notification.
type NotificationStatus string

const (
	NotificationUnread       NotificationStatus = "unread"
	NotificationRead         NotificationStatus = "read"
	NotificationAcknowledged NotificationStatus = "acknowledged"
	NotificationDismissed    NotificationStatus = "dismissed"
)

var notificationTransitions = map[NotificationStatus][]NotificationStatus{
	NotificationUnread: {NotificationRead, NotificationAcknowledged, NotificationDismissed},
	NotificationRead:   {NotificationAcknowledged, NotificationDismissed},
}

// ParseNotificationStatus validates a status received from a client.
func ParseNotificationStatus(v string) (NotificationStatus, error) {
	switch s := NotificationStatus(v); s {
	case NotificationUnread, NotificationRead, NotificationAcknowledged, NotificationDismissed:
		return s, nil
	}
	return "", Validation("INVALID_STATUS", fmt.Sprintf("Unknown notification status %q", v))
}

// NotificationTransition validates from → to. Setting the same status is a no-op.
func NotificationTransition(from, to NotificationStatus) error {
	if from == to {
		return nil
	}
	for _, next := range notificationTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &Error{
		Kind:    KindConflict,
		Code:    ErrInvalidTransition.Code,
		Message: fmt.Sprintf("Cannot move notification from %s to %s", from, to),
	}
}

// Pending reports whether a notification still awaits action.
func (s NotificationStatus) Pending() bool {
	return s == NotificationUnread || s == NotificationRead
}
