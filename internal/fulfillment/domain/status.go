// Package domain defines the order aggregate and the fulfillment state
// machine: statuses, transition operations, the audit trail and the error
// taxonomy. It has no dependencies beyond the standard library so the
// transition rules can be tested without storage or transport.
package domain

// Status is the lifecycle state of an order.
type Status string

const (
	StatusProcessing    Status = "processing"
	StatusApproved      Status = "approved"
	StatusBaking        Status = "baking"
	StatusReady         Status = "ready"
	StatusShipping      Status = "shipping"
	StatusDelivered     Status = "delivered"
	StatusCancelled     Status = "cancelled"
	StatusCannotDeliver Status = "cannot_deliver"
)

// statusNotes maps each status to the fixed audit annotation recorded when
// an order reaches it. The texts are part of the wire contract with the
// storefront and must not be reworded.
var statusNotes = map[Status]string{
	StatusProcessing:    "Đơn hàng đang được xử lý",
	StatusApproved:      "Đơn hàng đã được duyệt",
	StatusBaking:        "Bắt đầu làm bánh",
	StatusReady:         "Bánh đã sẵn sàng để giao",
	StatusShipping:      "Đang giao hàng",
	StatusDelivered:     "Đã giao hàng thành công",
	StatusCancelled:     "Đơn hàng đã bị hủy",
	StatusCannotDeliver: "Không thể giao hàng",
}

// AllStatuses returns the canonical enumeration in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusProcessing,
		StatusApproved,
		StatusBaking,
		StatusReady,
		StatusShipping,
		StatusDelivered,
		StatusCancelled,
		StatusCannotDeliver,
	}
}

// ParseStatus validates a raw status string against the canonical
// enumeration. Unknown values yield a ValidationError.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", E(KindValidation, "trạng thái không hợp lệ: "+s)
	}
	return st, nil
}

// Valid reports whether s is a member of the canonical enumeration.
func (s Status) Valid() bool {
	_, ok := statusNotes[s]
	return ok
}

// Terminal reports whether no transition originates from s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusCannotDeliver
}

// Note returns the fixed audit annotation for reaching s.
func (s Status) Note() string {
	return statusNotes[s]
}

func (s Status) String() string { return string(s) }
