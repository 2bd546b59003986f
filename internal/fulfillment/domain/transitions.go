package domain

import "time"

// Operation names a guarded transition of the workflow.
type Operation string

const (
	OpApprove           Operation = "approve"
	OpCancel            Operation = "cancel"
	OpStartBaking       Operation = "start-baking"
	OpCompleteBaking    Operation = "complete-baking"
	OpStartShipping     Operation = "start-shipping"
	OpMarkCannotDeliver Operation = "mark-cannot-deliver"
	OpMarkDelivered     Operation = "mark-delivered"

	// OpForceSetStatus is the administrative override. It is not an edge of
	// the state machine: it accepts any canonical status and skips the
	// precondition check.
	OpForceSetStatus Operation = "force-set-status"
)

type edge struct {
	from Status
	to   Status
}

// transitions is the complete edge table of the workflow. An operation is
// legal only when the order's current status equals the edge's precondition.
var transitions = map[Operation]edge{
	OpApprove:           {from: StatusProcessing, to: StatusApproved},
	OpCancel:            {from: StatusProcessing, to: StatusCancelled},
	OpStartBaking:       {from: StatusApproved, to: StatusBaking},
	OpCompleteBaking:    {from: StatusBaking, to: StatusReady},
	OpStartShipping:     {from: StatusReady, to: StatusShipping},
	OpMarkCannotDeliver: {from: StatusShipping, to: StatusCannotDeliver},
	OpMarkDelivered:     {from: StatusShipping, to: StatusDelivered},
}

// invalidTransitionMessages are the fixed, operation-specific texts returned
// when the precondition does not hold.
var invalidTransitionMessages = map[Operation]string{
	OpApprove:           "Chỉ có thể duyệt đơn hàng đang chờ xử lý",
	OpCancel:            "Chỉ có thể hủy đơn hàng đang chờ xử lý",
	OpStartBaking:       "Chỉ có thể bắt đầu làm bánh cho đơn hàng đã được duyệt",
	OpCompleteBaking:    "Chỉ có thể hoàn thành đơn hàng đang làm bánh",
	OpStartShipping:     "Chỉ có thể bắt đầu giao đơn hàng đã sẵn sàng",
	OpMarkCannotDeliver: "Chỉ có thể cập nhật đơn hàng đang được giao",
	OpMarkDelivered:     "Chỉ có thể cập nhật đơn hàng đang được giao",
}

// TransitionOperations returns the seven edge-guarded operations.
func TransitionOperations() []Operation {
	return []Operation{
		OpApprove,
		OpCancel,
		OpStartBaking,
		OpCompleteBaking,
		OpStartShipping,
		OpMarkCannotDeliver,
		OpMarkDelivered,
	}
}

// OperationEdge returns the precondition and resulting status of op. The
// second return is false for unknown operations and for OpForceSetStatus.
func OperationEdge(op Operation) (from, to Status, ok bool) {
	e, ok := transitions[op]
	return e.from, e.to, ok
}

// InvalidTransitionError returns the deterministic failure for invoking op
// against an order whose status does not match the precondition.
func InvalidTransitionError(op Operation) *Error {
	msg, ok := invalidTransitionMessages[op]
	if !ok {
		msg = "chuyển trạng thái không hợp lệ"
	}
	return E(KindInvalidTransition, msg)
}

// Transition applies op to the order in memory. On a precondition mismatch
// it returns InvalidTransition and leaves the order untouched. On success
// the status, derived delivered fields, UpdatedAt and the audit trail are
// all updated with the same timestamp.
func (o *Order) Transition(op Operation, actor Actor, now time.Time) error {
	e, ok := transitions[op]
	if !ok {
		return E(KindValidation, "thao tác không hợp lệ: "+string(op))
	}
	if o.Status != e.from {
		return InvalidTransitionError(op)
	}
	o.setStatus(e.to, actor, now)
	return nil
}

// ForceStatus applies the administrative override: any canonical target
// status, no precondition check. The delivered derived-field rule still
// applies in both directions, so forcing an order off delivered clears
// isDelivered and deliveredAt.
func (o *Order) ForceStatus(target Status, actor Actor, now time.Time) error {
	if !target.Valid() {
		return E(KindValidation, "trạng thái không hợp lệ: "+string(target))
	}
	o.setStatus(target, actor, now)
	return nil
}
