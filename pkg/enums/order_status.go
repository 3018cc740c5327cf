package enums

import "fmt"

// OrderStatus tracks the checkout state machine for a rental order.
//
// draft -> allocating -> priced -> confirmed, with allocating/priced able to
// fall to rejected. Confirmed and rejected are terminal.
type OrderStatus string

const (
	OrderStatusDraft      OrderStatus = "draft"
	OrderStatusAllocating OrderStatus = "allocating"
	OrderStatusPriced     OrderStatus = "priced"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusRejected   OrderStatus = "rejected"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusDraft,
	OrderStatusAllocating,
	OrderStatusPriced,
	OrderStatusConfirmed,
	OrderStatusRejected,
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:      {OrderStatusAllocating},
	OrderStatusAllocating: {OrderStatusPriced, OrderStatusRejected},
	OrderStatusPriced:     {OrderStatusConfirmed, OrderStatusRejected},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Terminal reports whether the state admits no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusConfirmed || s == OrderStatusRejected
}

// CanTransitionTo reports whether the state machine allows moving to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
