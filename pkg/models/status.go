package models

// Forward path of an order's life. Cancellation is reachable from every
// state so a refund can always land, even after delivery.
var orderTransitions = map[OrderStatus][]OrderStatus{
	ORDER_STATUS_PENDING:   {ORDER_STATUS_CONFIRMED, ORDER_STATUS_CANCELLED},
	ORDER_STATUS_CONFIRMED: {ORDER_STATUS_PREPARING, ORDER_STATUS_CANCELLED},
	ORDER_STATUS_PREPARING: {ORDER_STATUS_EN_ROUTE, ORDER_STATUS_CANCELLED},
	ORDER_STATUS_EN_ROUTE:  {ORDER_STATUS_DELIVERED, ORDER_STATUS_CANCELLED},
	ORDER_STATUS_DELIVERED: {ORDER_STATUS_CANCELLED},
	ORDER_STATUS_CANCELLED: {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransition reports whether from -> to is a legal move. Re-applying the
// current status is allowed so replayed events stay idempotent.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if !s.Valid() || !to.Valid() {
		return false
	}
	if s == to {
		return true
	}
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func ParseOrderStatus(raw string) (OrderStatus, bool) {
	s := OrderStatus(raw)
	return s, s.Valid()
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PAYMENT_STATUS_PENDING, PAYMENT_STATUS_APPROVED, PAYMENT_STATUS_DECLINED, PAYMENT_STATUS_FAILED:
		return true
	}
	return false
}
