package enums

import "strings"

// OrderStatus tracks the payment-side lifecycle of an order. The
// client never drives transitions; it observes server state on
// re-fetch.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusProcessed OrderStatus = "processed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusUnknown   OrderStatus = "unknown"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusProcessed,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusFailed,
	OrderStatusExpired,
	OrderStatusUnknown,
}

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:   "Menunggu Pembayaran",
	OrderStatusPaid:      "Sudah Dibayar",
	OrderStatusProcessed: "Sedang Diproses",
	OrderStatusShipped:   "Sedang Dikirim",
	OrderStatusCompleted: "Selesai",
	OrderStatusCancelled: "Dibatalkan",
	OrderStatusFailed:    "Gagal",
	OrderStatusExpired:   "Kedaluwarsa",
	OrderStatusUnknown:   "Status Tidak Diketahui",
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are expected.
func (o OrderStatus) IsTerminal() bool {
	switch o {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusFailed, OrderStatusExpired:
		return true
	default:
		return false
	}
}

// Label returns the buyer-facing display text for the status.
func (o OrderStatus) Label() string {
	if label, ok := orderStatusLabels[o]; ok {
		return label
	}
	return orderStatusLabels[OrderStatusUnknown]
}

// ParseOrderStatus converts raw server input into an OrderStatus. It
// is total: unrecognized input degrades to OrderStatusUnknown instead
// of failing.
func ParseOrderStatus(value string) OrderStatus {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validOrderStatuses {
		if string(candidate) == normalized {
			return candidate
		}
	}
	return OrderStatusUnknown
}
