package enums

import "strings"

// PickupStatus tracks per-outlet fulfillment progress. It is
// independent of the payment-side OrderStatus and only meaningful
// while an order is paid.
type PickupStatus string

const (
	PickupStatusProcess  PickupStatus = "process"
	PickupStatusReady    PickupStatus = "ready"
	PickupStatusPickedUp PickupStatus = "picked_up"
	PickupStatusUnknown  PickupStatus = "unknown"
)

var validPickupStatuses = []PickupStatus{
	PickupStatusProcess,
	PickupStatusReady,
	PickupStatusPickedUp,
	PickupStatusUnknown,
}

var pickupStatusLabels = map[PickupStatus]string{
	PickupStatusProcess:  "Pesanan Disiapkan",
	PickupStatusReady:    "Siap Diambil",
	PickupStatusPickedUp: "Sudah Diambil",
	PickupStatusUnknown:  "Status Tidak Diketahui",
}

// String implements fmt.Stringer.
func (p PickupStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PickupStatus.
func (p PickupStatus) IsValid() bool {
	for _, candidate := range validPickupStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// Label returns the buyer-facing display text for the status.
func (p PickupStatus) Label() string {
	if label, ok := pickupStatusLabels[p]; ok {
		return label
	}
	return pickupStatusLabels[PickupStatusUnknown]
}

// ParsePickupStatus converts raw server input into a PickupStatus.
// Unrecognized input degrades to PickupStatusUnknown.
func ParsePickupStatus(value string) PickupStatus {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPickupStatuses {
		if string(candidate) == normalized {
			return candidate
		}
	}
	return PickupStatusUnknown
}
