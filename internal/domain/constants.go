package domain

const (
	PaymentStatusReady     = "READY"
	PaymentStatusCompleted = "COMPLETED"
)

// Fixed track pricing: every download costs 200 (currency smallest unit), one per order.
const (
	TrackPrice    = 200
	TrackQuantity = 1
	TaxFreeAmount = 0
)
