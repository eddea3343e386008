package models

// Типы приёма пищи.
const (
	MealTypeLunch  = "lunch"
	MealTypeDinner = "dinner"
)

// Статусы объявления.
const (
	ListingStatusActive    = "active"
	ListingStatusReserved  = "reserved"
	ListingStatusSold      = "sold"
	ListingStatusExpired   = "expired"
	ListingStatusCancelled = "cancelled"
)

// Статусы резерва.
const (
	ReservationStatusPending   = "pending"
	ReservationStatusCancelled = "cancelled"
	ReservationStatusPaid      = "paid"
	ReservationStatusApproved  = "approved"
	ReservationStatusRejected  = "rejected"
	ReservationStatusExpired   = "expired"
)

// Статусы платежа.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
)

// Статусы спора.
const (
	DisputeStatusOpen      = "open"
	DisputeStatusInReview  = "in_review"
	DisputeStatusResolved  = "resolved"
	DisputeStatusDismissed = "dismissed"
)

// OpenReservationStatuses - статусы, в которых резерв считается открытым.
// Именно по этому набору считаются лимиты покупателя и эксклюзивность объявления.
var OpenReservationStatuses = []string{
	ReservationStatusPending,
	ReservationStatusPaid,
	ReservationStatusApproved,
}

// IsValidMealType проверяет допустимость типа приёма пищи.
func IsValidMealType(mealType string) bool {
	return mealType == MealTypeLunch || mealType == MealTypeDinner
}
