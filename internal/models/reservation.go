package models

import (
	"time"

	"github.com/google/uuid"
)

// Reservation описывает ограниченную по времени бронь объявления покупателем.
type Reservation struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ListingID     uuid.UUID `db:"listing_id" json:"listing_id"`
	BuyerID       uuid.UUID `db:"buyer_id" json:"buyer_id"`
	ReservedUntil time.Time `db:"reserved_until" json:"reserved_until"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ExpiringReservation - резерв, срок которого скоро истечёт, вместе с
// данными покупателя для отправки предупреждения.
type ExpiringReservation struct {
	Reservation
	BuyerTelegramID int64  `db:"buyer_tg_id" json:"buyer_tg_id"`
	BuyerName       string `db:"buyer_name" json:"buyer_name"`
}
