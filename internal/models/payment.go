package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment описывает чек об оплате резерва. На один резерв приходится не
// более одного платежа: повторная отправка чека перезаписывает прежний.
type Payment struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	ReservationID uuid.UUID  `db:"reservation_id" json:"reservation_id"`
	Method        string     `db:"method" json:"method"`
	ProofFileID   string     `db:"proof_file_id" json:"proof_file_id"`
	Status        string     `db:"status" json:"status"`
	ReviewedBy    *uuid.UUID `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// PendingPayment - платёж в очереди модерации вместе с контекстом
// для отображения: резерв, объявление и покупатель.
type PendingPayment struct {
	Payment
	ReservationStatus string    `db:"reservation_status" json:"reservation_status"`
	ListingID         uuid.UUID `db:"listing_id" json:"listing_id"`
	DishName          string    `db:"dish_name" json:"dish_name"`
	Price             int       `db:"price" json:"price"`
	BuyerID           uuid.UUID `db:"buyer_id" json:"buyer_id"`
	BuyerTelegramID   int64     `db:"buyer_tg_id" json:"buyer_tg_id"`
	BuyerName         string    `db:"buyer_name" json:"buyer_name"`
}
