package models

import (
	"time"

	"github.com/google/uuid"
)

// Dispute описывает спор покупателя с продавцом по объявлению.
// Уникальности нет: по одному объявлению может накопиться несколько споров.
type Dispute struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ListingID      uuid.UUID `db:"listing_id" json:"listing_id"`
	BuyerID        uuid.UUID `db:"buyer_id" json:"buyer_id"`
	SellerID       uuid.UUID `db:"seller_id" json:"seller_id"`
	Reason         string    `db:"reason" json:"reason"`
	EvidenceFileID *string   `db:"evidence_file_id" json:"evidence_file_id,omitempty"`
	Status         string    `db:"status" json:"status"`
	AdminNotes     *string   `db:"admin_notes" json:"admin_notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
