package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating описывает оценку по завершённой сделке. На сделку допускается
// ровно одна оценка (uq по deal_id): оценить может только одна из сторон,
// кто успел первым. Это осознанное правило площадки, а не упущение.
type Rating struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DealID    uuid.UUID `db:"deal_id" json:"deal_id"`
	FromUser  uuid.UUID `db:"from_user" json:"from_user"`
	ToUser    uuid.UUID `db:"to_user" json:"to_user"`
	Stars     int       `db:"stars" json:"stars"`
	Text      *string   `db:"text" json:"text,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
