package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает участника площадки. Один и тот же пользователь может
// выступать и продавцом, и покупателем.
type User struct {
	ID         uuid.UUID `db:"id" json:"id"`
	TelegramID int64     `db:"tg_id" json:"tg_id"`
	Name       string    `db:"name" json:"name"`
	Uni        string    `db:"uni" json:"uni"`
	RatingAvg  float64   `db:"rating_avg" json:"rating_avg"`
	RatingCnt  int       `db:"rating_cnt" json:"rating_cnt"`
	IsBanned   bool      `db:"is_banned" json:"is_banned"`
	IsAdmin    bool      `db:"is_admin" json:"is_admin"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Role возвращает роль пользователя для токена.
func (u *User) Role() string {
	if u.IsAdmin {
		return "admin"
	}
	return "user"
}
