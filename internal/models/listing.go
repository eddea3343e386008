package models

import (
	"time"

	"github.com/google/uuid"
)

// Listing описывает объявление о продаже одного кода питания.
// Полный код хранится только в зашифрованном виде; наружу отдаётся
// маскированный вариант до момента выдачи после одобрения оплаты.
type Listing struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	SellerID    uuid.UUID  `db:"seller_id" json:"seller_id"`
	Date        time.Time  `db:"date" json:"date"`
	MealType    string     `db:"meal_type" json:"meal_type"`
	DishName    string     `db:"dish_name" json:"dish_name"`
	MaskedCode  string     `db:"masked_code" json:"masked_code"`
	FullCodeEnc []byte     `db:"full_code_enc" json:"-"`
	Price       int        `db:"price" json:"price"`
	Status      string     `db:"status" json:"status"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
