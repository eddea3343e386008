package models

import "github.com/google/uuid"

// DailyStats - сводка по площадке за один день.
type DailyStats struct {
	Sales        int `db:"sales" json:"sales"`
	Reservations int `db:"reservations" json:"reservations"`
	Approved     int `db:"approved" json:"approved"`
}

// SellerSales - количество проданных объявлений продавца.
type SellerSales struct {
	SellerID uuid.UUID `db:"seller_id" json:"seller_id"`
	Sold     int       `db:"sold" json:"sold"`
}

// BuyerRejections - покупатель с подозрительным числом отклонённых резервов.
type BuyerRejections struct {
	BuyerID  uuid.UUID `db:"buyer_id" json:"buyer_id"`
	Rejected int       `db:"rejected" json:"rejected"`
}
