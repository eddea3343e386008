package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mealmarket/mealmarket-backend/internal/models"
)

// ReportRepository - read-only агрегаты для админской сводки.
type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// DailyStats возвращает сводку за день: продажи, созданные брони и
// одобренные платежи.
func (r *ReportRepository) DailyStats(ctx context.Context, day time.Time) (*models.DailyStats, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	var stats models.DailyStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT
			(SELECT COUNT(*) FROM listings
			 WHERE status = $1 AND created_at >= $2 AND created_at < $3) AS sales,
			(SELECT COUNT(*) FROM reservations
			 WHERE created_at >= $2 AND created_at < $3) AS reservations,
			(SELECT COUNT(*) FROM payments
			 WHERE status = $4 AND reviewed_at >= $2 AND reviewed_at < $3) AS approved
	`, models.ListingStatusSold, start, end, models.PaymentStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("report repository: daily stats %w", err)
	}
	return &stats, nil
}

// SellerPerformance возвращает число проданных объявлений по продавцам.
func (r *ReportRepository) SellerPerformance(ctx context.Context) ([]models.SellerSales, error) {
	var rows []models.SellerSales
	err := r.db.SelectContext(ctx, &rows, `
		SELECT seller_id, COUNT(*) AS sold
		FROM listings WHERE status = $1
		GROUP BY seller_id ORDER BY sold DESC
	`, models.ListingStatusSold)
	if err != nil {
		return nil, fmt.Errorf("report repository: seller performance %w", err)
	}
	return rows, nil
}

// HighRiskBuyers возвращает покупателей с числом отклонённых резервов не
// ниже порога.
func (r *ReportRepository) HighRiskBuyers(ctx context.Context, threshold int) ([]models.BuyerRejections, error) {
	var rows []models.BuyerRejections
	err := r.db.SelectContext(ctx, &rows, `
		SELECT buyer_id, COUNT(*) AS rejected
		FROM reservations WHERE status = $1
		GROUP BY buyer_id
		HAVING COUNT(*) >= $2
		ORDER BY rejected DESC
	`, models.ReservationStatusRejected, threshold)
	if err != nil {
		return nil, fmt.Errorf("report repository: high risk buyers %w", err)
	}
	return rows, nil
}
