package service

import (
	"context"
	"time"

	"github.com/mealmarket/mealmarket-backend/internal/models"
)

// Порог отклонённых резервов, после которого покупатель попадает в сводку
// подозрительных.
const highRiskRejectionThreshold = 3

type ReportRepository interface {
	DailyStats(ctx context.Context, day time.Time) (*models.DailyStats, error)
	SellerPerformance(ctx context.Context) ([]models.SellerSales, error)
	HighRiskBuyers(ctx context.Context, threshold int) ([]models.BuyerRejections, error)
}

type ReportService struct {
	repo ReportRepository
}

func NewReportService(repo ReportRepository) *ReportService {
	return &ReportService{repo: repo}
}

// DailyStats возвращает сводку площадки за указанный день.
func (s *ReportService) DailyStats(ctx context.Context, day time.Time) (*models.DailyStats, error) {
	return s.repo.DailyStats(ctx, day)
}

// SellerPerformance возвращает продажи по продавцам.
func (s *ReportService) SellerPerformance(ctx context.Context) ([]models.SellerSales, error) {
	return s.repo.SellerPerformance(ctx)
}

// HighRiskBuyers возвращает покупателей с аномальным числом отклонённых
// резервов.
func (s *ReportService) HighRiskBuyers(ctx context.Context) ([]models.BuyerRejections, error) {
	return s.repo.HighRiskBuyers(ctx, highRiskRejectionThreshold)
}
