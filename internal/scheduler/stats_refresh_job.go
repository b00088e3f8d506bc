package scheduler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sangam-admin/internal/metrics"
	"sangam-admin/internal/promotion"
)

// StatsRefreshJob отвечает за периодическое обновление счетчиков
// вовлеченности активных продвижений из внешнего API статистики
type StatsRefreshJob struct {
	promotionService *promotion.Service
	metrics          *metrics.Metrics
	logger           *zap.Logger
}

// NewStatsRefreshJob создает новую джобу обновления статистики
func NewStatsRefreshJob(promotionService *promotion.Service, m *metrics.Metrics, logger *zap.Logger) *StatsRefreshJob {
	return &StatsRefreshJob{
		promotionService: promotionService,
		metrics:          m,
		logger:           logger,
	}
}

// Name возвращает имя джобы
func (j *StatsRefreshJob) Name() string {
	return "stats_refresh"
}

// Run запускает обход активных продвижений
func (j *StatsRefreshJob) Run(ctx context.Context) error {
	j.logger.Info("запуск обновления статистики продвижений")

	refreshed, err := j.promotionService.RefreshAllStats(ctx)
	if err != nil {
		j.metrics.RecordStatsRefresh(false)
		return fmt.Errorf("ошибка обновления статистики продвижений: %w", err)
	}

	j.metrics.RecordStatsRefresh(true)
	j.metrics.SetTrackedPromotions(refreshed)

	j.logger.Info("обновление статистики завершено", zap.Int("refreshed", refreshed))
	return nil
}
