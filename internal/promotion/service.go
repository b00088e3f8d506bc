package promotion

import (
	"context"
	"fmt"

	"sangam-admin/internal/settlement"
	"sangam-admin/internal/stats"
	"sangam-admin/internal/store"
	"sangam-admin/pkg/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatsClient интерфейс для работы с внешним API статистики вовлеченности
type StatsClient interface {
	FetchStats(ctx context.Context, platform models.Platform, postURL string) (*stats.EngagementStats, error)
}

// Service представляет сервис продвижений посредников
type Service struct {
	promotionRepo store.PromotionRepository
	policyRepo    store.PolicyRepository
	statsClient   StatsClient
	logger        *zap.Logger
}

// NewService создает новый сервис продвижений
func NewService(promotionRepo store.PromotionRepository, policyRepo store.PolicyRepository, statsClient StatsClient, logger *zap.Logger) *Service {
	return &Service{
		promotionRepo: promotionRepo,
		policyRepo:    policyRepo,
		statsClient:   statsClient,
		logger:        logger,
	}
}

// SubmitPromotion регистрирует новую публикацию посредника. К продвижению
// привязывается текущая политика по умолчанию; если она не назначена,
// продвижение создается без политики и остается неоплачиваемым до
// административного назначения
func (s *Service) SubmitPromotion(ctx context.Context, req *models.CreatePromotionRequest) (*models.Promotion, error) {
	if !req.Platform.IsValid() {
		return nil, fmt.Errorf("неизвестная площадка: %s", req.Platform)
	}
	if req.PostURL == "" {
		return nil, fmt.Errorf("не указана ссылка на публикацию")
	}

	promotion := &models.Promotion{
		MediatorID: req.MediatorID,
		Platform:   req.Platform,
		PostURL:    req.PostURL,
		Status:     models.PromotionStatusPending,
	}

	defaultPolicy, err := s.policyRepo.GetDefault(ctx)
	if err != nil {
		s.logger.Warn("политика по умолчанию не назначена, продвижение создается без политики",
			zap.Int64("mediator_id", req.MediatorID))
	} else {
		promotion.PolicyID = &defaultPolicy.ID
		promotion.Policy = defaultPolicy
	}

	if err := s.promotionRepo.Create(ctx, promotion); err != nil {
		return nil, fmt.Errorf("ошибка создания продвижения: %w", err)
	}

	return promotion, nil
}

// RefreshStats обновляет счетчики вовлеченности продвижения из внешнего
// API. Контракт сборщика: счетчики не убывают; устаревшие или
// неизменившиеся значения безопасно применяются повторно
func (s *Service) RefreshStats(ctx context.Context, promotionID int64) error {
	promotion, err := s.promotionRepo.GetByID(ctx, promotionID)
	if err != nil {
		return fmt.Errorf("продвижение не найдено: %w", err)
	}

	engagement, err := s.statsClient.FetchStats(ctx, promotion.Platform, promotion.PostURL)
	if err != nil {
		return fmt.Errorf("ошибка получения статистики: %w", err)
	}

	if engagement.Views < promotion.ViewsCount ||
		engagement.Likes < promotion.LikesCount ||
		engagement.Comments < promotion.CommentsCount {
		s.logger.Warn("внешнее API вернуло убывающие счетчики, значения не будут уменьшены",
			zap.Int64("promotion_id", promotion.ID),
			zap.Int64("views", engagement.Views),
			zap.Int64("likes", engagement.Likes),
			zap.Int64("comments", engagement.Comments))
	}

	if err := s.promotionRepo.UpdateStats(ctx, promotion.ID, engagement.Views, engagement.Likes, engagement.Comments); err != nil {
		return fmt.Errorf("ошибка сохранения статистики: %w", err)
	}

	s.logger.Debug("обновлена статистика продвижения",
		zap.Int64("promotion_id", promotion.ID),
		zap.Int64("views", engagement.Views),
		zap.Int64("likes", engagement.Likes),
		zap.Int64("comments", engagement.Comments))

	return nil
}

// RefreshAllStats обновляет статистику всех активных продвижений.
// Ошибка по одному продвижению не прерывает обход остальных
func (s *Service) RefreshAllStats(ctx context.Context) (int, error) {
	promotions, err := s.promotionRepo.GetActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения активных продвижений: %w", err)
	}

	refreshed := 0
	for _, promotion := range promotions {
		if err := s.RefreshStats(ctx, promotion.ID); err != nil {
			s.logger.Error("ошибка обновления статистики продвижения",
				zap.Int64("promotion_id", promotion.ID),
				zap.Error(err))
			continue
		}
		refreshed++
	}

	return refreshed, nil
}

// GetPromotions получает продвижения посредника вместе с политиками
func (s *Service) GetPromotions(ctx context.Context, mediatorID int64) ([]*models.Promotion, error) {
	promotions, err := s.promotionRepo.GetByMediatorID(ctx, mediatorID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения продвижений: %w", err)
	}

	return promotions, nil
}

// GetPayable возвращает доступную к выплате сумму по одному продвижению
func (s *Service) GetPayable(ctx context.Context, promotionID int64) (decimal.Decimal, error) {
	promotion, err := s.promotionRepo.GetByID(ctx, promotionID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("продвижение не найдено: %w", err)
	}

	return settlement.PayableAmount(promotion, promotion.Policy), nil
}

// UpdateStatus переводит продвижение в новый административный статус
func (s *Service) UpdateStatus(ctx context.Context, promotionID int64, status models.PromotionStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("неизвестный статус продвижения: %s", status)
	}

	if err := s.promotionRepo.UpdateStatus(ctx, promotionID, status); err != nil {
		return fmt.Errorf("ошибка обновления статуса: %w", err)
	}

	return nil
}

// AssignPolicy привязывает политику выплат к продвижению. Смена политики
// действует на все последующие расчеты, включая уже накопленные счетчики
func (s *Service) AssignPolicy(ctx context.Context, promotionID int64, policyID int64) error {
	if _, err := s.policyRepo.GetByID(ctx, policyID); err != nil {
		return fmt.Errorf("политика не найдена: %w", err)
	}

	if err := s.promotionRepo.AssignPolicy(ctx, promotionID, policyID); err != nil {
		return fmt.Errorf("ошибка привязки политики: %w", err)
	}

	s.logger.Info("политика привязана к продвижению",
		zap.Int64("promotion_id", promotionID),
		zap.Int64("policy_id", policyID))

	return nil
}
