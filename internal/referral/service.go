package referral

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"sangam-admin/internal/store"
	"sangam-admin/pkg/models"

	"go.uber.org/zap"
)

// Metrics интерфейс для учета реферальных событий
type Metrics interface {
	RecordReferralEvent(eventType string)
}

// Service представляет сервис реферальной системы посредников
type Service struct {
	referralRepo store.ReferralRepository
	mediatorRepo store.MediatorRepository
	metrics      Metrics
	logger       *zap.Logger
}

// NewService создает новый сервис рефералов
func NewService(referralRepo store.ReferralRepository, mediatorRepo store.MediatorRepository, metrics Metrics, logger *zap.Logger) *Service {
	return &Service{
		referralRepo: referralRepo,
		mediatorRepo: mediatorRepo,
		metrics:      metrics,
		logger:       logger,
	}
}

// GetOrGenerateReferralCode получает существующий или генерирует новый реферальный код
func (s *Service) GetOrGenerateReferralCode(ctx context.Context, mediatorID int64) (string, error) {
	mediator, err := s.mediatorRepo.GetByID(ctx, mediatorID)
	if err != nil {
		return "", fmt.Errorf("ошибка получения посредника: %w", err)
	}

	// Если код уже есть, возвращаем его
	if mediator.ReferralCode != nil {
		return *mediator.ReferralCode, nil
	}

	// Генерируем уникальный код с проверкой
	maxAttempts := 10
	var code string

	for attempt := 0; attempt < maxAttempts; attempt++ {
		generated, err := generateCode()
		if err != nil {
			return "", fmt.Errorf("ошибка генерации реферального кода: %w", err)
		}

		// Проверяем, что код уникален
		existing, err := s.mediatorRepo.GetByReferralCode(ctx, generated)
		if err != nil || existing == nil {
			code = generated
			break
		}

		s.logger.Warn("сгенерированный код уже существует, пробуем снова",
			zap.String("code", generated),
			zap.Int("attempt", attempt+1))
	}

	if code == "" {
		return "", fmt.Errorf("не удалось сгенерировать уникальный реферальный код после %d попыток", maxAttempts)
	}

	if err := s.mediatorRepo.SetReferralCode(ctx, mediatorID, code); err != nil {
		return "", fmt.Errorf("ошибка сохранения реферального кода: %w", err)
	}

	return code, nil
}

// CreateReferral создает новую реферальную связь по коду посредника
func (s *Service) CreateReferral(ctx context.Context, referralCode string, referredUserID int64) error {
	mediator, err := s.mediatorRepo.GetByReferralCode(ctx, referralCode)
	if err != nil {
		return fmt.Errorf("неверный реферальный код")
	}

	// Проверяем, что приглашенный пользователь еще не был приглашен:
	// у пользователя может быть только один пригласивший посредник
	existing, err := s.referralRepo.GetByReferredUserID(ctx, referredUserID)
	if err == nil && existing != nil {
		return fmt.Errorf("пользователь уже был приглашен")
	}

	referral := &models.Referral{
		MediatorID:     mediator.ID,
		ReferredUserID: referredUserID,
		PurchasedCount: 0,
		JoinedAt:       time.Now(),
	}

	if err := s.referralRepo.Create(ctx, referral); err != nil {
		return fmt.Errorf("ошибка создания реферала: %w", err)
	}

	s.metrics.RecordReferralEvent("created")
	s.logger.Info("создан новый реферал",
		zap.Int64("mediator_id", mediator.ID),
		zap.Int64("referred_user_id", referredUserID))

	return nil
}

// RecordPurchase фиксирует оплаченное действие приглашенного пользователя
// (например, открытие контакта). Счетчик только растет; начисление
// вознаграждения происходит при следующем расчете выплаты
func (s *Service) RecordPurchase(ctx context.Context, referredUserID int64) error {
	if err := s.referralRepo.IncrementPurchases(ctx, referredUserID, 1); err != nil {
		return fmt.Errorf("ошибка учета покупки приглашенного: %w", err)
	}

	s.metrics.RecordReferralEvent("purchase")
	s.logger.Debug("учтена покупка приглашенного пользователя",
		zap.Int64("referred_user_id", referredUserID))

	return nil
}

// GetLedger получает реферальную сводку посредника
func (s *Service) GetLedger(ctx context.Context, mediatorID int64) (*models.ReferralLedger, error) {
	ledger, err := s.referralRepo.GetLedger(ctx, mediatorID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения реферальной сводки: %w", err)
	}

	return ledger, nil
}

// GetReferrals получает список рефералов посредника
func (s *Service) GetReferrals(ctx context.Context, mediatorID int64) ([]*models.Referral, error) {
	referrals, err := s.referralRepo.GetByMediatorID(ctx, mediatorID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения рефералов: %w", err)
	}

	return referrals, nil
}

// generateCode генерирует короткий шестнадцатеричный реферальный код
func generateCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
