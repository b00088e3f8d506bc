package payout

import (
	"context"
	"fmt"

	"sangam-admin/internal/settlement"
	"sangam-admin/pkg/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PromotionRepository интерфейс для чтения продвижений посредника
type PromotionRepository interface {
	GetByMediatorID(ctx context.Context, mediatorID int64) ([]*models.Promotion, error)
}

// ReferralRepository интерфейс для чтения реферальной сводки
type ReferralRepository interface {
	GetLedger(ctx context.Context, mediatorID int64) (*models.ReferralLedger, error)
}

// MediatorRepository интерфейс для проверки платежных реквизитов
type MediatorRepository interface {
	GetPrimaryBankAccount(ctx context.Context, mediatorID int64) (*models.BankAccount, error)
}

// PayoutRepository интерфейс атомарного проведения выплат
type PayoutRepository interface {
	Settle(ctx context.Context, mediatorID int64, bankAccountID int64, rewardPerPurchase decimal.Decimal) (*models.Payout, error)
	GetByMediatorID(ctx context.Context, mediatorID int64) ([]*models.Payout, error)
}

// Metrics интерфейс для учета метрик выплат
type Metrics interface {
	RecordPayoutRequest(status string, amount float64)
}

// Service представляет сервис выплат посредникам: считает доступный
// баланс и проводит запрос на вывод средств
type Service struct {
	promotionRepo     PromotionRepository
	referralRepo      ReferralRepository
	mediatorRepo      MediatorRepository
	payoutRepo        PayoutRepository
	metrics           Metrics
	rewardPerPurchase decimal.Decimal
	logger            *zap.Logger
}

// NewService создает новый сервис выплат
func NewService(
	promotionRepo PromotionRepository,
	referralRepo ReferralRepository,
	mediatorRepo MediatorRepository,
	payoutRepo PayoutRepository,
	metrics Metrics,
	rewardPerPurchase decimal.Decimal,
	logger *zap.Logger,
) *Service {
	return &Service{
		promotionRepo:     promotionRepo,
		referralRepo:      referralRepo,
		mediatorRepo:      mediatorRepo,
		payoutRepo:        payoutRepo,
		metrics:           metrics,
		rewardPerPurchase: rewardPerPurchase,
		logger:            logger,
	}
}

// GetBalance возвращает текущий доступный к выплате баланс посредника
// с разбивкой по продвижениям и рефералам. Значение справочное: при
// проведении выплаты баланс пересчитывается заново внутри транзакции
func (s *Service) GetBalance(ctx context.Context, mediatorID int64) (*models.PayoutBalance, error) {
	promotions, err := s.promotionRepo.GetByMediatorID(ctx, mediatorID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения продвижений: %w", err)
	}

	ledger, err := s.referralRepo.GetLedger(ctx, mediatorID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения реферальной сводки: %w", err)
	}

	balance := &models.PayoutBalance{
		MediatorID:       mediatorID,
		PromotionsAmount: decimal.Zero,
		ReferralsAmount:  settlement.ReferralPayable(ledger, s.rewardPerPurchase),
	}

	for _, promotion := range promotions {
		amount := settlement.PayableAmount(promotion, promotion.Policy)
		if amount.IsZero() {
			continue
		}
		balance.PromotionsAmount = balance.PromotionsAmount.Add(amount)
		balance.Promotions = append(balance.Promotions, models.PromotionAmount{
			PromotionID: promotion.ID,
			Amount:      amount,
		})
	}

	balance.Total = balance.PromotionsAmount.Add(balance.ReferralsAmount)
	return balance, nil
}

// RequestPayout проводит запрос посредника на вывод средств.
// Нулевой баланс отклоняется локально, без обращения к платежной
// системе; выплата требует подтвержденного основного платежного
// реквизита. Само проведение атомарно: пересчет и запись выплаченного
// выполняются в одной транзакции репозитория выплат
func (s *Service) RequestPayout(ctx context.Context, mediatorID int64) (*models.Payout, error) {
	balance, err := s.GetBalance(ctx, mediatorID)
	if err != nil {
		return nil, err
	}

	if balance.Total.IsZero() {
		s.metrics.RecordPayoutRequest("rejected", 0)
		return nil, models.ErrNothingToPayout
	}

	account, err := s.mediatorRepo.GetPrimaryBankAccount(ctx, mediatorID)
	if err != nil {
		s.metrics.RecordPayoutRequest("rejected", 0)
		return nil, fmt.Errorf("основной платежный реквизит не найден: %w", err)
	}
	if !account.IsVerified {
		s.metrics.RecordPayoutRequest("rejected", 0)
		return nil, fmt.Errorf("платежный реквизит не подтвержден")
	}

	payout, err := s.payoutRepo.Settle(ctx, mediatorID, account.ID, s.rewardPerPurchase)
	if err != nil {
		if err == models.ErrNothingToPayout {
			// Баланс обнулился между расчетом и проведением:
			// конкурирующий запрос успел провести выплату
			s.metrics.RecordPayoutRequest("rejected", 0)
			return nil, err
		}
		s.metrics.RecordPayoutRequest("failed", 0)
		return nil, fmt.Errorf("ошибка проведения выплаты: %w", err)
	}

	amount, _ := payout.Amount.Float64()
	s.metrics.RecordPayoutRequest("completed", amount)

	s.logger.Info("выплата запрошена и проведена",
		zap.Int64("mediator_id", mediatorID),
		zap.String("reference", payout.Reference),
		zap.String("amount", payout.Amount.String()))

	return payout, nil
}

// GetPayouts возвращает историю выплат посредника
func (s *Service) GetPayouts(ctx context.Context, mediatorID int64) ([]*models.Payout, error) {
	payouts, err := s.payoutRepo.GetByMediatorID(ctx, mediatorID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории выплат: %w", err)
	}

	return payouts, nil
}
