package policy

import (
	"context"
	"fmt"

	"sangam-admin/internal/store"
	"sangam-admin/pkg/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Service представляет сервис администрирования политик выплат.
// Валидация полей политики живет здесь, а не в калькуляторе: расчет
// обязан переварить любую политику, административная форма — нет
type Service struct {
	policyRepo store.PolicyRepository
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewService создает новый сервис политик выплат
func NewService(policyRepo store.PolicyRepository, logger *zap.Logger) *Service {
	return &Service{
		policyRepo: policyRepo,
		validate:   validator.New(),
		logger:     logger,
	}
}

// CreatePolicy создает новую политику выплат
func (s *Service) CreatePolicy(ctx context.Context, req *models.CreatePolicyRequest) (*models.PayoutPolicy, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("некорректные поля политики: %w", err)
	}
	if err := validateGates(req); err != nil {
		return nil, err
	}
	if req.PayoutAmountPerUnit.IsNegative() {
		return nil, fmt.Errorf("сумма выплаты за единицу не может быть отрицательной")
	}

	policy := &models.PayoutPolicy{
		Name:                req.Name,
		ViewsRequired:       req.ViewsRequired,
		LikesRequired:       req.LikesRequired,
		CommentsRequired:    req.CommentsRequired,
		IsLikesEnabled:      req.IsLikesEnabled,
		IsCommentsEnabled:   req.IsCommentsEnabled,
		PayoutAmountPerUnit: req.PayoutAmountPerUnit,
		PayoutPeriodDays:    req.PayoutPeriodDays,
		IsActive:            true,
	}

	if err := s.policyRepo.Create(ctx, policy); err != nil {
		return nil, fmt.Errorf("ошибка создания политики: %w", err)
	}

	// Назначение по умолчанию после создания, чтобы снятие флага с
	// прежней политики прошло в одной транзакции репозитория
	if req.IsDefault {
		if err := s.policyRepo.SetDefault(ctx, policy.ID); err != nil {
			return nil, fmt.Errorf("ошибка назначения политики по умолчанию: %w", err)
		}
		policy.IsDefault = true
	}

	s.logger.Info("создана политика выплат",
		zap.Int64("policy_id", policy.ID),
		zap.String("name", policy.Name),
		zap.Bool("is_default", policy.IsDefault))

	return policy, nil
}

// UpdatePolicy обновляет политику выплат. Изменение применяется ко всем
// последующим расчетам привязанных продвижений, включая уже накопленные
// счетчики: политика не версионируется на момент выплаты
func (s *Service) UpdatePolicy(ctx context.Context, policyID int64, req *models.UpdatePolicyRequest) (*models.PayoutPolicy, error) {
	policy, err := s.policyRepo.GetByID(ctx, policyID)
	if err != nil {
		return nil, fmt.Errorf("политика не найдена: %w", err)
	}

	if req.Name != nil {
		policy.Name = *req.Name
	}
	if req.ViewsRequired != nil {
		policy.ViewsRequired = *req.ViewsRequired
	}
	if req.LikesRequired != nil {
		policy.LikesRequired = *req.LikesRequired
	}
	if req.CommentsRequired != nil {
		policy.CommentsRequired = *req.CommentsRequired
	}
	if req.IsLikesEnabled != nil {
		policy.IsLikesEnabled = *req.IsLikesEnabled
	}
	if req.IsCommentsEnabled != nil {
		policy.IsCommentsEnabled = *req.IsCommentsEnabled
	}
	if req.PayoutAmountPerUnit != nil {
		policy.PayoutAmountPerUnit = *req.PayoutAmountPerUnit
	}
	if req.PayoutPeriodDays != nil {
		policy.PayoutPeriodDays = *req.PayoutPeriodDays
	}
	if req.IsActive != nil {
		policy.IsActive = *req.IsActive
	}

	if err := validatePolicy(policy); err != nil {
		return nil, err
	}

	if err := s.policyRepo.Update(ctx, policy); err != nil {
		return nil, fmt.Errorf("ошибка обновления политики: %w", err)
	}

	s.logger.Info("обновлена политика выплат", zap.Int64("policy_id", policy.ID))
	return policy, nil
}

// SetDefaultPolicy назначает политику по умолчанию для новых продвижений
func (s *Service) SetDefaultPolicy(ctx context.Context, policyID int64) error {
	if err := s.policyRepo.SetDefault(ctx, policyID); err != nil {
		return fmt.Errorf("ошибка назначения политики по умолчанию: %w", err)
	}
	return nil
}

// GetPolicy получает политику по ID
func (s *Service) GetPolicy(ctx context.Context, policyID int64) (*models.PayoutPolicy, error) {
	return s.policyRepo.GetByID(ctx, policyID)
}

// GetPolicies получает все политики выплат
func (s *Service) GetPolicies(ctx context.Context) ([]*models.PayoutPolicy, error) {
	return s.policyRepo.GetAll(ctx)
}

// GetDefaultPolicy получает действующую политику по умолчанию
func (s *Service) GetDefaultPolicy(ctx context.Context) (*models.PayoutPolicy, error) {
	return s.policyRepo.GetDefault(ctx)
}

// validateGates проверяет, что включенное условие имеет положительный
// порог: условие с нулевым порогом бессмысленно и в расчете превратится
// в делитель-единицу
func validateGates(req *models.CreatePolicyRequest) error {
	if req.IsLikesEnabled && req.LikesRequired <= 0 {
		return fmt.Errorf("включено условие по лайкам, но порог лайков не задан")
	}
	if req.IsCommentsEnabled && req.CommentsRequired <= 0 {
		return fmt.Errorf("включено условие по комментариям, но порог комментариев не задан")
	}
	return nil
}

func validatePolicy(policy *models.PayoutPolicy) error {
	if policy.ViewsRequired <= 0 {
		return fmt.Errorf("порог просмотров должен быть положительным")
	}
	if policy.IsLikesEnabled && policy.LikesRequired <= 0 {
		return fmt.Errorf("включено условие по лайкам, но порог лайков не задан")
	}
	if policy.IsCommentsEnabled && policy.CommentsRequired <= 0 {
		return fmt.Errorf("включено условие по комментариям, но порог комментариев не задан")
	}
	if policy.PayoutAmountPerUnit.IsNegative() {
		return fmt.Errorf("сумма выплаты за единицу не может быть отрицательной")
	}
	return nil
}
