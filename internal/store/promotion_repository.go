package store

import (
	"context"
	"fmt"
	"time"

	"sangam-admin/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PostgresPromotionRepository реализует PromotionRepository для PostgreSQL
type PostgresPromotionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPromotionRepository создает новый репозиторий продвижений
func NewPromotionRepository(db *pgxpool.Pool, logger *zap.Logger) PromotionRepository {
	return &PostgresPromotionRepository{
		db:     db,
		logger: logger,
	}
}

const promotionWithPolicyQuery = `
	SELECT p.id, p.mediator_id, p.platform, p.post_url,
	       p.views_count, p.likes_count, p.comments_count,
	       p.total_paid_amount, p.status, p.policy_id, p.stats_updated_at,
	       p.created_at, p.updated_at,
	       pol.id, pol.name, pol.views_required, pol.likes_required, pol.comments_required,
	       pol.is_likes_enabled, pol.is_comments_enabled, pol.payout_amount_per_unit,
	       pol.payout_period_days, pol.is_active, pol.is_default, pol.created_at, pol.updated_at
	FROM promotions p
	LEFT JOIN payout_policies pol ON pol.id = p.policy_id`

// scanPromotionWithPolicy сканирует продвижение вместе с привязанной
// политикой; при отсутствии политики все ее колонки NULL
func scanPromotionWithPolicy(row pgx.Row) (*models.Promotion, error) {
	promotion := &models.Promotion{}

	var (
		policyID            *int64
		policyName          *string
		viewsRequired       *int64
		likesRequired       *int64
		commentsRequired    *int64
		isLikesEnabled      *bool
		isCommentsEnabled   *bool
		payoutAmountPerUnit *decimal.Decimal
		payoutPeriodDays    *int
		isActive            *bool
		isDefault           *bool
		policyCreatedAt     *time.Time
		policyUpdatedAt     *time.Time
	)

	err := row.Scan(
		&promotion.ID,
		&promotion.MediatorID,
		&promotion.Platform,
		&promotion.PostURL,
		&promotion.ViewsCount,
		&promotion.LikesCount,
		&promotion.CommentsCount,
		&promotion.TotalPaidAmount,
		&promotion.Status,
		&promotion.PolicyID,
		&promotion.StatsUpdatedAt,
		&promotion.CreatedAt,
		&promotion.UpdatedAt,
		&policyID,
		&policyName,
		&viewsRequired,
		&likesRequired,
		&commentsRequired,
		&isLikesEnabled,
		&isCommentsEnabled,
		&payoutAmountPerUnit,
		&payoutPeriodDays,
		&isActive,
		&isDefault,
		&policyCreatedAt,
		&policyUpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if policyID != nil {
		promotion.Policy = &models.PayoutPolicy{
			ID:                  *policyID,
			Name:                *policyName,
			ViewsRequired:       *viewsRequired,
			LikesRequired:       *likesRequired,
			CommentsRequired:    *commentsRequired,
			IsLikesEnabled:      *isLikesEnabled,
			IsCommentsEnabled:   *isCommentsEnabled,
			PayoutAmountPerUnit: *payoutAmountPerUnit,
			PayoutPeriodDays:    *payoutPeriodDays,
			IsActive:            *isActive,
			IsDefault:           *isDefault,
			CreatedAt:           *policyCreatedAt,
			UpdatedAt:           *policyUpdatedAt,
		}
	}

	return promotion, nil
}

// Create создает новое продвижение
func (r *PostgresPromotionRepository) Create(ctx context.Context, promotion *models.Promotion) error {
	query := `
		INSERT INTO promotions (mediator_id, platform, post_url, status, policy_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		promotion.MediatorID,
		promotion.Platform,
		promotion.PostURL,
		promotion.Status,
		promotion.PolicyID,
	).Scan(&promotion.ID, &promotion.CreatedAt, &promotion.UpdatedAt)

	if err != nil {
		return fmt.Errorf("ошибка создания продвижения: %w", err)
	}

	r.logger.Info("создано продвижение",
		zap.Int64("promotion_id", promotion.ID),
		zap.Int64("mediator_id", promotion.MediatorID),
		zap.String("platform", string(promotion.Platform)))

	return nil
}

// GetByID получает продвижение по ID вместе с политикой
func (r *PostgresPromotionRepository) GetByID(ctx context.Context, id int64) (*models.Promotion, error) {
	query := promotionWithPolicyQuery + ` WHERE p.id = $1`

	promotion, err := scanPromotionWithPolicy(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("продвижение не найдено")
		}
		return nil, fmt.Errorf("ошибка получения продвижения: %w", err)
	}

	return promotion, nil
}

// GetByMediatorID получает все продвижения посредника вместе с политиками
func (r *PostgresPromotionRepository) GetByMediatorID(ctx context.Context, mediatorID int64) ([]*models.Promotion, error) {
	query := promotionWithPolicyQuery + ` WHERE p.mediator_id = $1 ORDER BY p.created_at DESC`

	rows, err := r.db.Query(ctx, query, mediatorID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения продвижений: %w", err)
	}
	defer rows.Close()

	var promotions []*models.Promotion
	for rows.Next() {
		promotion, err := scanPromotionWithPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования продвижения: %w", err)
		}
		promotions = append(promotions, promotion)
	}

	return promotions, nil
}

// GetActive получает продвижения, по которым еще собирается статистика
func (r *PostgresPromotionRepository) GetActive(ctx context.Context) ([]*models.Promotion, error) {
	query := promotionWithPolicyQuery + ` WHERE p.status IN ('pending', 'verified', 'paid') ORDER BY p.created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения активных продвижений: %w", err)
	}
	defer rows.Close()

	var promotions []*models.Promotion
	for rows.Next() {
		promotion, err := scanPromotionWithPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования продвижения: %w", err)
		}
		promotions = append(promotions, promotion)
	}

	return promotions, nil
}

// UpdateStats обновляет счетчики вовлеченности продвижения. Счетчики
// не убывают: GREATEST защищает от устаревших ответов внешнего API
func (r *PostgresPromotionRepository) UpdateStats(ctx context.Context, promotionID int64, views, likes, comments int64) error {
	query := `
		UPDATE promotions
		SET views_count = GREATEST(views_count, $1),
		    likes_count = GREATEST(likes_count, $2),
		    comments_count = GREATEST(comments_count, $3),
		    stats_updated_at = NOW(),
		    updated_at = NOW()
		WHERE id = $4`

	_, err := r.db.Exec(ctx, query, views, likes, comments, promotionID)
	if err != nil {
		return fmt.Errorf("ошибка обновления статистики продвижения: %w", err)
	}

	return nil
}

// UpdateStatus обновляет административный статус продвижения
func (r *PostgresPromotionRepository) UpdateStatus(ctx context.Context, promotionID int64, status models.PromotionStatus) error {
	query := `
		UPDATE promotions
		SET status = $1, updated_at = NOW()
		WHERE id = $2`

	_, err := r.db.Exec(ctx, query, status, promotionID)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса продвижения: %w", err)
	}

	r.logger.Info("обновлен статус продвижения",
		zap.Int64("promotion_id", promotionID),
		zap.String("status", string(status)))

	return nil
}

// AssignPolicy привязывает политику выплат к продвижению
func (r *PostgresPromotionRepository) AssignPolicy(ctx context.Context, promotionID int64, policyID int64) error {
	query := `
		UPDATE promotions
		SET policy_id = $1, updated_at = NOW()
		WHERE id = $2`

	_, err := r.db.Exec(ctx, query, policyID, promotionID)
	if err != nil {
		return fmt.Errorf("ошибка привязки политики к продвижению: %w", err)
	}

	return nil
}
