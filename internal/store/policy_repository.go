package store

import (
	"context"
	"fmt"

	"sangam-admin/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresPolicyRepository реализует PolicyRepository для PostgreSQL
type PostgresPolicyRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPolicyRepository создает новый репозиторий политик выплат
func NewPolicyRepository(db *pgxpool.Pool, logger *zap.Logger) PolicyRepository {
	return &PostgresPolicyRepository{
		db:     db,
		logger: logger,
	}
}

const policyColumns = `id, name, views_required, likes_required, comments_required,
	is_likes_enabled, is_comments_enabled, payout_amount_per_unit,
	payout_period_days, is_active, is_default, created_at, updated_at`

func scanPolicy(row pgx.Row) (*models.PayoutPolicy, error) {
	policy := &models.PayoutPolicy{}
	err := row.Scan(
		&policy.ID,
		&policy.Name,
		&policy.ViewsRequired,
		&policy.LikesRequired,
		&policy.CommentsRequired,
		&policy.IsLikesEnabled,
		&policy.IsCommentsEnabled,
		&policy.PayoutAmountPerUnit,
		&policy.PayoutPeriodDays,
		&policy.IsActive,
		&policy.IsDefault,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return policy, nil
}

// Create создает новую политику выплат
func (r *PostgresPolicyRepository) Create(ctx context.Context, policy *models.PayoutPolicy) error {
	query := `
		INSERT INTO payout_policies (name, views_required, likes_required, comments_required,
			is_likes_enabled, is_comments_enabled, payout_amount_per_unit,
			payout_period_days, is_active, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		policy.Name,
		policy.ViewsRequired,
		policy.LikesRequired,
		policy.CommentsRequired,
		policy.IsLikesEnabled,
		policy.IsCommentsEnabled,
		policy.PayoutAmountPerUnit,
		policy.PayoutPeriodDays,
		policy.IsActive,
		policy.IsDefault,
	).Scan(&policy.ID, &policy.CreatedAt, &policy.UpdatedAt)

	if err != nil {
		return fmt.Errorf("ошибка создания политики выплат: %w", err)
	}

	r.logger.Info("создана политика выплат",
		zap.Int64("policy_id", policy.ID),
		zap.String("name", policy.Name))

	return nil
}

// GetByID получает политику выплат по ID
func (r *PostgresPolicyRepository) GetByID(ctx context.Context, id int64) (*models.PayoutPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM payout_policies WHERE id = $1`

	policy, err := scanPolicy(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("политика выплат не найдена")
		}
		return nil, fmt.Errorf("ошибка получения политики выплат: %w", err)
	}

	return policy, nil
}

// GetDefault получает действующую политику по умолчанию
func (r *PostgresPolicyRepository) GetDefault(ctx context.Context) (*models.PayoutPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM payout_policies WHERE is_default = true AND is_active = true`

	policy, err := scanPolicy(r.db.QueryRow(ctx, query))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("политика по умолчанию не назначена")
		}
		return nil, fmt.Errorf("ошибка получения политики по умолчанию: %w", err)
	}

	return policy, nil
}

// GetAll получает все политики выплат
func (r *PostgresPolicyRepository) GetAll(ctx context.Context) ([]*models.PayoutPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM payout_policies ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения политик выплат: %w", err)
	}
	defer rows.Close()

	var policies []*models.PayoutPolicy
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования политики выплат: %w", err)
		}
		policies = append(policies, policy)
	}

	return policies, nil
}

// Update обновляет политику выплат
func (r *PostgresPolicyRepository) Update(ctx context.Context, policy *models.PayoutPolicy) error {
	query := `
		UPDATE payout_policies
		SET name = $1, views_required = $2, likes_required = $3, comments_required = $4,
		    is_likes_enabled = $5, is_comments_enabled = $6, payout_amount_per_unit = $7,
		    payout_period_days = $8, is_active = $9, updated_at = NOW()
		WHERE id = $10`

	_, err := r.db.Exec(
		ctx, query,
		policy.Name,
		policy.ViewsRequired,
		policy.LikesRequired,
		policy.CommentsRequired,
		policy.IsLikesEnabled,
		policy.IsCommentsEnabled,
		policy.PayoutAmountPerUnit,
		policy.PayoutPeriodDays,
		policy.IsActive,
		policy.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления политики выплат: %w", err)
	}

	return nil
}

// SetDefault назначает политику по умолчанию. Снятие флага с прежней
// политики и назначение новой выполняются в одной транзакции, чтобы
// в системе всегда была ровно одна политика по умолчанию
func (r *PostgresPolicyRepository) SetDefault(ctx context.Context, policyID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка открытия транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE payout_policies SET is_default = false, updated_at = NOW() WHERE is_default = true`); err != nil {
		return fmt.Errorf("ошибка снятия флага политики по умолчанию: %w", err)
	}

	tag, err := tx.Exec(ctx, `UPDATE payout_policies SET is_default = true, is_active = true, updated_at = NOW() WHERE id = $1`, policyID)
	if err != nil {
		return fmt.Errorf("ошибка назначения политики по умолчанию: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("политика выплат не найдена")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	r.logger.Info("назначена политика по умолчанию", zap.Int64("policy_id", policyID))
	return nil
}
