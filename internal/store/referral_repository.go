package store

import (
	"context"
	"fmt"

	"sangam-admin/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresReferralRepository реализует ReferralRepository для PostgreSQL
type PostgresReferralRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewReferralRepository создает новый репозиторий рефералов
func NewReferralRepository(db *pgxpool.Pool, logger *zap.Logger) ReferralRepository {
	return &PostgresReferralRepository{
		db:     db,
		logger: logger,
	}
}

// Create создает новую реферальную связь
func (r *PostgresReferralRepository) Create(ctx context.Context, referral *models.Referral) error {
	query := `
		INSERT INTO referrals (mediator_id, referred_user_id, purchased_count, joined_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.QueryRow(
		ctx, query,
		referral.MediatorID,
		referral.ReferredUserID,
		referral.PurchasedCount,
		referral.JoinedAt,
	).Scan(&referral.ID)

	if err != nil {
		return fmt.Errorf("ошибка создания реферала: %w", err)
	}

	return nil
}

// GetByReferredUserID получает реферал по ID приглашенного пользователя
func (r *PostgresReferralRepository) GetByReferredUserID(ctx context.Context, referredUserID int64) (*models.Referral, error) {
	query := `
		SELECT id, mediator_id, referred_user_id, purchased_count, joined_at
		FROM referrals
		WHERE referred_user_id = $1`

	referral := &models.Referral{}
	err := r.db.QueryRow(ctx, query, referredUserID).Scan(
		&referral.ID,
		&referral.MediatorID,
		&referral.ReferredUserID,
		&referral.PurchasedCount,
		&referral.JoinedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("реферал не найден")
		}
		return nil, fmt.Errorf("ошибка получения реферала: %w", err)
	}

	return referral, nil
}

// GetByMediatorID получает все рефералы посредника
func (r *PostgresReferralRepository) GetByMediatorID(ctx context.Context, mediatorID int64) ([]*models.Referral, error) {
	query := `
		SELECT id, mediator_id, referred_user_id, purchased_count, joined_at
		FROM referrals
		WHERE mediator_id = $1
		ORDER BY joined_at DESC`

	rows, err := r.db.Query(ctx, query, mediatorID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения рефералов: %w", err)
	}
	defer rows.Close()

	var referrals []*models.Referral
	for rows.Next() {
		referral := &models.Referral{}
		err := rows.Scan(
			&referral.ID,
			&referral.MediatorID,
			&referral.ReferredUserID,
			&referral.PurchasedCount,
			&referral.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования реферала: %w", err)
		}
		referrals = append(referrals, referral)
	}

	return referrals, nil
}

// IncrementPurchases увеличивает счетчик оплаченных действий приглашенного
// пользователя. Счетчик только растет, отрицательные приращения отбрасываются
func (r *PostgresReferralRepository) IncrementPurchases(ctx context.Context, referredUserID int64, count int64) error {
	if count <= 0 {
		return nil
	}

	query := `
		UPDATE referrals
		SET purchased_count = purchased_count + $1
		WHERE referred_user_id = $2`

	tag, err := r.db.Exec(ctx, query, count, referredUserID)
	if err != nil {
		return fmt.Errorf("ошибка обновления счетчика покупок: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("реферал не найден")
	}

	return nil
}

// GetLedger получает сводку по рефералам посредника: количество
// приглашенных и сумму их покупок агрегируем по таблице рефералов,
// выплаченное берем из записи посредника
func (r *PostgresReferralRepository) GetLedger(ctx context.Context, mediatorID int64) (*models.ReferralLedger, error) {
	query := `
		SELECT m.id,
		       COUNT(r.id),
		       COALESCE(SUM(r.purchased_count), 0),
		       m.referral_paid_total
		FROM mediators m
		LEFT JOIN referrals r ON r.mediator_id = m.id
		WHERE m.id = $1
		GROUP BY m.id, m.referral_paid_total`

	ledger := &models.ReferralLedger{}
	err := r.db.QueryRow(ctx, query, mediatorID).Scan(
		&ledger.MediatorID,
		&ledger.TotalReferrals,
		&ledger.TotalPurchases,
		&ledger.TotalPaid,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("посредник не найден")
		}
		return nil, fmt.Errorf("ошибка получения реферальной сводки: %w", err)
	}

	return ledger, nil
}
