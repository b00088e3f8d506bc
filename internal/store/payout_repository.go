package store

import (
	"context"
	"fmt"

	"sangam-admin/internal/settlement"
	"sangam-admin/pkg/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PostgresPayoutRepository реализует PayoutRepository для PostgreSQL
type PostgresPayoutRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPayoutRepository создает новый репозиторий выплат
func NewPayoutRepository(db *pgxpool.Pool, logger *zap.Logger) PayoutRepository {
	return &PostgresPayoutRepository{
		db:     db,
		logger: logger,
	}
}

// Settle атомарно проводит выплату посредника. Вся последовательность
// "пересчитать — выплатить — записать выплаченное" выполняется в одной
// транзакции под advisory-блокировкой посредника: два одновременных
// запроса не могут оба увидеть баланс до списания и провести выплату
// дважды. Внутри блокировки баланс пересчитывается заново, поэтому
// расчет, сделанный вызывающей стороной до Settle, носит справочный
// характер
func (r *PostgresPayoutRepository) Settle(ctx context.Context, mediatorID int64, bankAccountID int64, rewardPerPurchase decimal.Decimal) (*models.Payout, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Сериализация по посреднику: блокировка держится до конца транзакции
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, mediatorID); err != nil {
		return nil, fmt.Errorf("ошибка получения блокировки посредника: %w", err)
	}

	promotions, err := r.promotionsForUpdate(ctx, tx, mediatorID)
	if err != nil {
		return nil, err
	}

	ledger, err := r.ledgerForUpdate(ctx, tx, mediatorID)
	if err != nil {
		return nil, err
	}

	// Пересчет внутри блокировки
	var (
		promotionsAmount = decimal.Zero
		items            []models.PayoutItem
	)
	for _, promotion := range promotions {
		amount := settlement.PayableAmount(promotion, promotion.Policy)
		if amount.IsZero() {
			continue
		}
		promotionsAmount = promotionsAmount.Add(amount)
		items = append(items, models.PayoutItem{
			PromotionID: promotion.ID,
			Amount:      amount,
		})
	}

	referralsAmount := settlement.ReferralPayable(ledger, rewardPerPurchase)
	total := promotionsAmount.Add(referralsAmount)

	if total.IsZero() {
		return nil, models.ErrNothingToPayout
	}

	// Записываем выплаченное по каждому продвижению
	for _, item := range items {
		_, err := tx.Exec(ctx, `
			UPDATE promotions
			SET total_paid_amount = total_paid_amount + $1, updated_at = NOW()
			WHERE id = $2`, item.Amount, item.PromotionID)
		if err != nil {
			return nil, fmt.Errorf("ошибка записи выплаты по продвижению %d: %w", item.PromotionID, err)
		}
	}

	// Записываем выплаченное по рефералам
	if referralsAmount.IsPositive() {
		_, err := tx.Exec(ctx, `
			UPDATE mediators
			SET referral_paid_total = referral_paid_total + $1, updated_at = NOW()
			WHERE id = $2`, referralsAmount, mediatorID)
		if err != nil {
			return nil, fmt.Errorf("ошибка записи реферальной выплаты: %w", err)
		}
	}

	payout := &models.Payout{
		MediatorID:       mediatorID,
		Reference:        uuid.NewString(),
		Amount:           total,
		PromotionsAmount: promotionsAmount,
		ReferralsAmount:  referralsAmount,
		BankAccountID:    bankAccountID,
		Status:           models.PayoutStatusRequested,
		Items:            items,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO payouts (mediator_id, reference, amount, promotions_amount,
		                     referrals_amount, bank_account_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at`,
		payout.MediatorID,
		payout.Reference,
		payout.Amount,
		payout.PromotionsAmount,
		payout.ReferralsAmount,
		payout.BankAccountID,
		payout.Status,
	).Scan(&payout.ID, &payout.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания записи выплаты: %w", err)
	}

	for i := range payout.Items {
		payout.Items[i].PayoutID = payout.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO payout_items (payout_id, promotion_id, amount)
			VALUES ($1, $2, $3)
			RETURNING id`,
			payout.ID, payout.Items[i].PromotionID, payout.Items[i].Amount,
		).Scan(&payout.Items[i].ID)
		if err != nil {
			return nil, fmt.Errorf("ошибка создания позиции выплаты: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции выплаты: %w", err)
	}

	r.logger.Info("выплата проведена",
		zap.Int64("mediator_id", mediatorID),
		zap.String("reference", payout.Reference),
		zap.String("amount", payout.Amount.String()),
		zap.String("promotions_amount", payout.PromotionsAmount.String()),
		zap.String("referrals_amount", payout.ReferralsAmount.String()))

	return payout, nil
}

// promotionsForUpdate читает продвижения посредника с политиками внутри транзакции
func (r *PostgresPayoutRepository) promotionsForUpdate(ctx context.Context, tx pgx.Tx, mediatorID int64) ([]*models.Promotion, error) {
	rows, err := tx.Query(ctx, promotionWithPolicyQuery+` WHERE p.mediator_id = $1 ORDER BY p.id`, mediatorID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения продвижений в транзакции: %w", err)
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

// ledgerForUpdate читает реферальную сводку посредника внутри транзакции
func (r *PostgresPayoutRepository) ledgerForUpdate(ctx context.Context, tx pgx.Tx, mediatorID int64) (*models.ReferralLedger, error) {
	ledger := &models.ReferralLedger{}
	err := tx.QueryRow(ctx, `
		SELECT m.id,
		       COUNT(r.id),
		       COALESCE(SUM(r.purchased_count), 0),
		       m.referral_paid_total
		FROM mediators m
		LEFT JOIN referrals r ON r.mediator_id = m.id
		WHERE m.id = $1
		GROUP BY m.id, m.referral_paid_total`, mediatorID).Scan(
		&ledger.MediatorID,
		&ledger.TotalReferrals,
		&ledger.TotalPurchases,
		&ledger.TotalPaid,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("посредник не найден")
		}
		return nil, fmt.Errorf("ошибка чтения реферальной сводки в транзакции: %w", err)
	}

	return ledger, nil
}

// GetByMediatorID получает историю выплат посредника
func (r *PostgresPayoutRepository) GetByMediatorID(ctx context.Context, mediatorID int64) ([]*models.Payout, error) {
	query := `
		SELECT id, mediator_id, reference, amount, promotions_amount,
		       referrals_amount, bank_account_id, status, created_at, completed_at
		FROM payouts
		WHERE mediator_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, mediatorID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории выплат: %w", err)
	}
	defer rows.Close()

	var payouts []*models.Payout
	for rows.Next() {
		payout := &models.Payout{}
		err := rows.Scan(
			&payout.ID,
			&payout.MediatorID,
			&payout.Reference,
			&payout.Amount,
			&payout.PromotionsAmount,
			&payout.ReferralsAmount,
			&payout.BankAccountID,
			&payout.Status,
			&payout.CreatedAt,
			&payout.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования выплаты: %w", err)
		}
		payouts = append(payouts, payout)
	}

	return payouts, nil
}

// GetByReference получает выплату по внешнему идентификатору
func (r *PostgresPayoutRepository) GetByReference(ctx context.Context, reference string) (*models.Payout, error) {
	query := `
		SELECT id, mediator_id, reference, amount, promotions_amount,
		       referrals_amount, bank_account_id, status, created_at, completed_at
		FROM payouts
		WHERE reference = $1`

	payout := &models.Payout{}
	err := r.db.QueryRow(ctx, query, reference).Scan(
		&payout.ID,
		&payout.MediatorID,
		&payout.Reference,
		&payout.Amount,
		&payout.PromotionsAmount,
		&payout.ReferralsAmount,
		&payout.BankAccountID,
		&payout.Status,
		&payout.CreatedAt,
		&payout.CompletedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("выплата не найдена")
		}
		return nil, fmt.Errorf("ошибка получения выплаты: %w", err)
	}

	return payout, nil
}
