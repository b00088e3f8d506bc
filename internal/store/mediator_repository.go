package store

import (
	"context"
	"fmt"

	"sangam-admin/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresMediatorRepository реализует MediatorRepository для PostgreSQL
type PostgresMediatorRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewMediatorRepository создает новый репозиторий посредников
func NewMediatorRepository(db *pgxpool.Pool, logger *zap.Logger) MediatorRepository {
	return &PostgresMediatorRepository{
		db:     db,
		logger: logger,
	}
}

// Create создает нового посредника
func (r *PostgresMediatorRepository) Create(ctx context.Context, mediator *models.Mediator) error {
	query := `
		INSERT INTO mediators (full_name, phone, email, referral_code, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		mediator.FullName,
		mediator.Phone,
		mediator.Email,
		mediator.ReferralCode,
		mediator.IsActive,
	).Scan(&mediator.ID, &mediator.CreatedAt, &mediator.UpdatedAt)

	if err != nil {
		return fmt.Errorf("ошибка создания посредника: %w", err)
	}

	return nil
}

// GetByID получает посредника по ID
func (r *PostgresMediatorRepository) GetByID(ctx context.Context, id int64) (*models.Mediator, error) {
	query := `
		SELECT id, full_name, phone, email, referral_code, referral_paid_total,
		       is_active, created_at, updated_at
		FROM mediators
		WHERE id = $1`

	mediator := &models.Mediator{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&mediator.ID,
		&mediator.FullName,
		&mediator.Phone,
		&mediator.Email,
		&mediator.ReferralCode,
		&mediator.ReferralPaidTotal,
		&mediator.IsActive,
		&mediator.CreatedAt,
		&mediator.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("посредник не найден")
		}
		return nil, fmt.Errorf("ошибка получения посредника: %w", err)
	}

	return mediator, nil
}

// GetByReferralCode получает посредника по реферальному коду
func (r *PostgresMediatorRepository) GetByReferralCode(ctx context.Context, referralCode string) (*models.Mediator, error) {
	query := `
		SELECT id, full_name, phone, email, referral_code, referral_paid_total,
		       is_active, created_at, updated_at
		FROM mediators
		WHERE referral_code = $1`

	mediator := &models.Mediator{}
	err := r.db.QueryRow(ctx, query, referralCode).Scan(
		&mediator.ID,
		&mediator.FullName,
		&mediator.Phone,
		&mediator.Email,
		&mediator.ReferralCode,
		&mediator.ReferralPaidTotal,
		&mediator.IsActive,
		&mediator.CreatedAt,
		&mediator.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("посредник с таким реферальным кодом не найден")
		}
		return nil, fmt.Errorf("ошибка получения посредника по коду: %w", err)
	}

	return mediator, nil
}

// GetAllActive получает всех активных посредников
func (r *PostgresMediatorRepository) GetAllActive(ctx context.Context) ([]*models.Mediator, error) {
	query := `
		SELECT id, full_name, phone, email, referral_code, referral_paid_total,
		       is_active, created_at, updated_at
		FROM mediators
		WHERE is_active = true
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения посредников: %w", err)
	}
	defer rows.Close()

	var mediators []*models.Mediator
	for rows.Next() {
		mediator := &models.Mediator{}
		err := rows.Scan(
			&mediator.ID,
			&mediator.FullName,
			&mediator.Phone,
			&mediator.Email,
			&mediator.ReferralCode,
			&mediator.ReferralPaidTotal,
			&mediator.IsActive,
			&mediator.CreatedAt,
			&mediator.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования посредника: %w", err)
		}
		mediators = append(mediators, mediator)
	}

	return mediators, nil
}

// SetReferralCode присваивает посреднику реферальный код
func (r *PostgresMediatorRepository) SetReferralCode(ctx context.Context, mediatorID int64, code string) error {
	query := `
		UPDATE mediators
		SET referral_code = $1, updated_at = NOW()
		WHERE id = $2`

	_, err := r.db.Exec(ctx, query, code, mediatorID)
	if err != nil {
		return fmt.Errorf("ошибка присвоения реферального кода: %w", err)
	}

	return nil
}

// GetPrimaryBankAccount получает основной платежный реквизит посредника
func (r *PostgresMediatorRepository) GetPrimaryBankAccount(ctx context.Context, mediatorID int64) (*models.BankAccount, error) {
	query := `
		SELECT id, mediator_id, holder_name, bank_name, account_number,
		       is_primary, is_verified, created_at
		FROM bank_accounts
		WHERE mediator_id = $1 AND is_primary = true`

	account := &models.BankAccount{}
	err := r.db.QueryRow(ctx, query, mediatorID).Scan(
		&account.ID,
		&account.MediatorID,
		&account.HolderName,
		&account.BankName,
		&account.AccountNumber,
		&account.IsPrimary,
		&account.IsVerified,
		&account.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("основной платежный реквизит не найден")
		}
		return nil, fmt.Errorf("ошибка получения платежного реквизита: %w", err)
	}

	return account, nil
}

// CreateBankAccount создает платежный реквизит посредника
func (r *PostgresMediatorRepository) CreateBankAccount(ctx context.Context, account *models.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (mediator_id, holder_name, bank_name, account_number,
		                           is_primary, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at`

	err := r.db.QueryRow(
		ctx, query,
		account.MediatorID,
		account.HolderName,
		account.BankName,
		account.AccountNumber,
		account.IsPrimary,
		account.IsVerified,
	).Scan(&account.ID, &account.CreatedAt)

	if err != nil {
		return fmt.Errorf("ошибка создания платежного реквизита: %w", err)
	}

	r.logger.Info("создан платежный реквизит",
		zap.Int64("mediator_id", account.MediatorID),
		zap.Int64("account_id", account.ID))

	return nil
}
