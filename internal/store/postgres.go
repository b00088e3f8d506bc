package store

import (
	"context"
	"fmt"
	"time"

	"sangam-admin/internal/config"
	"sangam-admin/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store представляет интерфейс для работы с базой данных
type Store interface {
	Mediator() MediatorRepository
	Policy() PolicyRepository
	Promotion() PromotionRepository
	Referral() ReferralRepository
	Payout() PayoutRepository
	DB() *pgxpool.Pool
	Close() error
}

// store реализует интерфейс Store
type store struct {
	db        *pgxpool.Pool
	logger    *zap.Logger
	mediator  MediatorRepository
	policy    PolicyRepository
	promotion PromotionRepository
	referral  ReferralRepository
	payout    PayoutRepository
}

// MediatorRepository интерфейс для работы с посредниками
type MediatorRepository interface {
	Create(ctx context.Context, mediator *models.Mediator) error
	GetByID(ctx context.Context, id int64) (*models.Mediator, error)
	GetByReferralCode(ctx context.Context, referralCode string) (*models.Mediator, error)
	GetAllActive(ctx context.Context) ([]*models.Mediator, error)
	SetReferralCode(ctx context.Context, mediatorID int64, code string) error
	GetPrimaryBankAccount(ctx context.Context, mediatorID int64) (*models.BankAccount, error)
	CreateBankAccount(ctx context.Context, account *models.BankAccount) error
}

// PolicyRepository интерфейс для работы с политиками выплат
type PolicyRepository interface {
	Create(ctx context.Context, policy *models.PayoutPolicy) error
	GetByID(ctx context.Context, id int64) (*models.PayoutPolicy, error)
	GetDefault(ctx context.Context) (*models.PayoutPolicy, error)
	GetAll(ctx context.Context) ([]*models.PayoutPolicy, error)
	Update(ctx context.Context, policy *models.PayoutPolicy) error
	SetDefault(ctx context.Context, policyID int64) error
}

// PromotionRepository интерфейс для работы с продвижениями
type PromotionRepository interface {
	Create(ctx context.Context, promotion *models.Promotion) error
	GetByID(ctx context.Context, id int64) (*models.Promotion, error)
	GetByMediatorID(ctx context.Context, mediatorID int64) ([]*models.Promotion, error)
	GetActive(ctx context.Context) ([]*models.Promotion, error)
	UpdateStats(ctx context.Context, promotionID int64, views, likes, comments int64) error
	UpdateStatus(ctx context.Context, promotionID int64, status models.PromotionStatus) error
	AssignPolicy(ctx context.Context, promotionID int64, policyID int64) error
}

// ReferralRepository интерфейс для работы с рефералами
type ReferralRepository interface {
	Create(ctx context.Context, referral *models.Referral) error
	GetByReferredUserID(ctx context.Context, referredUserID int64) (*models.Referral, error)
	GetByMediatorID(ctx context.Context, mediatorID int64) ([]*models.Referral, error)
	IncrementPurchases(ctx context.Context, referredUserID int64, count int64) error
	GetLedger(ctx context.Context, mediatorID int64) (*models.ReferralLedger, error)
}

// PayoutRepository интерфейс для проведения и просмотра выплат
type PayoutRepository interface {
	// Settle атомарно рассчитывает и фиксирует выплату посредника:
	// пересчет и запись выплаченного выполняются в одной транзакции
	// под advisory-блокировкой посредника
	Settle(ctx context.Context, mediatorID int64, bankAccountID int64, rewardPerPurchase decimal.Decimal) (*models.Payout, error)
	GetByMediatorID(ctx context.Context, mediatorID int64) ([]*models.Payout, error)
	GetByReference(ctx context.Context, reference string) (*models.Payout, error)
}

// NewStore создает новое подключение к базе данных
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Создание пула подключений
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	// Настройка пула
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	// Создание пула
	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	// Проверка подключения
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ошибка проверки подключения к базе данных: %w", err)
	}

	logger.Info("успешное подключение к базе данных PostgreSQL")

	s := &store{
		db:     db,
		logger: logger,
	}

	// Инициализация репозиториев
	s.mediator = NewMediatorRepository(db, logger)
	s.policy = NewPolicyRepository(db, logger)
	s.promotion = NewPromotionRepository(db, logger)
	s.referral = NewReferralRepository(db, logger)
	s.payout = NewPayoutRepository(db, logger)

	return s, nil
}

// Mediator возвращает репозиторий посредников
func (s *store) Mediator() MediatorRepository {
	return s.mediator
}

// Policy возвращает репозиторий политик выплат
func (s *store) Policy() PolicyRepository {
	return s.policy
}

// Promotion возвращает репозиторий продвижений
func (s *store) Promotion() PromotionRepository {
	return s.promotion
}

// Referral возвращает репозиторий рефералов
func (s *store) Referral() ReferralRepository {
	return s.referral
}

// Payout возвращает репозиторий выплат
func (s *store) Payout() PayoutRepository {
	return s.payout
}

// DB возвращает подключение к базе данных
func (s *store) DB() *pgxpool.Pool {
	return s.db
}

// Close закрывает подключение к базе данных
func (s *store) Close() error {
	s.logger.Info("закрытие подключения к базе данных")
	s.db.Close()
	return nil
}
