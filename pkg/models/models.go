package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mediator представляет посредника — агента, который продвигает платформу
// в социальных сетях или приглашает новых пользователей по реферальному коду
type Mediator struct {
	ID                int64           `json:"id" db:"id"`
	FullName          string          `json:"full_name" db:"full_name"`
	Phone             string          `json:"phone" db:"phone"`
	Email             string          `json:"email" db:"email"`
	ReferralCode      *string         `json:"referral_code" db:"referral_code"`             // Уникальный реферальный код
	ReferralPaidTotal decimal.Decimal `json:"referral_paid_total" db:"referral_paid_total"` // Всего выплачено за рефералов
	IsActive          bool            `json:"is_active" db:"is_active"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// BankAccount представляет платежный реквизит посредника
type BankAccount struct {
	ID            int64     `json:"id" db:"id"`
	MediatorID    int64     `json:"mediator_id" db:"mediator_id"`
	HolderName    string    `json:"holder_name" db:"holder_name"`
	BankName      string    `json:"bank_name" db:"bank_name"`
	AccountNumber string    `json:"account_number" db:"account_number"`
	IsPrimary     bool      `json:"is_primary" db:"is_primary"`
	IsVerified    bool      `json:"is_verified" db:"is_verified"` // Подтвержден ли реквизит администратором
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// PayoutPolicy представляет правила расчета выплат за продвижение.
// Одна запись — одна версия правил; ровно одна политика в системе
// может быть помечена как политика по умолчанию
type PayoutPolicy struct {
	ID                  int64           `json:"id" db:"id"`
	Name                string          `json:"name" db:"name"`
	ViewsRequired       int64           `json:"views_required" db:"views_required"`       // Просмотров на одну единицу выплаты
	LikesRequired       int64           `json:"likes_required" db:"likes_required"`       // Лайков на единицу (если включено)
	CommentsRequired    int64           `json:"comments_required" db:"comments_required"` // Комментариев на единицу (если включено)
	IsLikesEnabled      bool            `json:"is_likes_enabled" db:"is_likes_enabled"`
	IsCommentsEnabled   bool            `json:"is_comments_enabled" db:"is_comments_enabled"`
	PayoutAmountPerUnit decimal.Decimal `json:"payout_amount_per_unit" db:"payout_amount_per_unit"`
	PayoutPeriodDays    int             `json:"payout_period_days" db:"payout_period_days"` // Информационная периодичность
	IsActive            bool            `json:"is_active" db:"is_active"`
	IsDefault           bool            `json:"is_default" db:"is_default"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}

// Platform представляет социальную площадку продвижения
type Platform string

const (
	PlatformYoutube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformTelegram  Platform = "telegram"
)

// IsValid проверяет корректность площадки
func (p Platform) IsValid() bool {
	switch p {
	case PlatformYoutube, PlatformInstagram, PlatformFacebook, PlatformTelegram:
		return true
	default:
		return false
	}
}

// PromotionStatus представляет административный статус продвижения.
// Статус не участвует в расчете выплат, это рабочий ярлык администратора
type PromotionStatus string

const (
	PromotionStatusPending  PromotionStatus = "pending"
	PromotionStatusVerified PromotionStatus = "verified"
	PromotionStatusPaid     PromotionStatus = "paid"
	PromotionStatusRejected PromotionStatus = "rejected"
)

// IsValid проверяет валидность статуса продвижения
func (ps PromotionStatus) IsValid() bool {
	switch ps {
	case PromotionStatusPending, PromotionStatusVerified, PromotionStatusPaid, PromotionStatusRejected:
		return true
	default:
		return false
	}
}

// Promotion представляет одну публикацию посредника о платформе.
// Счетчики вовлеченности обновляются внешним сборщиком статистики и
// никогда не убывают; TotalPaidAmount увеличивается только при
// проведении выплаты
type Promotion struct {
	ID              int64           `json:"id" db:"id"`
	MediatorID      int64           `json:"mediator_id" db:"mediator_id"`
	Platform        Platform        `json:"platform" db:"platform"`
	PostURL         string          `json:"post_url" db:"post_url"`
	ViewsCount      int64           `json:"views_count" db:"views_count"`
	LikesCount      int64           `json:"likes_count" db:"likes_count"`
	CommentsCount   int64           `json:"comments_count" db:"comments_count"`
	TotalPaidAmount decimal.Decimal `json:"total_paid_amount" db:"total_paid_amount"`
	Status          PromotionStatus `json:"status" db:"status"`
	PolicyID        *int64          `json:"policy_id" db:"policy_id"`
	StatsUpdatedAt  *time.Time      `json:"stats_updated_at" db:"stats_updated_at"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`

	// Связанная политика выплат (для JOIN запросов)
	Policy *PayoutPolicy `json:"policy,omitempty" db:"-"`
}

// CreatePolicyRequest представляет запрос на создание политики выплат
type CreatePolicyRequest struct {
	Name                string          `json:"name" validate:"required"`
	ViewsRequired       int64           `json:"views_required" validate:"required,gt=0"`
	LikesRequired       int64           `json:"likes_required" validate:"gte=0"`
	CommentsRequired    int64           `json:"comments_required" validate:"gte=0"`
	IsLikesEnabled      bool            `json:"is_likes_enabled"`
	IsCommentsEnabled   bool            `json:"is_comments_enabled"`
	PayoutAmountPerUnit decimal.Decimal `json:"payout_amount_per_unit"`
	PayoutPeriodDays    int             `json:"payout_period_days" validate:"gte=0"`
	IsDefault           bool            `json:"is_default"`
}

// UpdatePolicyRequest представляет запрос на обновление политики выплат
type UpdatePolicyRequest struct {
	Name                *string          `json:"name,omitempty"`
	ViewsRequired       *int64           `json:"views_required,omitempty"`
	LikesRequired       *int64           `json:"likes_required,omitempty"`
	CommentsRequired    *int64           `json:"comments_required,omitempty"`
	IsLikesEnabled      *bool            `json:"is_likes_enabled,omitempty"`
	IsCommentsEnabled   *bool            `json:"is_comments_enabled,omitempty"`
	PayoutAmountPerUnit *decimal.Decimal `json:"payout_amount_per_unit,omitempty"`
	PayoutPeriodDays    *int             `json:"payout_period_days,omitempty"`
	IsActive            *bool            `json:"is_active,omitempty"`
}

// CreatePromotionRequest представляет запрос на подачу продвижения
type CreatePromotionRequest struct {
	MediatorID int64    `json:"mediator_id" validate:"required"`
	Platform   Platform `json:"platform" validate:"required"`
	PostURL    string   `json:"post_url" validate:"required,url"`
}
