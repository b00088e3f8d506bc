package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Referral представляет связь между посредником и приглашенным пользователем
type Referral struct {
	ID             int64     `json:"id" db:"id"`
	MediatorID     int64     `json:"mediator_id" db:"mediator_id"`
	ReferredUserID int64     `json:"referred_user_id" db:"referred_user_id"`
	PurchasedCount int64     `json:"purchased_count" db:"purchased_count"` // Количество оплаченных действий приглашенного
	JoinedAt       time.Time `json:"joined_at" db:"joined_at"`
}

// ReferralLedger представляет сводку по рефералам посредника.
// Это производное представление: TotalReferrals и TotalPurchases
// агрегируются по таблице рефералов, TotalPaid хранится у посредника
// и увеличивается только при проведении выплаты
type ReferralLedger struct {
	MediatorID     int64           `json:"mediator_id"`
	TotalReferrals int64           `json:"total_referrals"`
	TotalPurchases int64           `json:"total_purchases"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
}

// CreateReferralRequest представляет запрос на создание реферальной связи
type CreateReferralRequest struct {
	MediatorID     int64 `json:"mediator_id" validate:"required"`
	ReferredUserID int64 `json:"referred_user_id" validate:"required"`
}
