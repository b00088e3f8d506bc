package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNothingToPayout возвращается, когда у посредника нет доступного
// баланса для выплаты — запрос отклоняется локально, без обращения
// к платежной системе
var ErrNothingToPayout = errors.New("нет доступного баланса для выплаты")

// PayoutStatus представляет статус выплаты
type PayoutStatus string

const (
	PayoutStatusRequested PayoutStatus = "requested"
	PayoutStatusCompleted PayoutStatus = "completed"
	PayoutStatusFailed    PayoutStatus = "failed"
)

// IsValid проверяет валидность статуса выплаты
func (ps PayoutStatus) IsValid() bool {
	switch ps {
	case PayoutStatusRequested, PayoutStatusCompleted, PayoutStatusFailed:
		return true
	default:
		return false
	}
}

// Payout представляет одну проведенную выплату посреднику.
// Суммы по продвижениям и рефералам фиксируются в момент расчета и
// одновременно добавляются к total_paid_amount продвижений и
// referral_paid_total посредника в одной транзакции
type Payout struct {
	ID               int64           `json:"id" db:"id"`
	MediatorID       int64           `json:"mediator_id" db:"mediator_id"`
	Reference        string          `json:"reference" db:"reference"` // Внешний идентификатор выплаты
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	PromotionsAmount decimal.Decimal `json:"promotions_amount" db:"promotions_amount"`
	ReferralsAmount  decimal.Decimal `json:"referrals_amount" db:"referrals_amount"`
	BankAccountID    int64           `json:"bank_account_id" db:"bank_account_id"`
	Status           PayoutStatus    `json:"status" db:"status"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	CompletedAt      *time.Time      `json:"completed_at" db:"completed_at"`

	// Разбивка по продвижениям (для JOIN запросов)
	Items []PayoutItem `json:"items,omitempty" db:"-"`
}

// PayoutItem представляет долю выплаты, начисленную за одно продвижение
type PayoutItem struct {
	ID          int64           `json:"id" db:"id"`
	PayoutID    int64           `json:"payout_id" db:"payout_id"`
	PromotionID int64           `json:"promotion_id" db:"promotion_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
}

// PayoutBalance представляет текущий доступный к выплате баланс посредника
type PayoutBalance struct {
	MediatorID       int64             `json:"mediator_id"`
	PromotionsAmount decimal.Decimal   `json:"promotions_amount"`
	ReferralsAmount  decimal.Decimal   `json:"referrals_amount"`
	Total            decimal.Decimal   `json:"total"`
	Promotions       []PromotionAmount `json:"promotions,omitempty"`
}

// PromotionAmount представляет доступную к выплате сумму по одному продвижению
type PromotionAmount struct {
	PromotionID int64           `json:"promotion_id"`
	Amount      decimal.Decimal `json:"amount"`
}
