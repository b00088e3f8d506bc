package store

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sangam-admin/pkg/models"
)

// fakeRow подставляет значения колонок вместо реального запроса к БД.
// nil в values означает NULL: соответствующий указатель не заполняется
type fakeRow struct {
	values []any
}

func (r *fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		if r.values[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

func TestScanPromotionWithPolicy(t *testing.T) {
	now := time.Now()
	policyID := int64(7)

	row := &fakeRow{values: []any{
		int64(1),                     // p.id
		int64(10),                    // p.mediator_id
		models.PlatformYoutube,       // p.platform
		"https://youtube.com/v",      // p.post_url
		int64(3500),                  // p.views_count
		int64(120),                   // p.likes_count
		int64(14),                    // p.comments_count
		decimal.NewFromInt(100),      // p.total_paid_amount
		models.PromotionStatusPaid,   // p.status
		&policyID,                    // p.policy_id
		&now,                         // p.stats_updated_at
		now,                          // p.created_at
		now,                          // p.updated_at
		&policyID,                    // pol.id
		ptr("Базовая"),               // pol.name
		ptr(int64(1000)),             // pol.views_required
		ptr(int64(0)),                // pol.likes_required
		ptr(int64(0)),                // pol.comments_required
		ptr(false),                   // pol.is_likes_enabled
		ptr(false),                   // pol.is_comments_enabled
		ptr(decimal.NewFromInt(50)),  // pol.payout_amount_per_unit
		ptr(30),                      // pol.payout_period_days
		ptr(true),                    // pol.is_active
		ptr(true),                    // pol.is_default
		&now,                         // pol.created_at
		&now,                         // pol.updated_at
	}}

	promotion, err := scanPromotionWithPolicy(row)
	if err != nil {
		t.Fatalf("неожиданная ошибка сканирования: %v", err)
	}

	if promotion.ID != 1 || promotion.MediatorID != 10 {
		t.Errorf("неверные идентификаторы: %d / %d", promotion.ID, promotion.MediatorID)
	}
	if promotion.ViewsCount != 3500 {
		t.Errorf("ожидалось 3500 просмотров, получено %d", promotion.ViewsCount)
	}
	if promotion.Policy == nil {
		t.Fatal("политика должна быть собрана из JOIN колонок")
	}
	if promotion.Policy.ID != 7 || promotion.Policy.ViewsRequired != 1000 {
		t.Errorf("неверная политика: id=%d, views_required=%d", promotion.Policy.ID, promotion.Policy.ViewsRequired)
	}
	if !promotion.Policy.PayoutAmountPerUnit.Equal(decimal.NewFromInt(50)) {
		t.Errorf("неверная сумма за единицу: %s", promotion.Policy.PayoutAmountPerUnit)
	}
}

func TestScanPromotionWithoutPolicy(t *testing.T) {
	now := time.Now()

	// Все колонки политики NULL: продвижение еще без политики
	row := &fakeRow{values: []any{
		int64(2),
		int64(10),
		models.PlatformInstagram,
		"https://instagram.com/p/x",
		int64(50),
		int64(2),
		int64(0),
		decimal.Zero,
		models.PromotionStatusPending,
		nil, // p.policy_id
		nil, // p.stats_updated_at
		now,
		now,
		nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil,
	}}

	promotion, err := scanPromotionWithPolicy(row)
	if err != nil {
		t.Fatalf("неожиданная ошибка сканирования: %v", err)
	}

	if promotion.Policy != nil {
		t.Error("без policy_id политика должна остаться nil")
	}
	if promotion.PolicyID != nil {
		t.Error("policy_id должен остаться nil")
	}
}

func ptr[T any](v T) *T {
	return &v
}
