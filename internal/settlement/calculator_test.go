package settlement

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"sangam-admin/pkg/models"
)

func viewsOnlyPolicy() *models.PayoutPolicy {
	return &models.PayoutPolicy{
		ID:                  1,
		Name:                "Только просмотры",
		ViewsRequired:       1000,
		PayoutAmountPerUnit: decimal.NewFromInt(50),
		IsActive:            true,
	}
}

func multiGatePolicy() *models.PayoutPolicy {
	return &models.PayoutPolicy{
		ID:                  2,
		Name:                "Просмотры, лайки и комментарии",
		ViewsRequired:       1000,
		LikesRequired:       50,
		CommentsRequired:    10,
		IsLikesEnabled:      true,
		IsCommentsEnabled:   true,
		PayoutAmountPerUnit: decimal.NewFromInt(20),
		IsActive:            true,
	}
}

func TestPayableAmount_ViewsOnly(t *testing.T) {
	// 3500 просмотров при пороге 1000 — три полных единицы по 50,
	// из заработанных 150 уже выплачено 100
	promotion := &models.Promotion{
		ViewsCount:      3500,
		TotalPaidAmount: decimal.NewFromInt(100),
	}

	payable := PayableAmount(promotion, viewsOnlyPolicy())
	assert.True(t, decimal.NewFromInt(50).Equal(payable), "ожидалось 50, получено %s", payable)
}

func TestPayableAmount_MultiGate(t *testing.T) {
	// Просмотров хватает на 5 единиц, комментариев на 99, но лайков
	// только на 2 — отстающая метрика ограничивает итог
	promotion := &models.Promotion{
		ViewsCount:    5000,
		LikesCount:    120,
		CommentsCount: 999,
	}

	assert.Equal(t, int64(2), UnitsEarned(promotion, multiGatePolicy()))

	payable := PayableAmount(promotion, multiGatePolicy())
	assert.True(t, decimal.NewFromInt(40).Equal(payable), "ожидалось 40, получено %s", payable)
}

func TestUnitsEarned_GateMinimum(t *testing.T) {
	// units = min(10, 3, 7) независимо от порядка проверок
	policy := &models.PayoutPolicy{
		ViewsRequired:     100,
		LikesRequired:     10,
		CommentsRequired:  10,
		IsLikesEnabled:    true,
		IsCommentsEnabled: true,
	}
	promotion := &models.Promotion{
		ViewsCount:    1000, // 10 единиц
		LikesCount:    30,   // 3 единицы
		CommentsCount: 70,   // 7 единиц
	}

	assert.Equal(t, int64(3), UnitsEarned(promotion, policy))
}

func TestUnitsEarned_DisabledGatesIgnored(t *testing.T) {
	// Выключенные условия не участвуют: нулевые лайки не мешают
	promotion := &models.Promotion{
		ViewsCount:    4200,
		LikesCount:    0,
		CommentsCount: 0,
	}

	assert.Equal(t, int64(4), UnitsEarned(promotion, viewsOnlyPolicy()))
}

func TestUnitsEarned_GatingMetricBelowOneUnit(t *testing.T) {
	// Пока отстающая метрика не набрала полную единицу, выплата нулевая,
	// даже если остальные метрики далеко впереди
	promotion := &models.Promotion{
		ViewsCount:    100000,
		LikesCount:    49,
		CommentsCount: 100000,
	}

	assert.Equal(t, int64(0), UnitsEarned(promotion, multiGatePolicy()))
	assert.True(t, PayableAmount(promotion, multiGatePolicy()).IsZero())
}

func TestUnitsEarned_DefensiveDivisors(t *testing.T) {
	tests := []struct {
		name      string
		policy    *models.PayoutPolicy
		promotion *models.Promotion
		expected  int64
	}{
		{
			name:      "нулевой порог просмотров: одна единица за просмотр",
			policy:    &models.PayoutPolicy{ViewsRequired: 0},
			promotion: &models.Promotion{ViewsCount: 7},
			expected:  7,
		},
		{
			name:      "отрицательный порог просмотров: одна единица за просмотр",
			policy:    &models.PayoutPolicy{ViewsRequired: -5},
			promotion: &models.Promotion{ViewsCount: 3},
			expected:  3,
		},
		{
			name: "включенные лайки с нулевым порогом: делитель единица, не деление на ноль",
			policy: &models.PayoutPolicy{
				ViewsRequired:  10,
				LikesRequired:  0,
				IsLikesEnabled: true,
			},
			promotion: &models.Promotion{ViewsCount: 100, LikesCount: 4},
			expected:  4,
		},
		{
			name:      "отрицательные счетчики приводятся к нулю",
			policy:    &models.PayoutPolicy{ViewsRequired: 10},
			promotion: &models.Promotion{ViewsCount: -50},
			expected:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UnitsEarned(tt.promotion, tt.policy))
		})
	}
}

func TestPayableAmount_MissingPolicy(t *testing.T) {
	// Отсутствие политики — не ошибка: продвижение просто еще не оплачиваемо
	promotion := &models.Promotion{ViewsCount: 1000000}
	assert.True(t, PayableAmount(promotion, nil).IsZero())
	assert.True(t, PayableAmount(nil, viewsOnlyPolicy()).IsZero())
}

func TestPayableAmount_NeverNegative(t *testing.T) {
	// Выплачено больше, чем заработано по текущей политике
	// (административное ужесточение задним числом) — ноль, не минус
	promotion := &models.Promotion{
		ViewsCount:      1500,
		TotalPaidAmount: decimal.NewFromInt(500),
	}

	payable := PayableAmount(promotion, viewsOnlyPolicy())
	assert.True(t, payable.IsZero(), "ожидался ноль, получено %s", payable)
}

func TestPayableAmount_MonotonicInPaid(t *testing.T) {
	// Увеличение выплаченного на дельту уменьшает доступное ровно на дельту
	promotion := &models.Promotion{ViewsCount: 4000}
	policy := viewsOnlyPolicy()

	base := PayableAmount(promotion, policy)
	assert.True(t, decimal.NewFromInt(200).Equal(base))

	promotion.TotalPaidAmount = decimal.NewFromInt(70)
	assert.True(t, decimal.NewFromInt(130).Equal(PayableAmount(promotion, policy)))

	promotion.TotalPaidAmount = decimal.NewFromInt(200)
	assert.True(t, PayableAmount(promotion, policy).IsZero())
}

func TestPayableAmount_Idempotent(t *testing.T) {
	promotion := &models.Promotion{ViewsCount: 2600}
	policy := viewsOnlyPolicy()

	first := PayableAmount(promotion, policy)
	second := PayableAmount(promotion, policy)
	assert.True(t, first.Equal(second))

	// Имитация расчета: записываем выплаченное на рассчитанную сумму,
	// повторный расчет возвращает ноль, пока счетчики не продвинулись
	promotion.TotalPaidAmount = promotion.TotalPaidAmount.Add(first)
	assert.True(t, PayableAmount(promotion, policy).IsZero())

	// Счетчики продвинулись — появилась новая единица
	promotion.ViewsCount = 3600
	assert.True(t, decimal.NewFromInt(50).Equal(PayableAmount(promotion, policy)))
}

func TestReferralPayable_Linearity(t *testing.T) {
	reward := decimal.NewFromInt(20)

	tests := []struct {
		name      string
		totalPaid int64
		expected  int64
	}{
		{"ничего не выплачено", 0, 100},
		{"выплачено частично", 60, 40},
		{"выплачено полностью", 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &models.ReferralLedger{
				TotalPurchases: 5,
				TotalPaid:      decimal.NewFromInt(tt.totalPaid),
			}

			payable := ReferralPayable(ledger, reward)
			assert.True(t, decimal.NewFromInt(tt.expected).Equal(payable),
				"ожидалось %d, получено %s", tt.expected, payable)
		})
	}
}

func TestReferralPayable_NeverNegative(t *testing.T) {
	ledger := &models.ReferralLedger{
		TotalPurchases: 2,
		TotalPaid:      decimal.NewFromInt(1000),
	}

	assert.True(t, ReferralPayable(ledger, decimal.NewFromInt(20)).IsZero())
	assert.True(t, ReferralPayable(nil, decimal.NewFromInt(20)).IsZero())
}

func TestTotalPayable(t *testing.T) {
	policy := viewsOnlyPolicy()
	promotions := []*models.Promotion{
		{ViewsCount: 3500, TotalPaidAmount: decimal.NewFromInt(100), Policy: policy}, // 50
		{ViewsCount: 900, Policy: policy},                                            // 0, неполная единица
		{ViewsCount: 1000000},                                                        // 0, без политики
	}
	ledger := &models.ReferralLedger{TotalPurchases: 5}

	total := TotalPayable(promotions, ledger, decimal.NewFromInt(20))
	assert.True(t, decimal.NewFromInt(150).Equal(total), "ожидалось 150, получено %s", total)
}

func TestTotalPayable_ZeroBalance(t *testing.T) {
	// У посредника два продвижения без начислений и пустая реферальная
	// сводка — итоговый баланс нулевой, запрос на выплату должен быть
	// отклонен вызывающей стороной
	policy := viewsOnlyPolicy()
	promotions := []*models.Promotion{
		{ViewsCount: 10, Policy: policy},
		{ViewsCount: 999, Policy: policy},
	}
	ledger := &models.ReferralLedger{TotalPurchases: 0}

	assert.True(t, TotalPayable(promotions, ledger, decimal.NewFromInt(20)).IsZero())
}

func TestPayableAmount_PolicyChangeAppliesRetroactively(t *testing.T) {
	// Политика не версионируется на момент выплаты: изменение ставки
	// меняет результат следующего расчета для тех же счетчиков
	promotion := &models.Promotion{ViewsCount: 3000}
	policy := viewsOnlyPolicy()

	assert.True(t, decimal.NewFromInt(150).Equal(PayableAmount(promotion, policy)))

	policy.PayoutAmountPerUnit = decimal.NewFromInt(10)
	assert.True(t, decimal.NewFromInt(30).Equal(PayableAmount(promotion, policy)))
}
