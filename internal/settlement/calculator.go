// Package settlement содержит чистые функции расчета выплат посредникам.
//
// Функции не выполняют ввод-вывод и не хранят состояние, их можно вызывать
// сколько угодно раз и из любого числа горутин. Защиту от двойной выплаты
// обеспечивает вызывающая сторона: цикл "рассчитать — выплатить — записать"
// должен выполняться атомарно на одного посредника (см. PayoutRepository).
package settlement

import (
	"github.com/shopspring/decimal"

	"sangam-admin/pkg/models"
)

// UnitsEarned возвращает количество полных единиц выплаты, накопленных
// продвижением по политике. Единица — минимальное число полных порций
// среди просмотров и всех включенных условий (лайки, комментарии):
// отстающая метрика ограничивает итог, метрики не усредняются
func UnitsEarned(promotion *models.Promotion, policy *models.PayoutPolicy) int64 {
	if promotion == nil || policy == nil {
		return 0
	}

	units := nonNegative(promotion.ViewsCount) / effectiveDivisor(policy.ViewsRequired)

	if policy.IsLikesEnabled {
		likeUnits := nonNegative(promotion.LikesCount) / effectiveDivisor(policy.LikesRequired)
		if likeUnits < units {
			units = likeUnits
		}
	}

	if policy.IsCommentsEnabled {
		commentUnits := nonNegative(promotion.CommentsCount) / effectiveDivisor(policy.CommentsRequired)
		if commentUnits < units {
			units = commentUnits
		}
	}

	return units
}

// PayableAmount возвращает сумму, доступную к выплате по продвижению
// с учетом уже выплаченного. Результат никогда не бывает отрицательным:
// если заработано меньше выплаченного (например, после административного
// ужесточения политики), возвращается ноль, а не требование возврата.
// Отсутствие политики — не ошибка, а нулевая выплата
func PayableAmount(promotion *models.Promotion, policy *models.PayoutPolicy) decimal.Decimal {
	if promotion == nil || policy == nil {
		return decimal.Zero
	}

	perUnit := policy.PayoutAmountPerUnit
	if perUnit.IsNegative() {
		perUnit = decimal.Zero
	}

	earned := perUnit.Mul(decimal.NewFromInt(UnitsEarned(promotion, policy)))

	paid := promotion.TotalPaidAmount
	if paid.IsNegative() {
		paid = decimal.Zero
	}

	payable := earned.Sub(paid)
	if payable.IsNegative() {
		return decimal.Zero
	}
	return payable
}

// ReferralPayable возвращает сумму, доступную к выплате по рефералам
// посредника: каждое оплаченное действие приглашенного пользователя
// дает фиксированное вознаграждение, без порогов
func ReferralPayable(ledger *models.ReferralLedger, rewardPerPurchase decimal.Decimal) decimal.Decimal {
	if ledger == nil {
		return decimal.Zero
	}

	if rewardPerPurchase.IsNegative() {
		rewardPerPurchase = decimal.Zero
	}

	earned := rewardPerPurchase.Mul(decimal.NewFromInt(nonNegative(ledger.TotalPurchases)))

	paid := ledger.TotalPaid
	if paid.IsNegative() {
		paid = decimal.Zero
	}

	payable := earned.Sub(paid)
	if payable.IsNegative() {
		return decimal.Zero
	}
	return payable
}

// TotalPayable возвращает суммарный доступный баланс посредника:
// выплаты по всем его продвижениям плюс реферальные начисления.
// Каждое продвижение считается по политике, привязанной к нему сейчас
func TotalPayable(promotions []*models.Promotion, ledger *models.ReferralLedger, rewardPerPurchase decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, promotion := range promotions {
		if promotion == nil {
			continue
		}
		total = total.Add(PayableAmount(promotion, promotion.Policy))
	}
	return total.Add(ReferralPayable(ledger, rewardPerPurchase))
}

// effectiveDivisor возвращает безопасный делитель: ноль или отрицательное
// требование заменяется единицей, чтобы исключить деление на ноль
func effectiveDivisor(required int64) int64 {
	if required <= 0 {
		return 1
	}
	return required
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
