package payout

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"sangam-admin/internal/settlement"
	"sangam-admin/pkg/models"
)

type fakePromotionRepo struct {
	promotions []*models.Promotion
}

func (f *fakePromotionRepo) GetByMediatorID(ctx context.Context, mediatorID int64) ([]*models.Promotion, error) {
	return f.promotions, nil
}

type fakeReferralRepo struct {
	ledger *models.ReferralLedger
}

func (f *fakeReferralRepo) GetLedger(ctx context.Context, mediatorID int64) (*models.ReferralLedger, error) {
	return f.ledger, nil
}

type fakeMediatorRepo struct {
	account *models.BankAccount
}

func (f *fakeMediatorRepo) GetPrimaryBankAccount(ctx context.Context, mediatorID int64) (*models.BankAccount, error) {
	if f.account == nil {
		return nil, assert.AnError
	}
	return f.account, nil
}

// fakePayoutRepo имитирует атомарное проведение: списывает рассчитанные
// суммы в памяти, как это делает транзакция репозитория
type fakePayoutRepo struct {
	promotions *fakePromotionRepo
	referral   *fakeReferralRepo
	settled    []*models.Payout
}

func (f *fakePayoutRepo) Settle(ctx context.Context, mediatorID int64, bankAccountID int64, reward decimal.Decimal) (*models.Payout, error) {
	promotionsAmount := decimal.Zero
	for _, promotion := range f.promotions.promotions {
		amount := settlement.PayableAmount(promotion, promotion.Policy)
		promotion.TotalPaidAmount = promotion.TotalPaidAmount.Add(amount)
		promotionsAmount = promotionsAmount.Add(amount)
	}

	referralsAmount := settlement.ReferralPayable(f.referral.ledger, reward)
	f.referral.ledger.TotalPaid = f.referral.ledger.TotalPaid.Add(referralsAmount)

	total := promotionsAmount.Add(referralsAmount)
	if total.IsZero() {
		return nil, models.ErrNothingToPayout
	}

	payout := &models.Payout{
		MediatorID:       mediatorID,
		Reference:        "test-reference",
		Amount:           total,
		PromotionsAmount: promotionsAmount,
		ReferralsAmount:  referralsAmount,
		BankAccountID:    bankAccountID,
		Status:           models.PayoutStatusRequested,
	}
	f.settled = append(f.settled, payout)
	return payout, nil
}

func (f *fakePayoutRepo) GetByMediatorID(ctx context.Context, mediatorID int64) ([]*models.Payout, error) {
	return f.settled, nil
}

type fakeMetrics struct {
	statuses []string
}

func (f *fakeMetrics) RecordPayoutRequest(status string, amount float64) {
	f.statuses = append(f.statuses, status)
}

func newTestService(promotions []*models.Promotion, ledger *models.ReferralLedger, account *models.BankAccount) (*Service, *fakePayoutRepo, *fakeMetrics) {
	promotionRepo := &fakePromotionRepo{promotions: promotions}
	referralRepo := &fakeReferralRepo{ledger: ledger}
	payoutRepo := &fakePayoutRepo{promotions: promotionRepo, referral: referralRepo}
	metrics := &fakeMetrics{}

	service := NewService(
		promotionRepo,
		referralRepo,
		&fakeMediatorRepo{account: account},
		payoutRepo,
		metrics,
		decimal.NewFromInt(20),
		zap.NewNop(),
	)
	return service, payoutRepo, metrics
}

func verifiedAccount() *models.BankAccount {
	return &models.BankAccount{ID: 5, MediatorID: 1, IsPrimary: true, IsVerified: true}
}

func promotionsWithBalance() []*models.Promotion {
	policy := &models.PayoutPolicy{
		ViewsRequired:       1000,
		PayoutAmountPerUnit: decimal.NewFromInt(50),
	}
	return []*models.Promotion{
		{ID: 10, ViewsCount: 3500, TotalPaidAmount: decimal.NewFromInt(100), Policy: policy}, // 50
		{ID: 11, ViewsCount: 900, Policy: policy},                                            // 0
	}
}

func TestGetBalance(t *testing.T) {
	service, _, _ := newTestService(
		promotionsWithBalance(),
		&models.ReferralLedger{TotalPurchases: 5},
		verifiedAccount(),
	)

	balance, err := service.GetBalance(context.Background(), 1)
	assert.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(balance.PromotionsAmount))
	assert.True(t, decimal.NewFromInt(100).Equal(balance.ReferralsAmount))
	assert.True(t, decimal.NewFromInt(150).Equal(balance.Total))
	// Продвижения с нулевой суммой не попадают в разбивку
	assert.Len(t, balance.Promotions, 1)
	assert.Equal(t, int64(10), balance.Promotions[0].PromotionID)
}

func TestRequestPayout_ZeroBalanceRefusedLocally(t *testing.T) {
	service, payoutRepo, metrics := newTestService(
		nil,
		&models.ReferralLedger{TotalPurchases: 0},
		verifiedAccount(),
	)

	_, err := service.RequestPayout(context.Background(), 1)
	assert.ErrorIs(t, err, models.ErrNothingToPayout)

	// До проведения дело не дошло
	assert.Empty(t, payoutRepo.settled)
	assert.Equal(t, []string{"rejected"}, metrics.statuses)
}

func TestRequestPayout_NoVerifiedAccount(t *testing.T) {
	// Реквизита нет вовсе
	service, payoutRepo, _ := newTestService(
		promotionsWithBalance(),
		&models.ReferralLedger{},
		nil,
	)

	_, err := service.RequestPayout(context.Background(), 1)
	assert.Error(t, err)
	assert.Empty(t, payoutRepo.settled)

	// Реквизит есть, но не подтвержден
	unverified := verifiedAccount()
	unverified.IsVerified = false
	service, payoutRepo, _ = newTestService(
		promotionsWithBalance(),
		&models.ReferralLedger{},
		unverified,
	)

	_, err = service.RequestPayout(context.Background(), 1)
	assert.Error(t, err)
	assert.Empty(t, payoutRepo.settled)
}

func TestRequestPayout_SettlesAndPreventsDoublePayment(t *testing.T) {
	service, payoutRepo, metrics := newTestService(
		promotionsWithBalance(),
		&models.ReferralLedger{TotalPurchases: 5},
		verifiedAccount(),
	)
	ctx := context.Background()

	payout, err := service.RequestPayout(ctx, 1)
	assert.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(payout.Amount))
	assert.True(t, decimal.NewFromInt(50).Equal(payout.PromotionsAmount))
	assert.True(t, decimal.NewFromInt(100).Equal(payout.ReferralsAmount))
	assert.Equal(t, models.PayoutStatusRequested, payout.Status)
	assert.Len(t, payoutRepo.settled, 1)
	assert.Equal(t, []string{"completed"}, metrics.statuses)

	// Повторный запрос без новых начислений отклоняется: выплаченное
	// записано, баланс нулевой
	_, err = service.RequestPayout(ctx, 1)
	assert.ErrorIs(t, err, models.ErrNothingToPayout)
	assert.Len(t, payoutRepo.settled, 1)
}
