package policy

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"sangam-admin/pkg/models"
)

// fakePolicyRepo хранит политики в памяти для тестов сервиса
type fakePolicyRepo struct {
	policies map[int64]*models.PayoutPolicy
	nextID   int64
}

func newFakePolicyRepo() *fakePolicyRepo {
	return &fakePolicyRepo{policies: make(map[int64]*models.PayoutPolicy), nextID: 1}
}

func (f *fakePolicyRepo) Create(ctx context.Context, policy *models.PayoutPolicy) error {
	policy.ID = f.nextID
	f.nextID++
	f.policies[policy.ID] = policy
	return nil
}

func (f *fakePolicyRepo) GetByID(ctx context.Context, id int64) (*models.PayoutPolicy, error) {
	policy, ok := f.policies[id]
	if !ok {
		return nil, assert.AnError
	}
	return policy, nil
}

func (f *fakePolicyRepo) GetDefault(ctx context.Context) (*models.PayoutPolicy, error) {
	for _, policy := range f.policies {
		if policy.IsDefault && policy.IsActive {
			return policy, nil
		}
	}
	return nil, assert.AnError
}

func (f *fakePolicyRepo) GetAll(ctx context.Context) ([]*models.PayoutPolicy, error) {
	var all []*models.PayoutPolicy
	for _, policy := range f.policies {
		all = append(all, policy)
	}
	return all, nil
}

func (f *fakePolicyRepo) Update(ctx context.Context, policy *models.PayoutPolicy) error {
	f.policies[policy.ID] = policy
	return nil
}

func (f *fakePolicyRepo) SetDefault(ctx context.Context, policyID int64) error {
	for _, policy := range f.policies {
		policy.IsDefault = false
	}
	policy, ok := f.policies[policyID]
	if !ok {
		return assert.AnError
	}
	policy.IsDefault = true
	policy.IsActive = true
	return nil
}

func TestCreatePolicy(t *testing.T) {
	service := NewService(newFakePolicyRepo(), zap.NewNop())

	policy, err := service.CreatePolicy(context.Background(), &models.CreatePolicyRequest{
		Name:                "YouTube базовая",
		ViewsRequired:       1000,
		PayoutAmountPerUnit: decimal.NewFromInt(50),
		PayoutPeriodDays:    30,
	})

	assert.NoError(t, err)
	assert.NotNil(t, policy)
	assert.True(t, policy.IsActive)
	assert.False(t, policy.IsDefault)
}

func TestCreatePolicy_ZeroViewsRejected(t *testing.T) {
	service := NewService(newFakePolicyRepo(), zap.NewNop())

	_, err := service.CreatePolicy(context.Background(), &models.CreatePolicyRequest{
		Name:                "Нулевой порог",
		ViewsRequired:       0,
		PayoutAmountPerUnit: decimal.NewFromInt(50),
	})

	assert.Error(t, err)
}

func TestCreatePolicy_EnabledGateWithoutThresholdRejected(t *testing.T) {
	service := NewService(newFakePolicyRepo(), zap.NewNop())

	_, err := service.CreatePolicy(context.Background(), &models.CreatePolicyRequest{
		Name:                "Лайки без порога",
		ViewsRequired:       1000,
		IsLikesEnabled:      true,
		LikesRequired:       0,
		PayoutAmountPerUnit: decimal.NewFromInt(50),
	})

	assert.Error(t, err)

	_, err = service.CreatePolicy(context.Background(), &models.CreatePolicyRequest{
		Name:                "Комментарии без порога",
		ViewsRequired:       1000,
		IsCommentsEnabled:   true,
		PayoutAmountPerUnit: decimal.NewFromInt(50),
	})

	assert.Error(t, err)
}

func TestCreatePolicy_NegativeAmountRejected(t *testing.T) {
	service := NewService(newFakePolicyRepo(), zap.NewNop())

	_, err := service.CreatePolicy(context.Background(), &models.CreatePolicyRequest{
		Name:                "Отрицательная ставка",
		ViewsRequired:       1000,
		PayoutAmountPerUnit: decimal.NewFromInt(-10),
	})

	assert.Error(t, err)
}

func TestSetDefaultPolicy_SingleDefault(t *testing.T) {
	repo := newFakePolicyRepo()
	service := NewService(repo, zap.NewNop())
	ctx := context.Background()

	first, err := service.CreatePolicy(ctx, &models.CreatePolicyRequest{
		Name:                "Первая",
		ViewsRequired:       1000,
		PayoutAmountPerUnit: decimal.NewFromInt(50),
		IsDefault:           true,
	})
	assert.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := service.CreatePolicy(ctx, &models.CreatePolicyRequest{
		Name:                "Вторая",
		ViewsRequired:       2000,
		PayoutAmountPerUnit: decimal.NewFromInt(80),
		IsDefault:           true,
	})
	assert.NoError(t, err)
	assert.True(t, second.IsDefault)

	// Ровно одна политика по умолчанию
	defaults := 0
	for _, policy := range repo.policies {
		if policy.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)

	current, err := service.GetDefaultPolicy(ctx)
	assert.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)
}

func TestUpdatePolicy_GateValidation(t *testing.T) {
	repo := newFakePolicyRepo()
	service := NewService(repo, zap.NewNop())
	ctx := context.Background()

	policy, err := service.CreatePolicy(ctx, &models.CreatePolicyRequest{
		Name:                "Базовая",
		ViewsRequired:       1000,
		PayoutAmountPerUnit: decimal.NewFromInt(50),
	})
	assert.NoError(t, err)

	// Включение условия без порога отклоняется
	enabled := true
	_, err = service.UpdatePolicy(ctx, policy.ID, &models.UpdatePolicyRequest{
		IsLikesEnabled: &enabled,
	})
	assert.Error(t, err)

	// С порогом — проходит
	likes := int64(50)
	updated, err := service.UpdatePolicy(ctx, policy.ID, &models.UpdatePolicyRequest{
		IsLikesEnabled: &enabled,
		LikesRequired:  &likes,
	})
	assert.NoError(t, err)
	assert.True(t, updated.IsLikesEnabled)
	assert.Equal(t, int64(50), updated.LikesRequired)
}
