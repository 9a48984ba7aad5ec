package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"loyalty/config"
	"loyalty/internal/domain/entity"
	"loyalty/internal/domain/repository"
	"loyalty/internal/domain/service"
	"loyalty/internal/infra/codegen"
	"loyalty/internal/infra/lock"
	"loyalty/internal/infra/metrics"
	"loyalty/internal/infra/persistence/postgres"
	"loyalty/internal/infra/persistence/testdb"
	"loyalty/internal/infra/qrcode"
	"loyalty/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mockPublisher records events through testify's mock so tests can assert on published calls.
type mockPublisher struct {
	mock.Mock

	mu     sync.Mutex
	events []*service.LoyaltyEvent
}

func newMockPublisher(t *testing.T, err error) *mockPublisher {
	p := &mockPublisher{}
	p.On("PublishLoyaltyEvent", mock.Anything, mock.AnythingOfType("*service.LoyaltyEvent")).Return(err).Maybe()
	t.Cleanup(func() { p.AssertExpectations(t) })

	return p
}

func (p *mockPublisher) PublishLoyaltyEvent(ctx context.Context, event *service.LoyaltyEvent) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()

	return p.Called(ctx, event).Error(0)
}

func (p *mockPublisher) Close() error {
	return nil
}

func (p *mockPublisher) eventTypes() []service.LoyaltyEventType {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]service.LoyaltyEventType, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.Type)
	}

	return types
}

// sequenceCodeGenerator hands out codes in order, repeating the last one when exhausted.
type sequenceCodeGenerator struct {
	mu    sync.Mutex
	codes []string
}

func (g *sequenceCodeGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	code := g.codes[0]
	if len(g.codes) > 1 {
		g.codes = g.codes[1:]
	}

	return code, nil
}

type testEnv struct {
	db        *gorm.DB
	repos     repository.RepositoryFactory
	svc       *loyaltyService
	admin     *adminService
	publisher *mockPublisher
	clock     *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithPublisherError(t, nil)
}

func newTestEnvWithPublisherError(t *testing.T, publishErr error) *testEnv {
	t.Helper()

	db := testdb.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := &fakeClock{now: testNow}
	publisher := newMockPublisher(t, publishErr)
	cfg := &config.Config{
		Loyalty: &config.LoyaltyConfig{LockTimeout: 5 * time.Second},
	}

	svc := newLoyaltyService(LoyaltyServiceParams{
		TxManager:     postgres.NewTransactionManager(db),
		Repos:         postgres.NewRepositoryFactory(db),
		Locker:        lock.NewLocalLocker(),
		CodeGenerator: codegen.NewRandomCodeGenerator(8),
		QRCodeService: qrcode.NewQRCodeService(256, "M"),
		Publisher:     publisher,
		Metrics:       metrics.NewNoop(),
		Config:        cfg,
		Logger:        logger,
	})
	svc.now = clock.Now

	admin := NewAdminService(AdminServiceParams{
		TxManager: postgres.NewTransactionManager(db),
		Repos:     postgres.NewRepositoryFactory(db),
		Logger:    logger,
	}).(*adminService)
	admin.now = clock.Now

	return &testEnv{
		db:        db,
		repos:     postgres.NewRepositoryFactory(db),
		svc:       svc,
		admin:     admin,
		publisher: publisher,
		clock:     clock,
	}
}

func (env *testEnv) seedRule(t *testing.T, businessID uuid.UUID, mutate func(rule *entity.LoyaltyRule)) *entity.LoyaltyRule {
	t.Helper()

	rule := entity.DefaultLoyaltyRule(businessID, testNow)
	if mutate != nil {
		mutate(rule)
	}
	require.NoError(t, env.repos.RuleRepo().Save(context.Background(), rule))

	return rule
}

func (env *testEnv) seedReward(t *testing.T, businessID uuid.UUID, cost int64, active bool) *entity.Reward {
	t.Helper()

	reward := &entity.Reward{
		ID:           uuid.New(),
		BusinessID:   businessID,
		Name:         "Free Coffee",
		PointCost:    cost,
		RewardType:   entity.RewardTypeFreeItem,
		Value:        decimal.Zero,
		ValidityDays: entity.DefaultRewardValidityDays,
		IsActive:     active,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	require.NoError(t, env.repos.RewardRepo().Create(context.Background(), reward))

	return reward
}

// fundProfile earns points through a purchase at a 1:1 spending rule.
func (env *testEnv) fundProfile(t *testing.T, userID, businessID uuid.UUID, points int64) *entity.LoyaltyProfile {
	t.Helper()

	amount := decimal.NewFromInt(points)
	result, err := env.svc.EarnPoints(context.Background(), earnRequest(userID, businessID, &amount, false))
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, points, result.PointsEarned)

	profile, err := env.repos.ProfileRepo().FindByUserAndBusiness(context.Background(), userID, businessID)
	require.NoError(t, err)

	return profile
}

// requireLedgerMatchesBalance checks the ledger sum and the counter identity of a stored profile.
func (env *testEnv) requireLedgerMatchesBalance(t *testing.T, profileID uuid.UUID) *entity.LoyaltyProfile {
	t.Helper()

	ctx := context.Background()
	profile, err := env.repos.ProfileRepo().FindByID(ctx, profileID)
	require.NoError(t, err)
	require.NoError(t, profile.CheckInvariants())

	sum, err := env.repos.LedgerRepo().SumByProfile(ctx, profileID)
	require.NoError(t, err)
	require.Equal(t, profile.CurrentPointsBalance, sum)

	return profile
}

func earnRequest(userID, businessID uuid.UUID, amount *decimal.Decimal, isVisit bool) usecase.EarnRequest {
	return usecase.EarnRequest{
		UserID:      userID,
		BusinessID:  businessID,
		AmountSpent: amount,
		IsVisit:     isVisit,
	}
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)

	return &d
}
