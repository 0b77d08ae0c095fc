package order

import (
	"context"

	"resto-be/internal/catalog"
	"resto-be/internal/realtime"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mocks ---

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetMenuItem(ctx context.Context, id int64) (catalog.MenuItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(catalog.MenuItem), args.Error(1)
}

func (m *MockCatalog) GetItemSupplement(ctx context.Context, itemID, supplementID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, itemID, supplementID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockCatalog) GetBreakfast(ctx context.Context, id int64) (catalog.Breakfast, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(catalog.Breakfast), args.Error(1)
}

func (m *MockCatalog) GetBreakfastGroups(ctx context.Context, breakfastID int64) ([]catalog.OptionGroup, error) {
	args := m.Called(ctx, breakfastID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.OptionGroup), args.Error(1)
}

func (m *MockCatalog) GetBreakfastOptions(ctx context.Context, breakfastID int64, optionIDs []int64) ([]catalog.BreakfastOption, error) {
	args := m.Called(ctx, breakfastID, optionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.BreakfastOption), args.Error(1)
}

func (m *MockCatalog) GetPromotion(ctx context.Context, id int64) (catalog.Promotion, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(catalog.Promotion), args.Error(1)
}

func (m *MockCatalog) GetTable(ctx context.Context, id int64) (catalog.Table, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(catalog.Table), args.Error(1)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CommitOrder(ctx context.Context, o NewOrder) (*CommitResult, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CommitResult), args.Error(1)
}

func (m *MockRepository) Approve(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockRepository) FetchOrders(ctx context.Context, preds ...Predicate) ([]OrderDetail, error) {
	args := m.Called(ctx, preds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]OrderDetail), args.Error(1)
}

func (m *MockRepository) GetOrderDetail(ctx context.Context, orderID int64) (*OrderDetail, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OrderDetail), args.Error(1)
}

type MockRoles struct {
	mock.Mock
}

func (m *MockRoles) HasRole(ctx context.Context, userID uint, roles []string) (bool, error) {
	args := m.Called(ctx, userID, roles)
	return args.Bool(0), args.Error(1)
}

// recordingPublisher keeps every published message.
type recordingPublisher struct {
	msgs []realtime.Message
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, msg realtime.Message) error {
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) events() []string {
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.Event+"@"+m.Audience.Key())
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func int64Ptr(v int64) *int64 { return &v }
