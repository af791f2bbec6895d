package order

import (
	"context"
	"testing"
	"time"

	"github.com/medikart/medikart/internal/audit"
	"github.com/medikart/medikart/internal/catalog"
	"github.com/medikart/medikart/internal/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, tenantID, orderID string) (*Order, error) {
	args := m.Called(ctx, tenantID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *mockOrderRepo) List(ctx context.Context, tenantID string, filter ListFilter) ([]*Order, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, tenantID, orderID, from, to string) error {
	args := m.Called(ctx, tenantID, orderID, from, to)
	return args.Error(0)
}

func (m *mockOrderRepo) AppendHistory(ctx context.Context, entry *HistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockOrderRepo) History(ctx context.Context, tenantID, orderID string) ([]*HistoryEntry, error) {
	args := m.Called(ctx, tenantID, orderID)
	return args.Get(0).([]*HistoryEntry), args.Error(1)
}

func (m *mockOrderRepo) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*Order, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).([]*Order), args.Error(1)
}

type mockProducts struct {
	mock.Mock
}

func (m *mockProducts) GetByID(ctx context.Context, tenantID, productID string) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *mockProducts) AdjustStock(ctx context.Context, tenantID, productID string, delta int) error {
	args := m.Called(ctx, tenantID, productID, delta)
	return args.Error(0)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

type capturePublisher struct {
	events []notification.Event
}

func (p *capturePublisher) Publish(ctx context.Context, event notification.Event) {
	p.events = append(p.events, event)
}

func TestOrder_StateMachine_Edges(t *testing.T) {
	// happy path
	assert.True(t, CanTransition(StatusPending, StatusAccepted))
	assert.True(t, CanTransition(StatusAccepted, StatusPacked))
	assert.True(t, CanTransition(StatusPacked, StatusDispatched))
	assert.True(t, CanTransition(StatusDispatched, StatusDelivered))
	assert.True(t, CanTransition(StatusPacked, StatusReadyForPickup))

	// cancellation allowed pre-terminal
	assert.True(t, CanTransition(StatusPending, StatusCancelled))
	assert.True(t, CanTransition(StatusDispatched, StatusCancelled))

	// repeats and illegal edges rejected
	assert.False(t, CanTransition(StatusAccepted, StatusAccepted))
	assert.False(t, CanTransition(StatusPending, StatusPacked))
	assert.False(t, CanTransition(StatusDelivered, StatusCancelled))
	assert.False(t, CanTransition(StatusReadyForPickup, StatusDispatched))
	assert.False(t, CanTransition(StatusCancelled, StatusAccepted))

	assert.True(t, Terminal(StatusDelivered))
	assert.True(t, Terminal(StatusReadyForPickup))
	assert.True(t, Terminal(StatusCancelled))
	assert.False(t, Terminal(StatusPacked))
}

func TestOrder_Service_Place(t *testing.T) {
	repo := new(mockOrderRepo)
	products := new(mockProducts)
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return()
	publisher := &capturePublisher{}
	service := NewService(repo, products, publisher, auditLogger)
	ctx := context.Background()

	products.On("GetByID", ctx, "t1", "p1").Return(&catalog.Product{
		ID: "p1", TenantID: "t1", SKU: "PARA-500", Name: "Paracetamol 500mg",
		PriceCents: 2500, StockQty: 10, Active: true,
	}, nil)
	products.On("AdjustStock", ctx, "t1", "p1", -2).Return(nil)
	repo.On("Create", ctx, mock.MatchedBy(func(o *Order) bool {
		return o.TenantID == "t1" && o.Status == StatusPending && o.TotalCents == 5000
	})).Return(nil)

	placed, err := service.Place(ctx, "t1", PlaceParams{
		CustomerID: "c1",
		Items:      []PlaceItem{{ProductID: "p1", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), placed.TotalCents)
	assert.Equal(t, StatusPending, placed.Status)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, notification.EventOrderPlaced, publisher.events[0].Type)
	assert.Equal(t, "t1", publisher.events[0].TenantID)
	repo.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestOrder_Service_Place_InsufficientStock(t *testing.T) {
	repo := new(mockOrderRepo)
	products := new(mockProducts)
	service := NewService(repo, products, &capturePublisher{}, new(mockAudit))
	ctx := context.Background()

	products.On("GetByID", ctx, "t1", "p1").Return(&catalog.Product{
		ID: "p1", SKU: "PARA-500", StockQty: 1, Active: true,
	}, nil)

	_, err := service.Place(ctx, "t1", PlaceParams{
		CustomerID: "c1",
		Items:      []PlaceItem{{ProductID: "p1", Quantity: 5}},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestOrder_Service_Place_EmptyOrder(t *testing.T) {
	service := NewService(new(mockOrderRepo), new(mockProducts), &capturePublisher{}, new(mockAudit))

	_, err := service.Place(context.Background(), "t1", PlaceParams{CustomerID: "c1"})
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

// TestPurpose: Validates transition guards: legal edges append history and
// publish an event; repeated or illegal transitions are explicit rejections.
// Scope: Unit Test
func TestOrder_Service_Transition(t *testing.T) {
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return()
	ctx := context.Background()

	t.Run("Accept", func(t *testing.T) {
		repo := new(mockOrderRepo)
		publisher := &capturePublisher{}
		service := NewService(repo, new(mockProducts), publisher, auditLogger)

		repo.On("GetByID", ctx, "t1", "o1").Return(&Order{ID: "o1", TenantID: "t1", Status: StatusPending}, nil)
		repo.On("UpdateStatus", ctx, "t1", "o1", StatusPending, StatusAccepted).Return(nil)
		repo.On("AppendHistory", ctx, mock.MatchedBy(func(e *HistoryEntry) bool {
			return e.From == StatusPending && e.To == StatusAccepted && e.TenantID == "t1"
		})).Return(nil)

		updated, err := service.Transition(ctx, "t1", "o1", StatusAccepted, "admin-1", "")
		require.NoError(t, err)
		assert.Equal(t, StatusAccepted, updated.Status)
		require.Len(t, publisher.events, 1)
		assert.Equal(t, notification.EventOrderStatusChanged, publisher.events[0].Type)
		repo.AssertExpectations(t)
	})

	t.Run("RepeatAcceptRejected", func(t *testing.T) {
		repo := new(mockOrderRepo)
		service := NewService(repo, new(mockProducts), &capturePublisher{}, auditLogger)

		repo.On("GetByID", ctx, "t1", "o1").Return(&Order{ID: "o1", TenantID: "t1", Status: StatusAccepted}, nil)

		_, err := service.Transition(ctx, "t1", "o1", StatusAccepted, "admin-1", "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("SkipAheadRejected", func(t *testing.T) {
		repo := new(mockOrderRepo)
		service := NewService(repo, new(mockProducts), &capturePublisher{}, auditLogger)

		repo.On("GetByID", ctx, "t1", "o1").Return(&Order{ID: "o1", TenantID: "t1", Status: StatusPending}, nil)

		_, err := service.Transition(ctx, "t1", "o1", StatusDispatched, "admin-1", "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("ReadyForPickupRequiresPickupOrder", func(t *testing.T) {
		repo := new(mockOrderRepo)
		service := NewService(repo, new(mockProducts), &capturePublisher{}, auditLogger)

		repo.On("GetByID", ctx, "t1", "o1").Return(&Order{ID: "o1", TenantID: "t1", Status: StatusPacked, Pickup: false}, nil)

		_, err := service.Transition(ctx, "t1", "o1", StatusReadyForPickup, "admin-1", "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestOrder_Service_Cancel_Restocks(t *testing.T) {
	repo := new(mockOrderRepo)
	products := new(mockProducts)
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return()
	service := NewService(repo, products, &capturePublisher{}, auditLogger)
	ctx := context.Background()

	o := &Order{
		ID: "o1", TenantID: "t1", Status: StatusAccepted,
		Items: []Item{{ProductID: "p1", SKU: "PARA-500", Quantity: 3}},
	}
	repo.On("GetByID", ctx, "t1", "o1").Return(o, nil)
	repo.On("UpdateStatus", ctx, "t1", "o1", StatusAccepted, StatusCancelled).Return(nil)
	repo.On("AppendHistory", ctx, mock.Anything).Return(nil)
	products.On("AdjustStock", ctx, "t1", "p1", 3).Return(nil)

	cancelled, err := service.Cancel(ctx, "t1", "o1", "admin-1", "customer request")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	products.AssertExpectations(t)
}

// TestPurpose: Validates that the auto-accept sweep transitions stale
// pending orders and skips rows that lose the guard race.
// Scope: Unit Test
func TestOrder_AutoAcceptJob_Sweep(t *testing.T) {
	repo := new(mockOrderRepo)
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return()
	service := NewService(repo, new(mockProducts), &capturePublisher{}, auditLogger)
	job := NewAutoAcceptJob(service, 10*time.Minute, time.Minute)
	ctx := context.Background()

	stale := []*Order{
		{ID: "o1", TenantID: "t1", Status: StatusPending},
		{ID: "o2", TenantID: "t2", Status: StatusPending},
	}
	repo.On("ListStalePending", ctx, mock.Anything, 100).Return(stale, nil)
	repo.On("GetByID", ctx, "t1", "o1").Return(stale[0], nil)
	repo.On("GetByID", ctx, "t2", "o2").Return(stale[1], nil)
	repo.On("UpdateStatus", ctx, "t1", "o1", StatusPending, StatusAccepted).Return(nil)
	// o2 was accepted manually between the list and the guard
	repo.On("UpdateStatus", ctx, "t2", "o2", StatusPending, StatusAccepted).Return(ErrInvalidTransition)
	repo.On("AppendHistory", ctx, mock.Anything).Return(nil)

	require.NoError(t, job.Sweep(ctx))
	repo.AssertExpectations(t)
}
