package loyalty

import (
	"context"
	"testing"

	"github.com/medikart/medikart/internal/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLedgerRepo struct {
	mock.Mock
}

func (m *mockLedgerRepo) Append(ctx context.Context, e *Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockLedgerRepo) Balance(ctx context.Context, tenantID, customerID string) (int64, error) {
	args := m.Called(ctx, tenantID, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLedgerRepo) History(ctx context.Context, tenantID, customerID string, limit, offset int) ([]*Entry, error) {
	args := m.Called(ctx, tenantID, customerID, limit, offset)
	return args.Get(0).([]*Entry), args.Error(1)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

func TestLoyalty_Service_Credit(t *testing.T) {
	repo := new(mockLedgerRepo)
	service := NewService(repo, new(mockAudit))
	ctx := context.Background()

	repo.On("Append", ctx, mock.MatchedBy(func(e *Entry) bool {
		return e.TenantID == "t1" && e.CustomerID == "c1" && e.Kind == KindEarn && e.Amount == 500
	})).Return(nil)

	entry, err := service.Credit(ctx, "t1", "c1", 500, "order:o1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(500), entry.Amount)
	repo.AssertExpectations(t)

	_, err = service.Credit(ctx, "t1", "c1", 0, "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = service.Credit(ctx, "t1", "c1", -10, "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

// TestPurpose: Validates that redemption checks the derived balance and
// appends a negative entry; over-redemption is rejected.
// Scope: Unit Test
func TestLoyalty_Service_Redeem(t *testing.T) {
	ctx := context.Background()

	t.Run("Covered", func(t *testing.T) {
		repo := new(mockLedgerRepo)
		service := NewService(repo, new(mockAudit))

		repo.On("Balance", ctx, "t1", "c1").Return(int64(1000), nil)
		repo.On("Append", ctx, mock.MatchedBy(func(e *Entry) bool {
			return e.Kind == KindRedeem && e.Amount == -300
		})).Return(nil)

		entry, err := service.Redeem(ctx, "t1", "c1", 300, "order:o2", "")
		require.NoError(t, err)
		assert.Equal(t, int64(-300), entry.Amount)
	})

	t.Run("Insufficient", func(t *testing.T) {
		repo := new(mockLedgerRepo)
		service := NewService(repo, new(mockAudit))

		repo.On("Balance", ctx, "t1", "c1").Return(int64(100), nil)

		_, err := service.Redeem(ctx, "t1", "c1", 300, "", "")
		assert.ErrorIs(t, err, ErrInsufficientCredit)
	})
}

func TestLoyalty_Service_Adjust(t *testing.T) {
	repo := new(mockLedgerRepo)
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeCreditAdjusted && e.TenantID == "t1"
	})).Return()
	service := NewService(repo, auditLogger)
	ctx := context.Background()

	repo.On("Append", ctx, mock.MatchedBy(func(e *Entry) bool {
		return e.Kind == KindAdjust && e.Amount == -250
	})).Return(nil)

	_, err := service.Adjust(ctx, "t1", "c1", "admin-1", -250, "goodwill correction")
	require.NoError(t, err)
	auditLogger.AssertExpectations(t)

	_, err = service.Adjust(ctx, "t1", "c1", "admin-1", 0, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
