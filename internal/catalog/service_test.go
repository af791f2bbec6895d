package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/medikart/medikart/internal/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) Create(ctx context.Context, p *Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductRepo) GetByID(ctx context.Context, tenantID, productID string) (*Product, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *mockProductRepo) GetBySKU(ctx context.Context, tenantID, sku string) (*Product, error) {
	args := m.Called(ctx, tenantID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *mockProductRepo) Update(ctx context.Context, p *Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductRepo) List(ctx context.Context, tenantID string, filter ListFilter) ([]*Product, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*Product), args.Error(1)
}

func (m *mockProductRepo) AdjustStock(ctx context.Context, tenantID, productID string, delta int) error {
	args := m.Called(ctx, tenantID, productID, delta)
	return args.Error(0)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

func TestCatalog_Service_Create(t *testing.T) {
	repo := new(mockProductRepo)
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return()
	service := NewService(repo, auditLogger)
	ctx := context.Background()

	repo.On("GetBySKU", ctx, "t1", "PARA-500").Return(nil, ErrProductNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(p *Product) bool {
		return p.TenantID == "t1" && p.SKU == "PARA-500" && p.Active
	})).Return(nil)

	product, err := service.Create(ctx, "t1", "admin-1", CreateParams{
		SKU:        "PARA-500",
		Name:       "Paracetamol 500mg",
		Category:   "analgesics",
		PriceCents: 2500,
		StockQty:   100,
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", product.TenantID)
	repo.AssertExpectations(t)
}

func TestCatalog_Service_Create_DuplicateSKU(t *testing.T) {
	repo := new(mockProductRepo)
	service := NewService(repo, new(mockAudit))
	ctx := context.Background()

	repo.On("GetBySKU", ctx, "t1", "PARA-500").Return(&Product{ID: "p1"}, nil)

	_, err := service.Create(ctx, "t1", "admin-1", CreateParams{SKU: "PARA-500", Name: "Dup"})
	assert.ErrorIs(t, err, ErrSKUTaken)
}

func TestCatalog_Service_Create_Validation(t *testing.T) {
	service := NewService(new(mockProductRepo), new(mockAudit))
	ctx := context.Background()

	_, err := service.Create(ctx, "t1", "admin-1", CreateParams{Name: "no sku"})
	assert.Error(t, err)

	_, err = service.Create(ctx, "t1", "admin-1", CreateParams{SKU: "X", Name: "neg", PriceCents: -1})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = service.Create(ctx, "t1", "admin-1", CreateParams{SKU: "X", Name: "neg", StockQty: -1})
	assert.ErrorIs(t, err, ErrInvalidStock)
}

func TestCatalog_Service_SetStock(t *testing.T) {
	repo := new(mockProductRepo)
	service := NewService(repo, new(mockAudit))
	ctx := context.Background()

	repo.On("GetByID", ctx, "t1", "p1").Return(&Product{ID: "p1", TenantID: "t1", StockQty: 5}, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(p *Product) bool { return p.StockQty == 42 })).Return(nil)

	updated, err := service.SetStock(ctx, "t1", "p1", 42)
	require.NoError(t, err)
	assert.Equal(t, 42, updated.StockQty)

	_, err = service.SetStock(ctx, "t1", "p1", -1)
	assert.ErrorIs(t, err, ErrInvalidStock)
}

// TestPurpose: Validates CSV catalog import: well-formed rows are created,
// malformed rows are skipped with per-line errors, and the import does not
// abort mid-file.
// Scope: Unit Test
func TestCatalog_Service_ImportCSV(t *testing.T) {
	repo := new(mockProductRepo)
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return()
	service := NewService(repo, auditLogger)
	ctx := context.Background()

	repo.On("GetBySKU", ctx, "t1", mock.Anything).Return(nil, ErrProductNotFound)
	repo.On("Create", ctx, mock.Anything).Return(nil)

	csvData := strings.Join([]string{
		"sku,name,category,price_cents,stock",
		"PARA-500,Paracetamol 500mg,analgesics,2500,100",
		"IBU-400,Ibuprofen 400mg,analgesics,not-a-price,50",
		"CET-10,Cetirizine 10mg,antihistamines,1200,30",
	}, "\n")

	result, err := service.ImportCSV(ctx, "t1", "admin-1", strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "line 3")
}

func TestCatalog_Service_ImportCSV_BadHeader(t *testing.T) {
	service := NewService(new(mockProductRepo), new(mockAudit))

	_, err := service.ImportCSV(context.Background(), "t1", "admin-1",
		strings.NewReader("name,sku\nfoo,bar"))
	assert.Error(t, err)
}
