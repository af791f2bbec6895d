package notification

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/medikart/medikart/internal/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type memEndpoints struct {
	mu        sync.Mutex
	endpoints map[string]*Endpoint
}

func newMemEndpoints() *memEndpoints {
	return &memEndpoints{endpoints: make(map[string]*Endpoint)}
}

func (m *memEndpoints) Upsert(ctx context.Context, e *Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoints[e.TenantID] = e
	return nil
}

func (m *memEndpoints) GetByTenant(ctx context.Context, tenantID string) (*Endpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.endpoints[tenantID]
	if !ok {
		return nil, ErrEndpointNotFound
	}
	return e, nil
}

type memDeliveries struct {
	mu   sync.Mutex
	rows []*Delivery
}

func (m *memDeliveries) Record(ctx context.Context, d *Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, d)
	return nil
}

func (m *memDeliveries) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Delivery
	for _, d := range m.rows {
		if d.TenantID == tenantID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDeliveries) wait(t *testing.T, n int) []*Delivery {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		if len(m.rows) >= n {
			rows := append([]*Delivery(nil), m.rows...)
			m.mu.Unlock()
			return rows
		}
		m.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d deliveries", n)
	return nil
}

// TestPurpose: Validates that published events reach the tenant's endpoint
// with a valid HMAC signature and are recorded as delivered.
// Scope: Unit Test (in-process HTTP server)
func TestNotification_Dispatcher_Delivers(t *testing.T) {
	var gotSig string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Medikart-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	endpoints := newMemEndpoints()
	require.NoError(t, endpoints.Upsert(context.Background(), &Endpoint{
		ID: "e1", TenantID: "t1", URL: server.URL, Secret: "hush", Active: true,
	}))
	deliveries := &memDeliveries{}

	d := NewDispatcher(endpoints, deliveries, DispatcherConfig{MaxRetries: 2, WorkerCount: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	d.Publish(ctx, Event{TenantID: "t1", Type: EventOrderPlaced, Payload: map[string]any{"order_id": "o1"}})

	rows := deliveries.wait(t, 1)
	assert.Equal(t, DeliveryDelivered, rows[0].Status)
	assert.Equal(t, EventOrderPlaced, rows[0].EventType)
	assert.Equal(t, 1, rows[0].Attempts)
	assert.Equal(t, Sign("hush", gotBody), gotSig)
}

func TestNotification_Dispatcher_RetriesServerErrors(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		n := hits
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	endpoints := newMemEndpoints()
	endpoints.Upsert(context.Background(), &Endpoint{ID: "e1", TenantID: "t1", URL: server.URL, Active: true})
	deliveries := &memDeliveries{}

	d := NewDispatcher(endpoints, deliveries, DispatcherConfig{MaxRetries: 5, WorkerCount: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	d.Publish(ctx, Event{TenantID: "t1", Type: EventOrderPlaced})

	rows := deliveries.wait(t, 1)
	assert.Equal(t, DeliveryDelivered, rows[0].Status)
	assert.Equal(t, 3, rows[0].Attempts)
}

func TestNotification_Dispatcher_ClientErrorIsPermanent(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	endpoints := newMemEndpoints()
	endpoints.Upsert(context.Background(), &Endpoint{ID: "e1", TenantID: "t1", URL: server.URL, Active: true})
	deliveries := &memDeliveries{}

	d := NewDispatcher(endpoints, deliveries, DispatcherConfig{MaxRetries: 5, WorkerCount: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	d.Publish(ctx, Event{TenantID: "t1", Type: EventOrderPlaced})

	rows := deliveries.wait(t, 1)
	assert.Equal(t, DeliveryFailed, rows[0].Status)
	assert.Equal(t, 1, rows[0].Attempts)

	mu.Lock()
	assert.Equal(t, 1, hits)
	mu.Unlock()
}

func TestNotification_Dispatcher_NoEndpointIsNoop(t *testing.T) {
	deliveries := &memDeliveries{}
	d := NewDispatcher(newMemEndpoints(), deliveries, DispatcherConfig{WorkerCount: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Publish(ctx, Event{TenantID: "t-unconfigured", Type: EventOrderPlaced})
	d.Stop()

	assert.Empty(t, deliveries.rows)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

func TestNotification_Service_Configure(t *testing.T) {
	endpoints := newMemEndpoints()
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return()
	service := NewService(endpoints, &memDeliveries{}, auditLogger)
	ctx := context.Background()

	endpoint, err := service.Configure(ctx, "t1", "admin-1", "https://hooks.example.com/wf/1", "hush", true)
	require.NoError(t, err)
	assert.True(t, endpoint.Active)

	_, err = service.Configure(ctx, "t1", "admin-1", "not a url", "", true)
	assert.Error(t, err)

	_, err = service.Configure(ctx, "t1", "admin-1", "ftp://example.com", "", true)
	assert.Error(t, err)
}
