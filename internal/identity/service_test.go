package identity

import (
	"context"
	"testing"
	"time"

	"github.com/medikart/medikart/internal/audit"
	"github.com/medikart/medikart/internal/auth"
	"github.com/medikart/medikart/internal/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockActorRepo struct {
	mock.Mock
}

func (m *mockActorRepo) Create(ctx context.Context, a *Actor) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockActorRepo) AddCredentials(ctx context.Context, c *Credentials) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockActorRepo) GetByID(ctx context.Context, id string) (*Actor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Actor), args.Error(1)
}

func (m *mockActorRepo) GetByEmail(ctx context.Context, tenantID *string, email string) (*Actor, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Actor), args.Error(1)
}

func (m *mockActorRepo) Update(ctx context.Context, a *Actor) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockActorRepo) UpdateLockout(ctx context.Context, actorID string, failedAttempts int, lockedUntil *time.Time) error {
	args := m.Called(ctx, actorID, failedAttempts, lockedUntil)
	return args.Error(0)
}

func (m *mockActorRepo) Deactivate(ctx context.Context, tenantID *string, actorID string) error {
	args := m.Called(ctx, tenantID, actorID)
	return args.Error(0)
}

func (m *mockActorRepo) GetCredentials(ctx context.Context, actorID string) (*Credentials, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Credentials), args.Error(1)
}

func (m *mockActorRepo) UpdatePassword(ctx context.Context, actorID, passwordHash string) error {
	args := m.Called(ctx, actorID, passwordHash)
	return args.Error(0)
}

func (m *mockActorRepo) ListByTenant(ctx context.Context, tenantID, role string, limit, offset int) ([]*Actor, error) {
	args := m.Called(ctx, tenantID, role, limit, offset)
	return args.Get(0).([]*Actor), args.Error(1)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

func newTestHasher() *PasswordHasher {
	// Small parameters keep the test fast; production values come from config.
	return NewPasswordHasher(8, 1, 1, 16, 32)
}

func TestIdentity_PasswordHasher_RoundTrip(t *testing.T) {
	hasher := newTestHasher()

	encoded, err := hasher.Hash("correct horse battery")
	require.NoError(t, err)

	ok, err := hasher.Verify("correct horse battery", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("wrong password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestPurpose: Validates that registration binds admins/customers to a
// tenant and rejects a tenant binding on super_admin.
// Scope: Unit Test
// Security: Role/tenant binding integrity
func TestIdentity_Service_Register_TenantBinding(t *testing.T) {
	repo := new(mockActorRepo)
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return()
	service := NewService(repo, newTestHasher(), auditLogger, notification.NopPublisher{}, 5, 15*time.Minute)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, mock.Anything, "admin@greenleaf.example").Return(nil, ErrActorNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(a *Actor) bool {
		return a.TenantID != nil && *a.TenantID == "t1" && a.Role == auth.RoleAdmin && a.Active
	})).Return(nil)
	repo.On("AddCredentials", ctx, mock.Anything).Return(nil)

	actor, err := service.Register(ctx, RegisterParams{
		TenantID: "t1",
		Email:    "Admin@Greenleaf.example",
		Password: "s3cret-pass",
		Name:     "Asha",
		Role:     auth.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@greenleaf.example", actor.Email)

	// customer without tenant rejected
	_, err = service.Register(ctx, RegisterParams{
		Email:    "c@example.com",
		Password: "s3cret-pass",
		Role:     auth.RoleCustomer,
	})
	assert.Error(t, err)

	// super_admin with tenant rejected
	_, err = service.Register(ctx, RegisterParams{
		TenantID: "t1",
		Email:    "root@example.com",
		Password: "s3cret-pass",
		Role:     auth.RoleSuperAdmin,
	})
	assert.Error(t, err)
}

type capturePublisher struct {
	events []notification.Event
}

func (p *capturePublisher) Publish(ctx context.Context, event notification.Event) {
	p.events = append(p.events, event)
}

// TestPurpose: Validates that a successful customer registration emits a
// customer.registered event while staff registrations stay silent.
// Scope: Unit Test
func TestIdentity_Service_Register_PublishesCustomerEvent(t *testing.T) {
	repo := new(mockActorRepo)
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return()
	publisher := &capturePublisher{}
	service := NewService(repo, newTestHasher(), auditLogger, publisher, 5, 15*time.Minute)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, mock.Anything, mock.Anything).Return(nil, ErrActorNotFound)
	repo.On("Create", ctx, mock.Anything).Return(nil)
	repo.On("AddCredentials", ctx, mock.Anything).Return(nil)

	actor, err := service.Register(ctx, RegisterParams{
		TenantID: "t1",
		Email:    "priya@example.com",
		Password: "s3cret-pass",
		Name:     "Priya",
		Role:     auth.RoleCustomer,
	})
	require.NoError(t, err)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, notification.EventCustomerRegistered, publisher.events[0].Type)
	assert.Equal(t, "t1", publisher.events[0].TenantID)
	assert.Equal(t, actor.ID, publisher.events[0].Payload["actor_id"])

	// admin registration does not notify
	_, err = service.Register(ctx, RegisterParams{
		TenantID: "t1",
		Email:    "staff@example.com",
		Password: "s3cret-pass",
		Role:     auth.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Len(t, publisher.events, 1)
}

func TestIdentity_Service_Register_WeakPassword(t *testing.T) {
	service := NewService(new(mockActorRepo), newTestHasher(), new(mockAudit), notification.NopPublisher{}, 5, 15*time.Minute)

	_, err := service.Register(context.Background(), RegisterParams{
		TenantID: "t1",
		Email:    "a@example.com",
		Password: "short",
		Role:     auth.RoleCustomer,
	})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestIdentity_Service_Authenticate(t *testing.T) {
	hasher := newTestHasher()
	encoded, err := hasher.Hash("s3cret-pass")
	require.NoError(t, err)

	tid := "t1"
	actor := &Actor{ID: "a1", TenantID: &tid, Email: "a@example.com", Role: auth.RoleCustomer, Active: true}

	t.Run("Success", func(t *testing.T) {
		repo := new(mockActorRepo)
		auditLogger := new(mockAudit)
		auditLogger.On("Log", mock.Anything, mock.Anything).Return()
		service := NewService(repo, hasher, auditLogger, notification.NopPublisher{}, 5, 15*time.Minute)
		ctx := context.Background()

		repo.On("GetByEmail", ctx, &tid, "a@example.com").Return(actor, nil)
		repo.On("GetCredentials", ctx, "a1").Return(&Credentials{ActorID: "a1", PasswordHash: encoded}, nil)

		got, err := service.Authenticate(ctx, &tid, "a@example.com", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, "a1", got.ID)
	})

	t.Run("WrongPasswordIncrementsLockout", func(t *testing.T) {
		repo := new(mockActorRepo)
		auditLogger := new(mockAudit)
		auditLogger.On("Log", mock.Anything, mock.Anything).Return()
		service := NewService(repo, hasher, auditLogger, notification.NopPublisher{}, 5, 15*time.Minute)
		ctx := context.Background()

		repo.On("GetByEmail", ctx, &tid, "a@example.com").Return(actor, nil)
		repo.On("GetCredentials", ctx, "a1").Return(&Credentials{ActorID: "a1", PasswordHash: encoded}, nil)
		repo.On("UpdateLockout", ctx, "a1", 1, (*time.Time)(nil)).Return(nil)

		_, err := service.Authenticate(ctx, &tid, "a@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		repo.AssertExpectations(t)
	})

	t.Run("LockedOut", func(t *testing.T) {
		repo := new(mockActorRepo)
		auditLogger := new(mockAudit)
		auditLogger.On("Log", mock.Anything, mock.Anything).Return()
		service := NewService(repo, hasher, auditLogger, notification.NopPublisher{}, 5, 15*time.Minute)
		ctx := context.Background()

		until := time.Now().Add(10 * time.Minute)
		locked := *actor
		locked.LockedUntil = &until
		repo.On("GetByEmail", ctx, &tid, "a@example.com").Return(&locked, nil)

		_, err := service.Authenticate(ctx, &tid, "a@example.com", "s3cret-pass")
		assert.ErrorIs(t, err, ErrAccountLocked)
	})

	t.Run("Deactivated", func(t *testing.T) {
		repo := new(mockActorRepo)
		auditLogger := new(mockAudit)
		auditLogger.On("Log", mock.Anything, mock.Anything).Return()
		service := NewService(repo, hasher, auditLogger, notification.NopPublisher{}, 5, 15*time.Minute)
		ctx := context.Background()

		inactive := *actor
		inactive.Active = false
		repo.On("GetByEmail", ctx, &tid, "a@example.com").Return(&inactive, nil)

		_, err := service.Authenticate(ctx, &tid, "a@example.com", "s3cret-pass")
		assert.ErrorIs(t, err, ErrActorDeactivated)
	})
}

func TestIdentity_Service_ChangePassword(t *testing.T) {
	hasher := newTestHasher()
	encoded, err := hasher.Hash("old-password")
	require.NoError(t, err)

	repo := new(mockActorRepo)
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return()
	service := NewService(repo, hasher, auditLogger, notification.NopPublisher{}, 5, 15*time.Minute)
	ctx := context.Background()

	tid := "t1"
	repo.On("GetCredentials", ctx, "a1").Return(&Credentials{ActorID: "a1", PasswordHash: encoded}, nil)
	repo.On("UpdatePassword", ctx, "a1", mock.Anything).Return(nil)
	repo.On("GetByID", ctx, "a1").Return(&Actor{ID: "a1", TenantID: &tid}, nil)

	require.NoError(t, service.ChangePassword(ctx, "a1", "old-password", "new-password"))

	err = service.ChangePassword(ctx, "a1", "not-the-old-one", "new-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
