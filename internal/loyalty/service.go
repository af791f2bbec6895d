// Copyright 2026 The Medikart Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package loyalty

import (
	"context"
	"fmt"
	"time"

	"github.com/medikart/medikart/internal/audit"
	"github.com/medikart/medikart/internal/id"
)

// Service provides credit ledger business logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
}

// NewService creates a new loyalty service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		auditLogger: auditLogger,
	}
}

// Credit appends an earn entry.
func (s *Service) Credit(ctx context.Context, tenantID, customerID string, amount int64, reference, note string) (*Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.append(ctx, tenantID, customerID, KindEarn, amount, reference, note)
}

// Redeem appends a redeem entry after confirming the balance covers it.
func (s *Service) Redeem(ctx context.Context, tenantID, customerID string, amount int64, reference, note string) (*Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	balance, err := s.repo.Balance(ctx, tenantID, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	if balance < amount {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrInsufficientCredit, balance, amount)
	}

	return s.append(ctx, tenantID, customerID, KindRedeem, -amount, reference, note)
}

// Adjust appends a signed manual correction (admin use).
func (s *Service) Adjust(ctx context.Context, tenantID, customerID, actorID string, amount int64, note string) (*Entry, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}

	entry, err := s.append(ctx, tenantID, customerID, KindAdjust, amount, "", note)
	if err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeCreditAdjusted,
		TenantID: tenantID,
		ActorID:  actorID,
		Resource: "loyalty_ledger",
		Metadata: map[string]any{"customer_id": customerID, "amount": amount},
	})

	return entry, nil
}

// Balance returns the customer's current credit balance in cents.
func (s *Service) Balance(ctx context.Context, tenantID, customerID string) (int64, error) {
	return s.repo.Balance(ctx, tenantID, customerID)
}

// History returns the customer's ledger entries, newest first.
func (s *Service) History(ctx context.Context, tenantID, customerID string, limit, offset int) ([]*Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.History(ctx, tenantID, customerID, limit, offset)
}

func (s *Service) append(ctx context.Context, tenantID, customerID, kind string, amount int64, reference, note string) (*Entry, error) {
	entry := &Entry{
		ID:         id.NewUUIDv7(),
		TenantID:   tenantID,
		CustomerID: customerID,
		Kind:       kind,
		Amount:     amount,
		Reference:  reference,
		Note:       note,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return entry, nil
}
