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

package notification

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/medikart/medikart/internal/id"
	"github.com/medikart/medikart/internal/observability/logger"
)

// DispatcherConfig holds delivery tuning.
type DispatcherConfig struct {
	Timeout     time.Duration
	MaxRetries  int
	WorkerCount int
	QueueSize   int
}

// Dispatcher delivers business events to tenant webhook endpoints on a
// bounded worker pool. Delivery outcomes are recorded to the delivery log;
// a full queue drops the event with a warning rather than blocking the
// request path.
type Dispatcher struct {
	endpoints  EndpointRepository
	deliveries DeliveryRepository
	client     *http.Client
	cfg        DispatcherConfig

	queue chan Event
	wg    sync.WaitGroup
	once  sync.Once
}

// NewDispatcher creates a dispatcher. Call Start before publishing.
func NewDispatcher(endpoints EndpointRepository, deliveries DeliveryRepository, cfg DispatcherConfig) *Dispatcher {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Dispatcher{
		endpoints:  endpoints,
		deliveries: deliveries,
		client:     &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		queue:      make(chan Event, cfg.QueueSize),
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.cfg.WorkerCount; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

// Stop closes the queue and waits for in-flight deliveries.
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.queue) })
	d.wg.Wait()
}

// Publish enqueues an event for delivery. Satisfies Publisher.
func (d *Dispatcher) Publish(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = id.NewUUIDv7()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	select {
	case d.queue <- event:
	default:
		slog.WarnContext(ctx, "webhook queue full, dropping event",
			logger.Component("webhook"),
			logger.TenantID(event.TenantID),
			logger.EventType(event.Type),
		)
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(ctx, event)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event Event) {
	endpoint, err := d.endpoints.GetByTenant(ctx, event.TenantID)
	if err != nil || !endpoint.Active {
		// Tenant has no webhook configured; nothing to do.
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode webhook payload",
			logger.Component("webhook"),
			logger.Error(err),
		)
		return
	}

	delivery := &Delivery{
		ID:         id.NewUUIDv7(),
		TenantID:   event.TenantID,
		EndpointID: endpoint.ID,
		EventType:  event.Type,
		Payload:    payload,
		CreatedAt:  time.Now(),
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(d.cfg.MaxRetries)),
		ctx,
	)

	err = backoff.Retry(func() error {
		delivery.Attempts++
		return d.post(ctx, endpoint, payload)
	}, policy)

	now := time.Now()
	delivery.CompletedAt = &now
	if err != nil {
		delivery.Status = DeliveryFailed
		delivery.LastError = err.Error()
		slog.WarnContext(ctx, "webhook delivery failed",
			logger.Component("webhook"),
			logger.TenantID(event.TenantID),
			logger.EventType(event.Type),
			logger.WebhookURL(endpoint.URL),
			logger.Attempts(delivery.Attempts),
			logger.Error(err),
		)
	} else {
		delivery.Status = DeliveryDelivered
		slog.InfoContext(ctx, "webhook delivered",
			logger.Component("webhook"),
			logger.TenantID(event.TenantID),
			logger.EventType(event.Type),
			logger.Attempts(delivery.Attempts),
		)
	}

	if err := d.deliveries.Record(ctx, delivery); err != nil {
		slog.ErrorContext(ctx, "failed to record webhook delivery",
			logger.Component("webhook"),
			logger.Error(err),
		)
	}
}

func (d *Dispatcher) post(ctx context.Context, endpoint *Endpoint, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if endpoint.Secret != "" {
		req.Header.Set("X-Medikart-Signature", Sign(endpoint.Secret, payload))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		// Client errors will not heal on retry.
		return backoff.Permanent(fmt.Errorf("endpoint returned %d", resp.StatusCode))
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 signature sent with each delivery.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
