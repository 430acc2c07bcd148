package failover

import (
	"context"
	"fmt"
	"time"

	"omnichannel/application/ports"
	"omnichannel/domain/entities"
	"omnichannel/pkg/observability"

	"go.uber.org/zap"
)

// RetryPolicy bounds the write-path retry discipline applied to the primary
// store. Attempt n waits BaseDelay * 2^n before running.
type RetryPolicy struct {
	Retries   int           // retries after the initial attempt
	BaseDelay time.Duration // backoff unit for the exponential delay
}

// DefaultRetryPolicy mirrors the production policy: a single retry, with the
// first retry delayed by two seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Retries:   1,
		BaseDelay: time.Second,
	}
}

// pipelineState tracks where a call is in the retry-then-fallback pipeline.
// The pipeline is deliberately linear - there is no circuit breaker and no
// queue of deferred writes; once a call falls over, the secondary store's
// outcome is the caller's outcome.
type pipelineState int

const (
	stateTryingPrimary pipelineState = iota
	stateRetryingPrimary
	stateFallingOver
	stateDone
)

// ClientRepository presents a single CRUD contract backed by the primary
// store with automatic degradation to the secondary store.
//
// Reads attempt the primary exactly once; writes get the retry policy. In
// both cases exhaustion of the primary emits a failover notification and
// re-targets the secondary store, whose result - success or failure - is
// what the caller sees.
type ClientRepository struct {
	primary   ports.ClientRepository
	secondary ports.ClientRepository
	sink      ports.NotificationSink
	metrics   *observability.Metrics
	policy    RetryPolicy
	logger    *zap.Logger
}

// NewClientRepository composes the two stores behind the failover policy.
// sink and metrics may be nil; neither participates in the CRUD result.
func NewClientRepository(
	primary ports.ClientRepository,
	secondary ports.ClientRepository,
	sink ports.NotificationSink,
	metrics *observability.Metrics,
	policy RetryPolicy,
	logger *zap.Logger,
) *ClientRepository {
	return &ClientRepository{
		primary:   primary,
		secondary: secondary,
		sink:      sink,
		metrics:   metrics,
		policy:    policy,
		logger:    logger,
	}
}

// GetAll reads from the primary once and degrades to the secondary on any
// failure.
func (r *ClientRepository) GetAll(ctx context.Context) ([]*entities.Client, error) {
	clients, err := r.primary.GetAll(ctx)
	if err == nil {
		return clients, nil
	}
	r.notifyFailover(ctx, "GetAllClients", err)
	return r.secondary.GetAll(ctx)
}

// GetByID reads from the primary once and degrades to the secondary on any
// failure.
func (r *ClientRepository) GetByID(ctx context.Context, id int) (*entities.Client, error) {
	client, err := r.primary.GetByID(ctx, id)
	if err == nil {
		return client, nil
	}
	r.notifyFailover(ctx, fmt.Sprintf("GetClient Id=%d", id), err)
	return r.secondary.GetByID(ctx, id)
}

// Exists reads from the primary once and degrades to the secondary on any
// failure.
func (r *ClientRepository) Exists(ctx context.Context, id int) (bool, error) {
	exists, err := r.primary.Exists(ctx, id)
	if err == nil {
		return exists, nil
	}
	r.notifyFailover(ctx, fmt.Sprintf("ExistsClient Id=%d", id), err)
	return r.secondary.Exists(ctx, id)
}

// Create runs the write pipeline. A create that falls over receives its
// identifier from the secondary store's allocator, permanently forking the
// identifier space between the two stores.
func (r *ClientRepository) Create(ctx context.Context, client *entities.Client) (*entities.Client, error) {
	var created *entities.Client
	err := r.executeWrite(ctx, "CreateClient",
		func(ctx context.Context) error {
			var err error
			created, err = r.primary.Create(ctx, client)
			return err
		},
		func(ctx context.Context) error {
			var err error
			created, err = r.secondary.Create(ctx, client)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update runs the write pipeline.
func (r *ClientRepository) Update(ctx context.Context, client *entities.Client) error {
	return r.executeWrite(ctx, fmt.Sprintf("UpdateClient Id=%d", client.ClientID),
		func(ctx context.Context) error { return r.primary.Update(ctx, client) },
		func(ctx context.Context) error { return r.secondary.Update(ctx, client) },
	)
}

// Delete runs the write pipeline. Both stores treat an absent identifier as a
// no-op, so the composed delete stays idempotent.
func (r *ClientRepository) Delete(ctx context.Context, id int) error {
	return r.executeWrite(ctx, fmt.Sprintf("DeleteClient Id=%d", id),
		func(ctx context.Context) error { return r.primary.Delete(ctx, id) },
		func(ctx context.Context) error { return r.secondary.Delete(ctx, id) },
	)
}

// executeWrite drives the retry-then-fallback state machine for a write
// operation. If both the primary attempts and the secondary call fail, the
// secondary's error is the one surfaced; the primary's terminal error
// travels only through the notification.
func (r *ClientRepository) executeWrite(
	ctx context.Context,
	operation string,
	primary func(context.Context) error,
	secondary func(context.Context) error,
) error {
	state := stateTryingPrimary
	attempt := 0
	var lastErr error

	for state != stateDone {
		switch state {
		case stateTryingPrimary:
			if lastErr = primary(ctx); lastErr == nil {
				state = stateDone
				break
			}
			attempt = 1
			if r.policy.Retries > 0 {
				state = stateRetryingPrimary
			} else {
				state = stateFallingOver
			}

		case stateRetryingPrimary:
			if err := r.wait(ctx, r.backoff(attempt)); err != nil {
				return err
			}
			r.metrics.CountRetry(operation)
			r.logger.Debug("retrying primary store",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			if lastErr = primary(ctx); lastErr == nil {
				state = stateDone
				break
			}
			attempt++
			if attempt > r.policy.Retries {
				state = stateFallingOver
			}

		case stateFallingOver:
			r.notifyFailover(ctx, operation, lastErr)
			return secondary(ctx)
		}
	}

	return nil
}

// backoff returns the delay before the given attempt, exponential in the
// attempt number.
func (r *ClientRepository) backoff(attempt int) time.Duration {
	return r.policy.BaseDelay << uint(attempt)
}

// wait sleeps for the given delay unless the context ends first.
func (r *ClientRepository) wait(ctx context.Context, delay time.Duration) error {
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// notifyFailover emits the failover signal. The sink's contract is
// best-effort and non-blocking, so the CRUD outcome is never held up or
// altered by it.
func (r *ClientRepository) notifyFailover(ctx context.Context, operation string, cause error) {
	r.metrics.CountFailover(operation)
	r.logger.Warn("primary store exhausted, failing over",
		zap.String("operation", operation),
		zap.Error(cause),
	)
	if r.sink == nil {
		return
	}
	message := fmt.Sprintf("FAILOVER triggered | Operation=%s | Reason=%v", operation, cause)
	r.sink.Notify(ctx, message, ports.SeverityCritical)
}

var _ ports.ClientRepository = (*ClientRepository)(nil)
