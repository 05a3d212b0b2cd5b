// Package dispatch turns a declarative operation specification into a live
// provider call. It owns retry policy and error classification; everything
// service-specific lives in the registry's data. Adding a resource kind is
// a data change, never a new code path here.
package dispatch

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/spyglass-dev/spyglass/extract"
	"github.com/spyglass-dev/spyglass/registry"
	"github.com/spyglass-dev/spyglass/transport"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 200 * time.Millisecond
	backoffCap         = 5 * time.Second
)

// Target identifies where a call goes: credential profile, region, and an
// optional endpoint override.
type Target struct {
	Profile  string
	Region   string
	Endpoint string
}

// ActionOutcome is the result of one executed action.
type ActionOutcome struct {
	Action  string
	Key     string
	Message string
}

// Dispatcher performs generic invocations against the provider.
type Dispatcher struct {
	reg       *registry.Registry
	transport transport.Transport
	logger    zerolog.Logger

	maxAttempts int
	backoffBase time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithMaxAttempts bounds throttling retries.
func WithMaxAttempts(n int) Option {
	return func(d *Dispatcher) { d.maxAttempts = n }
}

// WithBackoffBase sets the first backoff delay.
func WithBackoffBase(base time.Duration) Option {
	return func(d *Dispatcher) { d.backoffBase = base }
}

// New creates a Dispatcher over the given transport collaborator.
func New(reg *registry.Registry, t transport.Transport, logger zerolog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reg:         reg,
		transport:   t,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Invoke performs one operation, retrying transparently per the error
// taxonomy: throttling gets bounded exponential backoff, transport failures
// one retry, everything else surfaces immediately.
func (d *Dispatcher) Invoke(ctx context.Context, target Target, spec registry.OperationSpec, params map[string]any) (any, error) {
	transportRetried := false

	for attempt := 1; ; attempt++ {
		raw, err := d.invokeOnce(ctx, target, spec, params)
		if err == nil {
			return raw, nil
		}

		derr := classify(err)
		switch derr.Class {
		case ClassThrottling:
			if attempt >= d.maxAttempts {
				return nil, derr
			}
			delay := backoff(d.backoffBase, attempt)
			d.logger.Debug().
				Str("operation", spec.Operation).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Msg("throttled, backing off")
			if err := d.sleep(ctx, delay); err != nil {
				return nil, derr
			}
		case ClassTransport:
			if transportRetried {
				return nil, derr
			}
			transportRetried = true
			d.logger.Debug().
				Str("operation", spec.Operation).
				Str("error", derr.Message).
				Msg("transport failure, retrying once")
		default:
			return nil, derr
		}
	}
}

// invokeOnce performs exactly one external call, no retries.
func (d *Dispatcher) invokeOnce(ctx context.Context, target Target, spec registry.OperationSpec, params map[string]any) (any, error) {
	sd, err := d.reg.Service(spec.Service)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(spec.StaticParams)+len(params))
	for k, v := range spec.StaticParams {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}

	return d.transport.RoundTrip(ctx, transport.Call{
		Profile:   target.Profile,
		Region:    target.Region,
		Endpoint:  target.Endpoint,
		Service:   sd,
		Operation: spec.Operation,
		Method:    spec.HTTPMethod,
		Path:      spec.HTTPPath,
		Params:    merged,
	})
}

// Describe fetches the detail view of one resource. Kinds without a
// describe operation fall back to the cached raw value from the most recent
// list page: a degraded detail view, not an error.
func (d *Dispatcher) Describe(ctx context.Context, target Target, kind registry.ResourceKind, key string, cached any) (any, error) {
	if kind.Describe == nil {
		return cached, nil
	}
	return d.Invoke(ctx, target, *kind.Describe, map[string]any{kind.DescribeParam: key})
}

// ExecuteAction resolves the action's parameter bindings from the row's raw
// value and performs a single attempt. A missing binding fails before any
// transport call. Actions are never retried: they mutate and are not
// assumed idempotent.
func (d *Dispatcher) ExecuteAction(ctx context.Context, target Target, action registry.Action, raw any) (ActionOutcome, error) {
	params := make(map[string]any, len(action.Bindings))
	var key string
	for _, b := range action.Bindings {
		v, ok := extract.Get(raw, b.FieldPath)
		if !ok {
			return ActionOutcome{}, fmt.Errorf("%w: parameter %s from field %q", ErrMissingBinding, b.Param, b.FieldPath)
		}
		params[b.Param] = v
		if key == "" {
			key = extract.Display(v)
		}
	}

	if _, err := d.invokeOnce(ctx, target, action.Spec, params); err != nil {
		return ActionOutcome{}, classify(err)
	}

	d.logger.Info().
		Str("action", action.ID).
		Str("operation", action.Spec.Operation).
		Str("key", key).
		Msg("action executed")

	return ActionOutcome{
		Action:  action.ID,
		Key:     key,
		Message: fmt.Sprintf("%s: %s", action.Label, key),
	}, nil
}

// FormatTimestamp normalizes heterogeneous timestamp encodings into the
// canonical display form. Unparsable input passes through unchanged.
func FormatTimestamp(raw any) string {
	return extract.Timestamp(raw)
}

// backoff grows exponentially with equal jitter, capped.
func backoff(base time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > backoffCap {
		d = backoffCap
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
