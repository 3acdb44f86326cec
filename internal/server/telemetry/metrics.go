// Package telemetry records credential lifecycle counters through the
// OpenTelemetry metric API.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	scope      = "github.com/dmitrijs2005/cashcare"
	outcomeKey = attribute.Key("outcome")
)

// Outcome labels.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeRateLimited        = "rate_limited"
	OutcomeInvalidToken       = "invalid_token"
	OutcomeExpired            = "expired"
	OutcomeReuse              = "reuse"
	OutcomeError              = "error"
)

var ErrNilMeter = errors.New("nil meter")

type Metrics struct {
	logins    metric.Int64Counter
	refreshes metric.Int64Counter
	logouts   metric.Int64Counter
	reuse     metric.Int64Counter
}

// New creates the instruments on meter.
func New(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}

	var (
		m   Metrics
		err error
	)
	if m.logins, err = meter.Int64Counter("auth.logins", metric.WithDescription("Login attempts by outcome.")); err != nil {
		return nil, fmt.Errorf("create auth.logins: %w", err)
	}
	if m.refreshes, err = meter.Int64Counter("auth.refreshes", metric.WithDescription("Refresh token rotations by outcome.")); err != nil {
		return nil, fmt.Errorf("create auth.refreshes: %w", err)
	}
	if m.logouts, err = meter.Int64Counter("auth.logouts", metric.WithDescription("Logouts by outcome.")); err != nil {
		return nil, fmt.Errorf("create auth.logouts: %w", err)
	}
	if m.reuse, err = meter.Int64Counter("auth.refresh_reuse", metric.WithDescription("Presentations of already rotated or revoked refresh tokens.")); err != nil {
		return nil, fmt.Errorf("create auth.refresh_reuse: %w", err)
	}
	return &m, nil
}

// A nil *Metrics records nothing.

func (m *Metrics) Login(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.logins.Add(ctx, 1, withOutcome(outcome))
}

func (m *Metrics) Refresh(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.refreshes.Add(ctx, 1, withOutcome(outcome))
	if outcome == OutcomeReuse {
		m.reuse.Add(ctx, 1)
	}
}

func (m *Metrics) Logout(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.logouts.Add(ctx, 1, withOutcome(outcome))
}

func withOutcome(outcome string) metric.AddOption {
	return metric.WithAttributes(outcomeKey.String(outcome))
}
