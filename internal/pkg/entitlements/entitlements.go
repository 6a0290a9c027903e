// Package entitlements answers, for one plan and feature, whether the
// feature is enabled and how much quota remains in the current period
// window. It reads the catalog and the usage store; it never touches user
// or pool state.
package entitlements

import (
	"context"
	"errors"
	"time"

	"github.com/formworks/licensing/app/models"
	"github.com/formworks/licensing/internal/pkg/catalog"
	"github.com/formworks/licensing/internal/pkg/metrics"
	"github.com/formworks/licensing/internal/pkg/usage"
	"go.uber.org/zap"
)

// ErrFeatureDisabled rejects usage recording against a feature the plan
// does not enable.
var ErrFeatureDisabled = errors.New("entitlements: feature disabled for plan")

// ErrQuotaExceeded mirrors the usage store sentinel, re-exported so
// callers only need this package.
var ErrQuotaExceeded = usage.ErrQuotaExceeded

// Decision is the outcome of a feature check.
type Decision struct {
	Enabled   bool
	Unlimited bool
	// Remaining is the quota left in the current window. Meaningless when
	// Unlimited is set.
	Remaining int64
	// ResetAt is when the current window rolls over; nil for unlimited,
	// disabled and lifetime-window features.
	ResetAt *time.Time
}

// Evaluator gates feature use against the catalog and usage counters.
type Evaluator struct {
	catalog *catalog.Store
	usage   *usage.Store
	log     *zap.Logger
	now     func() time.Time
}

// NewEvaluator creates an evaluator over the given catalog and usage store.
func NewEvaluator(cat *catalog.Store, us *usage.Store, log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{catalog: cat, usage: us, log: log, now: time.Now}
}

// CheckFeature reports whether ownerKey may use the feature under the plan
// right now, and how much quota remains. Disabled rows short-circuit
// without touching the usage store.
func (e *Evaluator) CheckFeature(ctx context.Context, planCode, featureCode, ownerKey string) (*Decision, error) {
	row, err := e.catalog.Entitlement(planCode, featureCode)
	if err != nil {
		return nil, err
	}
	if !row.IsEnabled {
		return &Decision{Enabled: false, Remaining: 0}, nil
	}
	if row.LimitValue == nil {
		return &Decision{Enabled: true, Unlimited: true}, nil
	}

	w := windowFor(row.LimitPeriod, e.now())
	count, err := e.usage.Count(ctx, ownerKey, featureCode, w)
	if err != nil {
		return nil, err
	}

	remaining := *row.LimitValue - count
	if remaining < 0 {
		remaining = 0
	}
	return &Decision{
		Enabled:   remaining > 0,
		Remaining: remaining,
		ResetAt:   w.End,
	}, nil
}

// RecordUsage counts one performed use of the feature. It must be called
// only after the gated action actually happened. Recording against a
// disabled feature or a spent quota fails loudly; the counter is never
// silently clamped.
func (e *Evaluator) RecordUsage(ctx context.Context, planCode, featureCode, ownerKey string) error {
	row, err := e.catalog.Entitlement(planCode, featureCode)
	if err != nil {
		return err
	}
	if !row.IsEnabled {
		return ErrFeatureDisabled
	}

	limit := usage.Unlimited
	if row.LimitValue != nil {
		limit = *row.LimitValue
	}

	w := windowFor(row.LimitPeriod, e.now())
	if _, err := e.usage.Increment(ctx, ownerKey, featureCode, w, limit); err != nil {
		if errors.Is(err, usage.ErrQuotaExceeded) {
			metrics.QuotaDenials.WithLabelValues(featureCode).Inc()
			e.log.Info("quota exceeded",
				zap.String("plan", planCode),
				zap.String("feature", featureCode),
				zap.String("owner", ownerKey),
			)
		}
		return err
	}
	return nil
}

// windowFor computes the current quota window. DAY and MONTH are UTC
// calendar windows; LIFETIME (and the empty period of unlimited rows) is a
// single epoch-anchored window that never rolls over.
func windowFor(period string, now time.Time) usage.Window {
	utc := now.UTC()
	switch period {
	case models.LIMIT_PERIOD_DAY:
		start := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 0, 1)
		return usage.Window{Start: start, End: &end}
	case models.LIMIT_PERIOD_MONTH:
		start := time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)
		return usage.Window{Start: start, End: &end}
	default:
		return usage.Window{Start: time.Unix(0, 0).UTC()}
	}
}
