// Package pool implements the license pool ledger: per-organization seat
// counters with the conservation invariant used + available == total.
package pool

import (
	"context"
	"errors"
	"fmt"

	"github.com/formworks/licensing/app/models"
	"github.com/formworks/licensing/app/repository"
	"github.com/formworks/licensing/internal/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrPoolExhausted is the business rejection for a reserve against a
	// pool with no free seats.
	ErrPoolExhausted = errors.New("pool: no seats available")

	// ErrPoolNotFound is returned when no pool exists for the (org, plan).
	ErrPoolNotFound = errors.New("pool: not found")

	// ErrPoolCorrupted signals that the counters already violate the
	// conservation invariant. Operations halt instead of patching counts.
	ErrPoolCorrupted = errors.New("pool: counters corrupted")
)

// Ledger serializes seat accounting for license pools.
type Ledger struct {
	repo Repository
	log  *zap.Logger
}

// NewLedger creates a ledger from an injected repository.
func NewLedger(repo Repository, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{repo: repo, log: log}
}

// NewLedgerFromDB creates a ledger from a GORM DB handle.
func NewLedgerFromDB(db *gorm.DB, log *zap.Logger) *Ledger {
	return NewLedger(NewRepository(db), log)
}

// Provision creates or resizes the pool for (org, plan). Shrinking below
// the currently used seat count is rejected.
func (l *Ledger) Provision(ctx context.Context, orgID uint, planCode string, total int) (*models.LicensePool, error) {
	_ = ctx
	if total < 0 {
		return nil, fmt.Errorf("pool: negative total %d", total)
	}

	var out *models.LicensePool
	err := l.repo.Transact(func(tx Repository) error {
		existing, err := tx.Get(orgID, planCode)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil && total < existing.Used {
			return fmt.Errorf("pool org=%d plan=%s: cannot shrink total to %d below %d used seats",
				orgID, planCode, total, existing.Used)
		}
		if err := tx.Provision(&models.LicensePool{
			OrgID:     orgID,
			PlanCode:  planCode,
			Total:     total,
			Available: total,
		}); err != nil {
			return err
		}
		out, err = tx.Get(orgID, planCode)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.observe(out)
	l.log.Info("pool provisioned",
		zap.Uint("org_id", orgID),
		zap.String("plan", planCode),
		zap.Int("total", out.Total),
		zap.Int("used", out.Used),
	)
	return out, nil
}

// ReserveSeat consumes one free seat, failing with ErrPoolExhausted when
// none is available. The decrement is atomic against concurrent reserves.
func (l *Ledger) ReserveSeat(ctx context.Context, orgID uint, planCode string) error {
	_ = ctx
	if err := l.repo.ReserveSeat(orgID, planCode); err != nil {
		return l.mapSeatError(orgID, planCode, err)
	}
	l.refresh(orgID, planCode)
	return nil
}

// ReleaseSeat returns one seat to the pool. Driving used negative is an
// internal-consistency failure, not a recoverable outcome.
func (l *Ledger) ReleaseSeat(ctx context.Context, orgID uint, planCode string) error {
	_ = ctx
	if err := l.repo.ReleaseSeat(orgID, planCode); err != nil {
		return l.mapSeatError(orgID, planCode, err)
	}
	l.refresh(orgID, planCode)
	return nil
}

// MoveSeat transfers one seat between two plans of the same organization:
// reserve on the target first, release on the source only if the reserve
// succeeded. Both steps share one transaction, so a failed move leaves the
// source pool untouched and the total seat count across plans conserved.
func (l *Ledger) MoveSeat(ctx context.Context, orgID uint, fromPlan, toPlan string) error {
	_ = ctx
	if fromPlan == toPlan {
		return nil
	}
	err := l.repo.Transact(func(tx Repository) error {
		if err := tx.ReserveSeat(orgID, toPlan); err != nil {
			return l.mapSeatError(orgID, toPlan, err)
		}
		if err := tx.ReleaseSeat(orgID, fromPlan); err != nil {
			return l.mapSeatError(orgID, fromPlan, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.refresh(orgID, fromPlan)
	l.refresh(orgID, toPlan)
	return nil
}

// Snapshot returns the current counters of all pools of an organization.
func (l *Ledger) Snapshot(ctx context.Context, orgID uint) ([]models.LicensePool, error) {
	_ = ctx
	return l.repo.ListByOrg(orgID)
}

// MapSeatError converts repository-level seat errors into the ledger's
// sentinel errors. Shared with the lifecycle service, which performs seat
// operations inside its own transactions.
func MapSeatError(orgID uint, planCode string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNoAvailableSeats):
		metrics.SeatReservationsFailed.WithLabelValues(planCode).Inc()
		return fmt.Errorf("%w for plan %s", ErrPoolExhausted, planCode)
	case errors.Is(err, repository.ErrSeatUnderflow):
		return fmt.Errorf("%w: org=%d plan=%s", ErrPoolCorrupted, orgID, planCode)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: org=%d plan=%s", ErrPoolNotFound, orgID, planCode)
	default:
		return err
	}
}

func (l *Ledger) mapSeatError(orgID uint, planCode string, err error) error {
	mapped := MapSeatError(orgID, planCode, err)
	if errors.Is(mapped, ErrPoolCorrupted) {
		l.log.Error("seat release would underflow used counter",
			zap.Uint("org_id", orgID),
			zap.String("plan", planCode),
		)
	}
	return mapped
}

func (l *Ledger) refresh(orgID uint, planCode string) {
	p, err := l.repo.Get(orgID, planCode)
	if err != nil {
		return
	}
	l.observe(p)
}

func (l *Ledger) observe(p *models.LicensePool) {
	if p == nil {
		return
	}
	metrics.ObservePool(p.OrgID, p.PlanCode, p.Used, p.Available)
}
