// Package lifecycle owns user accounts and their status state machine.
// Every mutation validates first, secures or releases license seats next,
// and persists last, all inside one transaction, so a failure at any step
// leaves both the user set and the pool ledger unchanged.
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/formworks/licensing/app/models"
	"github.com/formworks/licensing/internal/pkg/catalog"
	"github.com/formworks/licensing/internal/pkg/metrics"
	"github.com/formworks/licensing/internal/pkg/notify"
	"github.com/formworks/licensing/internal/pkg/pool"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when the referenced account does not exist.
	ErrUserNotFound = errors.New("lifecycle: user not found")

	// ErrAlreadyActive rejects reactivation of an already active account.
	ErrAlreadyActive = errors.New("lifecycle: user already active")

	// ErrAlreadyInactive rejects deactivation of an already inactive account.
	ErrAlreadyInactive = errors.New("lifecycle: user already inactive")

	// ErrNotPending rejects invitation acceptance on a non-pending account.
	ErrNotPending = errors.New("lifecycle: user not pending")

	// ErrNotActive rejects deactivation of an account that never activated.
	ErrNotActive = errors.New("lifecycle: user not active")

	// ErrNotInactive rejects reactivation of a pending account.
	ErrNotInactive = errors.New("lifecycle: user not inactive")

	// ErrHasActiveWork blocks removal while external processes still
	// reference the account.
	ErrHasActiveWork = errors.New("lifecycle: user has active work")
)

// staleInvitationAge is how long after the last login a reactivated account
// gets its invitation resent.
const staleInvitationAge = 90 * 24 * time.Hour

// UserInput carries the caller-editable fields of an account.
type UserInput struct {
	Name        string
	Email       string
	Role        string
	PlanCode    string
	Department  string
	Designation string
	Location    string
}

// Service coordinates user accounts with the license pool ledger.
type Service struct {
	repo     Repository
	catalog  *catalog.Store
	notifier notify.Notifier
	log      *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	orgLocks map[uint]*sync.Mutex
}

// NewService creates a lifecycle service from injected collaborators.
func NewService(repo Repository, cat *catalog.Store, notifier notify.Notifier, log *zap.Logger) *Service {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		catalog:  cat,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		orgLocks: make(map[uint]*sync.Mutex),
	}
}

// NewServiceFromDB creates a lifecycle service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, cat *catalog.Store, notifier notify.Notifier, log *zap.Logger) *Service {
	return NewService(NewRepository(db), cat, notifier, log)
}

// lockOrg serializes lifecycle mutations per organization. Operations on
// different organizations share no state and proceed in parallel.
func (s *Service) lockOrg(orgID uint) func() {
	s.mu.Lock()
	m, ok := s.orgLocks[orgID]
	if !ok {
		m = &sync.Mutex{}
		s.orgLocks[orgID] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// AddUser validates the input, reserves a seat in the requested plan's
// pool and persists a new pending account. Seat reservation and persist
// share one transaction: no user record exists without a secured seat.
func (s *Service) AddUser(ctx context.Context, orgID uint, in UserInput) (*models.UserAccount, error) {
	_ = ctx
	defer s.lockOrg(orgID)()

	in = normalizeInput(in)
	if err := s.validateInput(orgID, in, "", ""); err != nil {
		return nil, err
	}

	user := models.NewUserAccount(orgID, in.Name, in.Email, in.Role, in.PlanCode)
	user.Department = in.Department
	user.Designation = in.Designation
	user.Location = in.Location

	err := s.repo.Transact(func(tx Repository) error {
		if err := tx.ReserveSeat(orgID, in.PlanCode); err != nil {
			return pool.MapSeatError(orgID, in.PlanCode, err)
		}
		return tx.CreateUser(user)
	})
	if err != nil {
		return nil, err
	}

	s.observePool(orgID, in.PlanCode)
	s.log.Info("user added",
		zap.String("user_id", user.ID),
		zap.Uint("org_id", orgID),
		zap.String("plan", in.PlanCode),
	)
	return user, nil
}

// UpdateUser re-validates the editable fields and applies them. A plan
// change moves the seat (reserve new, then release old) in the same
// transaction as the field update, so a failed move changes nothing.
func (s *Service) UpdateUser(ctx context.Context, userID string, in UserInput) (*models.UserAccount, error) {
	_ = ctx
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}
	defer s.lockOrg(user.OrgID)()

	// Re-read under the org lock so concurrent updates serialize.
	user, err = s.getUser(userID)
	if err != nil {
		return nil, err
	}

	in = normalizeInput(in)
	if err := s.validateInput(user.OrgID, in, user.ID, user.PlanCode); err != nil {
		return nil, err
	}

	oldPlan := user.PlanCode
	user.Name = in.Name
	user.Email = in.Email
	user.Role = in.Role
	user.PlanCode = in.PlanCode
	user.Department = in.Department
	user.Designation = in.Designation
	user.Location = in.Location

	err = s.repo.Transact(func(tx Repository) error {
		if in.PlanCode != oldPlan {
			if err := tx.ReserveSeat(user.OrgID, in.PlanCode); err != nil {
				return pool.MapSeatError(user.OrgID, in.PlanCode, err)
			}
			if err := tx.ReleaseSeat(user.OrgID, oldPlan); err != nil {
				return pool.MapSeatError(user.OrgID, oldPlan, err)
			}
		}
		return tx.UpdateUser(user)
	})
	if err != nil {
		return nil, err
	}

	if in.PlanCode != oldPlan {
		s.observePool(user.OrgID, oldPlan)
		s.observePool(user.OrgID, in.PlanCode)
		s.log.Info("user plan changed",
			zap.String("user_id", user.ID),
			zap.String("from", oldPlan),
			zap.String("to", in.PlanCode),
		)
	}
	return user, nil
}

// ActivateUser completes the invitation flow: pending accounts become
// active and get their first login stamped. The seat was already reserved
// at AddUser time, so no pool change happens here.
func (s *Service) ActivateUser(ctx context.Context, userID string) (*models.UserAccount, error) {
	_ = ctx
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}
	defer s.lockOrg(user.OrgID)()

	user, err = s.getUser(userID)
	if err != nil {
		return nil, err
	}
	if !user.IsPending() {
		return nil, ErrNotPending
	}

	now := s.now()
	user.Status = models.STATUS_ACTIVE
	user.LastLoginAt = &now
	if err := s.repo.UpdateUser(user); err != nil {
		return nil, err
	}
	s.log.Info("user activated", zap.String("user_id", user.ID))
	return user, nil
}

// DeactivateUser parks an active account. The seat is deliberately kept:
// a deactivated user still occupies a license so reactivation can never
// race other seat consumers.
func (s *Service) DeactivateUser(ctx context.Context, userID string) (*models.UserAccount, error) {
	_ = ctx
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}
	defer s.lockOrg(user.OrgID)()

	user, err = s.getUser(userID)
	if err != nil {
		return nil, err
	}
	switch user.Status {
	case models.STATUS_INACTIVE:
		return nil, ErrAlreadyInactive
	case models.STATUS_PENDING:
		return nil, ErrNotActive
	}

	user.Status = models.STATUS_INACTIVE
	if err := s.repo.UpdateUser(user); err != nil {
		return nil, err
	}
	s.log.Info("user deactivated", zap.String("user_id", user.ID))
	return user, nil
}

// ReactivateUser returns an inactive account to active. When the account
// never logged in, or not within the staleness window, the invitation is
// resent through the notifier; a notifier failure is logged and swallowed.
func (s *Service) ReactivateUser(ctx context.Context, userID string) (*models.UserAccount, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}
	defer s.lockOrg(user.OrgID)()

	user, err = s.getUser(userID)
	if err != nil {
		return nil, err
	}
	switch user.Status {
	case models.STATUS_ACTIVE:
		return nil, ErrAlreadyActive
	case models.STATUS_PENDING:
		return nil, ErrNotInactive
	}

	user.Status = models.STATUS_ACTIVE
	if err := s.repo.UpdateUser(user); err != nil {
		return nil, err
	}

	if user.InvitationStale(staleInvitationAge, s.now()) {
		if nerr := s.notifier.ResendInvitation(ctx, user); nerr != nil {
			s.log.Warn("resend invitation failed",
				zap.String("user_id", user.ID),
				zap.Error(nerr),
			)
		}
	}

	s.log.Info("user reactivated", zap.String("user_id", user.ID))
	return user, nil
}

// RemoveUser deletes the account and frees its seat, in one transaction.
// Removal is blocked while external processes still reference the account;
// the caller must reassign that work first.
func (s *Service) RemoveUser(ctx context.Context, userID string) (*models.UserAccount, error) {
	_ = ctx
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}
	defer s.lockOrg(user.OrgID)()

	user, err = s.getUser(userID)
	if err != nil {
		return nil, err
	}
	if user.HasActiveWork() {
		return nil, ErrHasActiveWork
	}

	err = s.repo.Transact(func(tx Repository) error {
		if err := tx.DeleteUser(user.ID); err != nil {
			return err
		}
		if err := tx.ReleaseSeat(user.OrgID, user.PlanCode); err != nil {
			return pool.MapSeatError(user.OrgID, user.PlanCode, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.observePool(user.OrgID, user.PlanCode)
	s.log.Info("user removed",
		zap.String("user_id", user.ID),
		zap.String("plan", user.PlanCode),
	)
	return user, nil
}

// GetUser fetches one account by ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.UserAccount, error) {
	_ = ctx
	return s.getUser(userID)
}

// ListUsers returns a page of an organization's accounts.
func (s *Service) ListUsers(ctx context.Context, orgID uint, offset, limit int) ([]models.UserAccount, error) {
	_ = ctx
	return s.repo.ListUsers(orgID, offset, limit)
}

// SearchUsers finds accounts by name or email within one organization.
func (s *Service) SearchUsers(ctx context.Context, orgID uint, query string) ([]models.UserAccount, error) {
	_ = ctx
	return s.repo.SearchUsers(orgID, query)
}

func (s *Service) getUser(userID string) (*models.UserAccount, error) {
	user, err := s.repo.GetUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// validateInput checks field rules, plan existence and org-scoped email
// uniqueness. excludeUserID skips the account's own row on updates.
// currentPlan is the plan the account already holds (empty for new
// accounts): a retired plan blocks new assignments and plan changes, but
// an existing holder keeps editing freely until moved off it.
func (s *Service) validateInput(orgID uint, in UserInput, excludeUserID, currentPlan string) error {
	probe := &models.UserAccount{
		ID:       "probe",
		OrgID:    orgID,
		Name:     in.Name,
		Email:    in.Email,
		Role:     in.Role,
		PlanCode: in.PlanCode,

		Department:  in.Department,
		Designation: in.Designation,
		Location:    in.Location,
		Status:      models.STATUS_PENDING,
	}
	if err := probe.Validate(); err != nil {
		return err
	}

	plan, err := s.catalog.Plan(in.PlanCode)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return models.NewValidationError("PlanCode", "unknown plan "+in.PlanCode)
		}
		return err
	}
	if !plan.IsActive && in.PlanCode != currentPlan {
		return models.NewValidationError("PlanCode", "plan "+in.PlanCode+" is no longer offered")
	}

	existing, err := s.repo.GetUserByEmail(orgID, in.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil && existing.ID != excludeUserID {
		return models.NewValidationError("Email", "email is already in use")
	}
	return nil
}

func (s *Service) observePool(orgID uint, planCode string) {
	p, err := s.repo.GetPool(orgID, planCode)
	if err != nil {
		return
	}
	metrics.ObservePool(p.OrgID, p.PlanCode, p.Used, p.Available)
}

func normalizeInput(in UserInput) UserInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if in.Role == "" {
		in.Role = models.ROLE_REGULAR
	}
	in.PlanCode = strings.TrimSpace(in.PlanCode)
	in.Department = strings.TrimSpace(in.Department)
	in.Designation = strings.TrimSpace(in.Designation)
	in.Location = strings.TrimSpace(in.Location)
	return in
}
