// Package catalog holds the versioned plan/feature/entitlement catalog.
// The catalog is configuration data: it is loaded as a whole, validated as
// a whole, and swapped in atomically. Readers never observe a half-updated
// matrix.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/formworks/licensing/app/models"
)

var (
	// ErrNotFound is returned when a plan, feature or entitlement row is
	// absent from the current catalog version.
	ErrNotFound = errors.New("catalog: not found")

	// ErrInvalidCatalog wraps every load-time validation failure. A swap
	// that fails validation leaves the previous version in place.
	ErrInvalidCatalog = errors.New("catalog: invalid document")
)

// Document is the on-disk shape of one catalog version.
type Document struct {
	Plans        []models.LicensePlan `json:"plans"`
	Features     []models.Feature     `json:"features"`
	Entitlements []models.Entitlement `json:"entitlements"`
}

// Snapshot is one immutable, fully validated catalog version.
type Snapshot struct {
	plans        map[string]models.LicensePlan
	features     map[string]models.Feature
	entitlements map[string]map[string]models.Entitlement
}

// Store serves lock-free reads against the current snapshot and swaps in
// replacement snapshots atomically.
type Store struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
}

// NewStore creates a store serving the given snapshot as version 1.
func NewStore(snap *Snapshot) *Store {
	s := &Store{}
	s.current.Store(snap)
	s.version.Store(1)
	return s
}

// Replace swaps in a new snapshot. The caller must have built it through
// BuildSnapshot so it is already validated.
func (s *Store) Replace(snap *Snapshot) uint64 {
	s.current.Store(snap)
	return s.version.Add(1)
}

// Version returns the current catalog version counter.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

// Plan looks up a plan definition by code.
func (s *Store) Plan(planCode string) (*models.LicensePlan, error) {
	snap := s.current.Load()
	p, ok := snap.plans[planCode]
	if !ok {
		return nil, fmt.Errorf("plan %q: %w", planCode, ErrNotFound)
	}
	return &p, nil
}

// Feature looks up a feature definition by code.
func (s *Store) Feature(featureCode string) (*models.Feature, error) {
	snap := s.current.Load()
	f, ok := snap.features[featureCode]
	if !ok {
		return nil, fmt.Errorf("feature %q: %w", featureCode, ErrNotFound)
	}
	return &f, nil
}

// Entitlement looks up the matrix row for one (plan, feature) pair.
func (s *Store) Entitlement(planCode, featureCode string) (*models.Entitlement, error) {
	snap := s.current.Load()
	rows, ok := snap.entitlements[planCode]
	if !ok {
		return nil, fmt.Errorf("plan %q: %w", planCode, ErrNotFound)
	}
	e, ok := rows[featureCode]
	if !ok {
		return nil, fmt.Errorf("entitlement %s/%s: %w", planCode, featureCode, ErrNotFound)
	}
	return &e, nil
}

// ListEntitlements returns all matrix rows of one plan.
func (s *Store) ListEntitlements(planCode string) ([]models.Entitlement, error) {
	snap := s.current.Load()
	rows, ok := snap.entitlements[planCode]
	if !ok {
		return nil, fmt.Errorf("plan %q: %w", planCode, ErrNotFound)
	}
	out := make([]models.Entitlement, 0, len(rows))
	for _, e := range rows {
		out = append(out, e)
	}
	return out, nil
}

// Counts reports how many plans, features and entitlement rows the
// snapshot holds.
func (s *Snapshot) Counts() (plans, features, entitlements int) {
	plans = len(s.plans)
	features = len(s.features)
	for _, rows := range s.entitlements {
		entitlements += len(rows)
	}
	return plans, features, entitlements
}

// BuildSnapshot validates a document and freezes it into a snapshot.
// Checked: field-level rules on every definition, duplicate codes,
// referential integrity of every entitlement row, and the rule that a
// disabled row carries no quota.
func BuildSnapshot(doc *Document) (*Snapshot, error) {
	snap := &Snapshot{
		plans:        make(map[string]models.LicensePlan, len(doc.Plans)),
		features:     make(map[string]models.Feature, len(doc.Features)),
		entitlements: make(map[string]map[string]models.Entitlement, len(doc.Plans)),
	}

	for _, p := range doc.Plans {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: plan %q: %v", ErrInvalidCatalog, p.PlanCode, err)
		}
		if _, dup := snap.plans[p.PlanCode]; dup {
			return nil, fmt.Errorf("%w: duplicate plan code %q", ErrInvalidCatalog, p.PlanCode)
		}
		snap.plans[p.PlanCode] = p
	}
	for _, p := range doc.Plans {
		if p.AutoDowngradeTo == "" {
			continue
		}
		if _, ok := snap.plans[p.AutoDowngradeTo]; !ok {
			return nil, fmt.Errorf("%w: plan %q downgrades to unknown plan %q", ErrInvalidCatalog, p.PlanCode, p.AutoDowngradeTo)
		}
	}

	for _, f := range doc.Features {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("%w: feature %q: %v", ErrInvalidCatalog, f.FeatureCode, err)
		}
		if _, dup := snap.features[f.FeatureCode]; dup {
			return nil, fmt.Errorf("%w: duplicate feature code %q", ErrInvalidCatalog, f.FeatureCode)
		}
		snap.features[f.FeatureCode] = f
	}

	for _, e := range doc.Entitlements {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entitlement %s/%s: %v", ErrInvalidCatalog, e.PlanCode, e.FeatureCode, err)
		}
		if _, ok := snap.plans[e.PlanCode]; !ok {
			return nil, fmt.Errorf("%w: entitlement references unknown plan %q", ErrInvalidCatalog, e.PlanCode)
		}
		if _, ok := snap.features[e.FeatureCode]; !ok {
			return nil, fmt.Errorf("%w: entitlement references unknown feature %q", ErrInvalidCatalog, e.FeatureCode)
		}
		if err := e.CheckQuotaInvariant(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		rows, ok := snap.entitlements[e.PlanCode]
		if !ok {
			rows = make(map[string]models.Entitlement)
			snap.entitlements[e.PlanCode] = rows
		}
		if _, dup := rows[e.FeatureCode]; dup {
			return nil, fmt.Errorf("%w: duplicate entitlement row %s/%s", ErrInvalidCatalog, e.PlanCode, e.FeatureCode)
		}
		rows[e.FeatureCode] = e
	}

	// Every plan gets an entry even when it has no entitlement rows yet,
	// so lookups can distinguish "unknown plan" from "no row".
	for code := range snap.plans {
		if _, ok := snap.entitlements[code]; !ok {
			snap.entitlements[code] = make(map[string]models.Entitlement)
		}
	}

	return snap, nil
}

// Parse decodes and validates a JSON catalog document.
func Parse(data []byte) (*Snapshot, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return BuildSnapshot(&doc)
}

// LoadFile reads, decodes and validates a catalog file.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
