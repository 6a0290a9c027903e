package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func int64p(v int64) *int64 { return &v }

func TestEntitlementQuotaInvariant(t *testing.T) {
	tests := []struct {
		name    string
		row     Entitlement
		wantErr bool
	}{
		{
			name: "disabled with zero quota",
			row:  Entitlement{PlanCode: "P", FeatureCode: "F", IsEnabled: false, LimitValue: int64p(0)},
		},
		{
			name:    "disabled with nil limit",
			row:     Entitlement{PlanCode: "P", FeatureCode: "F", IsEnabled: false},
			wantErr: true,
		},
		{
			name:    "disabled with nonzero limit",
			row:     Entitlement{PlanCode: "P", FeatureCode: "F", IsEnabled: false, LimitValue: int64p(5)},
			wantErr: true,
		},
		{
			name:    "disabled with period",
			row:     Entitlement{PlanCode: "P", FeatureCode: "F", IsEnabled: false, LimitValue: int64p(0), LimitPeriod: LIMIT_PERIOD_DAY},
			wantErr: true,
		},
		{
			name: "enabled unlimited",
			row:  Entitlement{PlanCode: "P", FeatureCode: "F", IsEnabled: true},
		},
		{
			name:    "enabled unlimited with period",
			row:     Entitlement{PlanCode: "P", FeatureCode: "F", IsEnabled: true, LimitPeriod: LIMIT_PERIOD_MONTH},
			wantErr: true,
		},
		{
			name: "enabled limited with period",
			row:  Entitlement{PlanCode: "P", FeatureCode: "F", IsEnabled: true, LimitValue: int64p(10), LimitPeriod: LIMIT_PERIOD_MONTH},
		},
		{
			name:    "enabled limited without period",
			row:     Entitlement{PlanCode: "P", FeatureCode: "F", IsEnabled: true, LimitValue: int64p(10)},
			wantErr: true,
		},
		{
			name:    "negative limit",
			row:     Entitlement{PlanCode: "P", FeatureCode: "F", IsEnabled: true, LimitValue: int64p(-1), LimitPeriod: LIMIT_PERIOD_DAY},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.row.CheckQuotaInvariant()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEntitlementIsUnlimited(t *testing.T) {
	unlimited := Entitlement{IsEnabled: true}
	assert.True(t, unlimited.IsUnlimited())

	limited := Entitlement{IsEnabled: true, LimitValue: int64p(3), LimitPeriod: LIMIT_PERIOD_DAY}
	assert.False(t, limited.IsUnlimited())

	disabled := Entitlement{IsEnabled: false, LimitValue: int64p(0)}
	assert.False(t, disabled.IsUnlimited())
}

func TestLicensePoolCheckConservation(t *testing.T) {
	ok := LicensePool{OrgID: 1, PlanCode: "P", Total: 10, Used: 4, Available: 6}
	assert.NoError(t, ok.CheckConservation())

	leak := LicensePool{OrgID: 1, PlanCode: "P", Total: 10, Used: 4, Available: 5}
	assert.Error(t, leak.CheckConservation())

	negative := LicensePool{OrgID: 1, PlanCode: "P", Total: 10, Used: -1, Available: 11}
	assert.Error(t, negative.CheckConservation())
}
