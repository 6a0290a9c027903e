package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAccount() *UserAccount {
	return NewUserAccount(1, "Ada Lovelace", "ada@example.com", ROLE_REGULAR, "PLAN")
}

func TestNewUserAccountDefaults(t *testing.T) {
	u := validAccount()

	require.NotEmpty(t, u.ID)
	assert.Equal(t, STATUS_PENDING, u.Status)
	assert.Nil(t, u.LastLoginAt)
	assert.NoError(t, u.Validate())
}

func TestUserAccountValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(u *UserAccount)
		wantKey string
	}{
		{name: "missing name", mutate: func(u *UserAccount) { u.Name = "" }, wantKey: "Name"},
		{name: "name too long", mutate: func(u *UserAccount) { u.Name = strings.Repeat("x", 51) }, wantKey: "Name"},
		{name: "missing email", mutate: func(u *UserAccount) { u.Email = "" }, wantKey: "Email"},
		{name: "malformed email", mutate: func(u *UserAccount) { u.Email = "not-an-email" }, wantKey: "Email"},
		{name: "unknown role", mutate: func(u *UserAccount) { u.Role = "superuser" }, wantKey: "Role"},
		{name: "missing plan", mutate: func(u *UserAccount) { u.PlanCode = "" }, wantKey: "PlanCode"},
		{name: "department too long", mutate: func(u *UserAccount) { u.Department = strings.Repeat("d", 51) }, wantKey: "Department"},
		{name: "designation too long", mutate: func(u *UserAccount) { u.Designation = strings.Repeat("d", 51) }, wantKey: "Designation"},
		{name: "location too long", mutate: func(u *UserAccount) { u.Location = strings.Repeat("l", 51) }, wantKey: "Location"},
		{name: "unknown status", mutate: func(u *UserAccount) { u.Status = "archived" }, wantKey: "Status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := validAccount()
			tt.mutate(u)

			err := u.Validate()
			require.Error(t, err)

			verr, ok := err.(*ValidationError)
			require.True(t, ok, "expected *ValidationError, got %T", err)
			assert.Contains(t, verr.Fields, tt.wantKey)
		})
	}
}

func TestUserAccountStatusHelpers(t *testing.T) {
	u := validAccount()
	assert.True(t, u.IsPending())
	assert.False(t, u.IsActive())

	u.Status = STATUS_ACTIVE
	assert.True(t, u.IsActive())
	assert.False(t, u.IsPending())
}

func TestUserAccountHasActiveWork(t *testing.T) {
	u := validAccount()
	assert.False(t, u.HasActiveWork())

	u.ActiveProcesses = 2
	assert.True(t, u.HasActiveWork())
}

func TestUserAccountInvitationStale(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	maxAge := 90 * 24 * time.Hour

	u := validAccount()
	assert.True(t, u.InvitationStale(maxAge, now), "never logged in")

	recent := now.Add(-24 * time.Hour)
	u.LastLoginAt = &recent
	assert.False(t, u.InvitationStale(maxAge, now))

	old := now.Add(-91 * 24 * time.Hour)
	u.LastLoginAt = &old
	assert.True(t, u.InvitationStale(maxAge, now))
}

func TestValidationErrorMessage(t *testing.T) {
	err := NewValidationError("Email", "is already in use")
	assert.Equal(t, "validation failed: Email: is already in use", err.Error())
}
