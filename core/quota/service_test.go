package quota_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incubaapp/incuba/core/quota"
	"github.com/incubaapp/incuba/core/tier"
	"github.com/incubaapp/incuba/core/user"
	emailsvc "github.com/incubaapp/incuba/services/email"
	testutil "github.com/incubaapp/incuba/tests"
)

func TestCreateValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.UserRepo, "Owner", "owner@example.com", []string{user.RoleCandidate})
	v := testutil.CreateVenture(t, env, owner.ID, "Artesanías", "Pasto", 2, 1)

	tests := []struct {
		name    string
		na      quota.NewAssignment
		wantErr bool
	}{
		{"valid", quota.NewAssignment{VentureID: v.ID, Tier: tier.Growth, Cohort: 1}, false},
		{"lowercase tier", quota.NewAssignment{VentureID: v.ID, Tier: "scale", Cohort: 2}, false},
		{"unknown tier", quota.NewAssignment{VentureID: v.ID, Tier: "Mega", Cohort: 1}, true},
		{"no cohort", quota.NewAssignment{VentureID: v.ID, Tier: tier.Starter}, true},
		{"unknown venture", quota.NewAssignment{VentureID: "nope", Tier: tier.Starter, Cohort: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := env.Quotas.Create(ctx, tt.na)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, quota.StatePending, a.State)
			assert.True(t, a.Tier.Valid())
		})
	}
}

func TestApprove(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@example.com", []string{user.RoleAdmin})
	owner := testutil.CreateUser(t, env.UserRepo, "Owner", "owner@example.com", []string{user.RoleCandidate})
	v := testutil.CreateVenture(t, env, owner.ID, "Artesanías", "Pasto", 2, 1)

	first, err := env.Quotas.Create(ctx, quota.NewAssignment{VentureID: v.ID, Tier: tier.Growth, Cohort: 1})
	require.NoError(t, err)
	second, err := env.Quotas.Create(ctx, quota.NewAssignment{VentureID: v.ID, Tier: tier.Scale, Cohort: 1})
	require.NoError(t, err)

	a, out, err := env.Quotas.Approve(ctx, admin.ID, first.ID)
	require.NoError(t, err)
	assert.False(t, out.Degraded(), out.Warnings())
	assert.Equal(t, quota.StateApproved, a.State)
	assert.Equal(t, admin.ID, a.ApprovedBy)

	promoted, err := env.Users.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsBeneficiary())
	assert.False(t, promoted.HasRole(user.RoleCandidate))

	require.Len(t, emailsvc.SentMessages, 1)
	msg := emailsvc.SentMessages[0]
	assert.Equal(t, owner.Email, msg.To[0].Address)
	assert.Contains(t, msg.TextContent, "Growth")

	t.Run("single approved per venture", func(t *testing.T) {
		_, _, err := env.Quotas.Approve(ctx, admin.ID, second.ID)
		assert.ErrorIs(t, err, quota.ErrAlreadyApproved)
		_, _, err = env.Quotas.Approve(ctx, admin.ID, first.ID)
		assert.ErrorIs(t, err, quota.ErrAlreadyApproved)
	})

	t.Run("indexes", func(t *testing.T) {
		ids, err := env.Quotas.ApprovedVentureIDs(ctx)
		require.NoError(t, err)
		assert.True(t, ids.Exist(v.ID))

		idx, err := env.Quotas.ApprovedIndex(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]tier.Tier{v.ID: tier.Growth}, idx)
	})

	t.Run("reject", func(t *testing.T) {
		r, err := env.Quotas.Reject(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, quota.StateRejected, r.State)

		_, err = env.Quotas.Reject(ctx, second.ID)
		assert.ErrorIs(t, err, quota.ErrNotPending)
		_, _, err = env.Quotas.Approve(ctx, admin.ID, second.ID)
		assert.ErrorIs(t, err, quota.ErrNotPending)
	})
}

func TestApproveNotificationFailure(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@example.com", []string{user.RoleAdmin})
	owner := testutil.CreateUser(t, env.UserRepo, "Owner", "owner@example.com", []string{user.RoleCandidate})
	v := testutil.CreateVenture(t, env, owner.ID, "Artesanías", "Pasto", 2, 1)
	pending, err := env.Quotas.Create(ctx, quota.NewAssignment{VentureID: v.ID, Tier: tier.Starter, Cohort: 3})
	require.NoError(t, err)

	env.Mail.Err = testutil.ErrSMTPDown
	a, out, err := env.Quotas.Approve(ctx, admin.ID, pending.ID)
	require.NoError(t, err, "the approval itself must succeed")
	assert.True(t, a.IsApproved())
	require.True(t, out.Degraded())
	require.Len(t, out.Failures, 1)
	assert.Equal(t, quota.EffectNotify, out.Failures[0].Effect)
	assert.ErrorIs(t, out.Failures[0].Err, testutil.ErrSMTPDown)

	stored, err := env.Quotas.Get(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsApproved())

	promoted, err := env.Users.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsBeneficiary())
}
