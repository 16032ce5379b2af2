package mentorship_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/mentorship"
	"github.com/incubaapp/incuba/core/user"
	testutil "github.com/incubaapp/incuba/tests"
)

type fixture struct {
	env         *testutil.Env
	mentor      user.User
	beneficiary user.User
	ventureID   string
}

func setup(t *testing.T) fixture {
	env := testutil.NewEnv(t)
	mentor := testutil.CreateUser(t, env.UserRepo, "Mentor", "mentor@example.com", []string{user.RoleMentor})
	ben := testutil.CreateUser(t, env.UserRepo, "Ben", "ben@example.com", []string{user.RoleBeneficiary})
	v := testutil.CreateVenture(t, env, ben.ID, "Hilos del Sur", "Pasto", 2, 1)
	return fixture{env: env, mentor: mentor, beneficiary: ben, ventureID: v.ID}
}

func TestAssign(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.env.Mentorship.Assign(ctx, mentorship.NewAssignment{MentorID: f.beneficiary.ID, VentureID: f.ventureID})
	assert.ErrorIs(t, err, mentorship.ErrNotMentor)

	a, err := f.env.Mentorship.Assign(ctx, mentorship.NewAssignment{MentorID: f.mentor.ID, VentureID: f.ventureID})
	require.NoError(t, err)
	assert.False(t, a.IsJury)

	_, err = f.env.Mentorship.Assign(ctx, mentorship.NewAssignment{MentorID: f.mentor.ID, VentureID: f.ventureID, IsJury: true})
	assert.ErrorIs(t, err, mentorship.ErrAlreadyAssigned)

	ok, err := f.env.Mentorship.IsJuror(ctx, f.mentor.ID, f.ventureID)
	require.NoError(t, err)
	assert.False(t, ok, "a pure mentor is not a juror")

	require.NoError(t, f.env.Mentorship.Unassign(ctx, a.ID))
	assert.True(t, core.IsNotFound(f.env.Mentorship.Unassign(ctx, a.ID)))

	testutil.AssignJuror(t, f.env, f.mentor.ID, f.ventureID)
	ok, err = f.env.Mentorship.IsJuror(ctx, f.mentor.ID, f.ventureID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBookAndCancel(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	ns := mentorship.NewSession{MentorID: f.mentor.ID, Title: "Modelo de negocio", StartsAt: start, EndsAt: start.Add(time.Hour)}

	_, _, err := f.env.Mentorship.Book(ctx, f.beneficiary.ID, ns)
	assert.ErrorIs(t, err, mentorship.ErrNotAssigned)

	_, err = f.env.Mentorship.Assign(ctx, mentorship.NewAssignment{MentorID: f.mentor.ID, VentureID: f.ventureID})
	require.NoError(t, err)

	s, out, err := f.env.Mentorship.Book(ctx, f.beneficiary.ID, ns)
	require.NoError(t, err)
	assert.False(t, out.Degraded())
	assert.Equal(t, mentorship.SessionBooked, s.State)
	assert.Equal(t, f.ventureID, s.ProfileID)

	sent := f.env.Webhook.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, mentorship.ActionBook, sent[0].Action)
	assert.Equal(t, s.ID, sent[0].Session.ID)

	t.Run("overlap", func(t *testing.T) {
		clash := ns
		clash.StartsAt = start.Add(30 * time.Minute)
		clash.EndsAt = start.Add(90 * time.Minute)
		_, _, err := f.env.Mentorship.Book(ctx, f.beneficiary.ID, clash)
		assert.ErrorIs(t, err, mentorship.ErrSlotTaken)

		back := ns
		back.StartsAt = start.Add(time.Hour)
		back.EndsAt = start.Add(2 * time.Hour)
		_, _, err = f.env.Mentorship.Book(ctx, f.beneficiary.ID, back)
		assert.NoError(t, err, "back-to-back sessions do not overlap")
	})

	t.Run("invalid range", func(t *testing.T) {
		bad := ns
		bad.EndsAt = bad.StartsAt
		_, _, err := f.env.Mentorship.Book(ctx, f.beneficiary.ID, bad)
		assert.Error(t, err)
	})

	t.Run("cancel", func(t *testing.T) {
		stranger := testutil.CreateUser(t, f.env.UserRepo, "Stranger", "stranger@example.com", []string{user.RoleMentor})
		_, _, err := f.env.Mentorship.Cancel(ctx, stranger.ID, s.ID)
		assert.ErrorIs(t, err, mentorship.ErrNotParticipant)

		cancelled, out, err := f.env.Mentorship.Cancel(ctx, f.mentor.ID, s.ID)
		require.NoError(t, err)
		assert.False(t, out.Degraded())
		assert.Equal(t, mentorship.SessionCancelled, cancelled.State)

		sent := f.env.Webhook.Sent()
		assert.Equal(t, mentorship.ActionCancel, sent[len(sent)-1].Action)

		_, _, err = f.env.Mentorship.Cancel(ctx, f.beneficiary.ID, s.ID)
		assert.ErrorIs(t, err, mentorship.ErrSessionCancelled)

		// the freed slot can be booked again
		_, _, err = f.env.Mentorship.Book(ctx, f.beneficiary.ID, ns)
		assert.NoError(t, err)
	})
}

func TestBookWebhookFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.env.Mentorship.Assign(ctx, mentorship.NewAssignment{MentorID: f.mentor.ID, VentureID: f.ventureID})
	require.NoError(t, err)

	hookErr := errors.New("connection refused")
	f.env.Webhook.Err = hookErr
	start := time.Now().UTC().Add(24 * time.Hour)
	s, out, err := f.env.Mentorship.Book(ctx, f.beneficiary.ID, mentorship.NewSession{
		MentorID: f.mentor.ID,
		Title:    "Finanzas",
		StartsAt: start,
		EndsAt:   start.Add(45 * time.Minute),
	})
	require.NoError(t, err, "the booking itself must succeed")
	require.True(t, out.Degraded())
	assert.Equal(t, mentorship.EffectWebhook, out.Failures[0].Effect)
	assert.ErrorIs(t, out.Failures[0].Err, hookErr)

	stored, err := f.env.Mentorship.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, mentorship.SessionBooked, stored.State)

	list, err := f.env.Mentorship.ListSessionsByBeneficiary(ctx, f.beneficiary.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
