package mentorship

import (
	"context"
	"time"

	"github.com/ecodeclub/ekit/slice"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/user"
	"github.com/incubaapp/incuba/core/venture"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("mentor assignment")
	ErrSessionNotFound  = core.NewNotFoundError("session")
	ErrAlreadyAssigned  = core.NewConflictError("mentor already assigned to this venture")
	ErrNotMentor        = core.NewValidationError(nil, core.FieldError{Field: "mentor_id", Error: "user is not a mentor"})
	ErrNotAssigned      = core.NewForbiddenError("mentor is not assigned to this venture")
	ErrNotParticipant   = core.NewForbiddenError("only the session participants may change it")
	ErrSlotTaken        = core.NewConflictError("mentor already has a session at that time")
	ErrSessionCancelled = core.NewConflictError("session already cancelled")
)

// EffectWebhook names the automation webhook in Outcomes.
const EffectWebhook = "booking webhook"

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		// QueryAssignments filters on the non-empty arguments.
		QueryAssignments(ctx context.Context, mentorID, ventureID string) ([]Assignment, error)
		DeleteAssignment(ctx context.Context, id string) error

		CreateSession(ctx context.Context, s Session) (Session, error)
		GetSessionByID(ctx context.Context, id string) (Session, error)
		// QuerySessions returns matches ordered by start time.
		QuerySessions(ctx context.Context, filter SessionFilter) ([]Session, error)
		UpdateSession(ctx context.Context, s Session) (Session, error)
	}

	Users interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Ventures interface {
		GetByID(ctx context.Context, id string) (venture.Venture, error)
		GetByOwner(ctx context.Context, ownerID string) (venture.Venture, error)
	}

	// Notifier delivers booking events to the external automation endpoint.
	Notifier interface {
		NotifyBooking(ctx context.Context, evt BookingEvent) error
	}

	Service struct {
		repo     Repository
		users    Users
		ventures Ventures
		notifier Notifier
		validate *validator.Validate
	}
)

func NewService(repo Repository, users Users, ventures Ventures, notifier Notifier, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		ventures: ventures,
		notifier: notifier,
		validate: validate,
	}
}

func (svc *Service) Assign(ctx context.Context, na NewAssignment) (Assignment, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Assignment{}, err
	}
	mentor, err := svc.users.GetByID(ctx, na.MentorID)
	if err != nil {
		return Assignment{}, err
	}
	if !mentor.IsMentor() {
		return Assignment{}, ErrNotMentor
	}
	if _, err := svc.ventures.GetByID(ctx, na.VentureID); err != nil {
		return Assignment{}, err
	}

	existing, err := svc.repo.QueryAssignments(ctx, na.MentorID, na.VentureID)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "querying assignments")
	}
	if len(existing) > 0 {
		return Assignment{}, ErrAlreadyAssigned
	}

	return svc.repo.CreateAssignment(ctx, Assignment{
		ID:        uuid.New().String(),
		MentorID:  na.MentorID,
		VentureID: na.VentureID,
		IsJury:    na.IsJury,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) Unassign(ctx context.Context, id string) error {
	if _, err := svc.repo.GetAssignmentByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteAssignment(ctx, id)
}

func (svc *Service) ListByMentor(ctx context.Context, mentorID string) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, mentorID, "")
}

func (svc *Service) ListByVenture(ctx context.Context, ventureID string) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, "", ventureID)
}

func (svc *Service) IsJuror(ctx context.Context, mentorID, ventureID string) (bool, error) {
	as, err := svc.repo.QueryAssignments(ctx, mentorID, ventureID)
	if err != nil {
		return false, err
	}
	_, ok := slice.Find(as, func(a Assignment) bool { return a.IsJury })
	return ok, nil
}

// Book reserves a session between a beneficiary and a mentor assigned to the
// beneficiary's venture. The webhook call is best-effort.
func (svc *Service) Book(ctx context.Context, beneficiaryID string, ns NewSession) (Session, core.Outcome, error) {
	var out core.Outcome

	if err := ns.Validate(svc.validate); err != nil {
		return Session{}, out, err
	}
	v, err := svc.ventures.GetByOwner(ctx, beneficiaryID)
	if err != nil {
		return Session{}, out, err
	}
	as, err := svc.repo.QueryAssignments(ctx, ns.MentorID, v.ID)
	if err != nil {
		return Session{}, out, errors.Wrap(err, "querying assignments")
	}
	if len(as) == 0 {
		return Session{}, out, ErrNotAssigned
	}

	now := time.Now().UTC()
	s := Session{
		ID:            uuid.New().String(),
		MentorID:      ns.MentorID,
		BeneficiaryID: beneficiaryID,
		ProfileID:     v.ID,
		Title:         ns.Title,
		StartsAt:      ns.StartsAt,
		EndsAt:        ns.EndsAt,
		State:         SessionBooked,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	booked, err := svc.repo.QuerySessions(ctx, SessionFilter{MentorID: ns.MentorID, State: SessionBooked})
	if err != nil {
		return Session{}, out, errors.Wrap(err, "querying sessions")
	}
	if _, clash := slice.Find(booked, s.overlaps); clash {
		return Session{}, out, ErrSlotTaken
	}

	if s, err = svc.repo.CreateSession(ctx, s); err != nil {
		return Session{}, out, err
	}
	out.Fail(EffectWebhook, svc.notifier.NotifyBooking(ctx, BookingEvent{Action: ActionBook, Session: s}))
	return s, out, nil
}

// Cancel is allowed to either participant.
func (svc *Service) Cancel(ctx context.Context, actorID, id string) (Session, core.Outcome, error) {
	var out core.Outcome

	s, err := svc.repo.GetSessionByID(ctx, id)
	if err != nil {
		return Session{}, out, err
	}
	if actorID != s.BeneficiaryID && actorID != s.MentorID {
		return Session{}, out, ErrNotParticipant
	}
	if s.State == SessionCancelled {
		return Session{}, out, ErrSessionCancelled
	}

	s.State = SessionCancelled
	s.UpdatedAt = time.Now().UTC()
	if s, err = svc.repo.UpdateSession(ctx, s); err != nil {
		return Session{}, out, err
	}
	out.Fail(EffectWebhook, svc.notifier.NotifyBooking(ctx, BookingEvent{Action: ActionCancel, Session: s}))
	return s, out, nil
}

func (svc *Service) GetSession(ctx context.Context, id string) (Session, error) {
	return svc.repo.GetSessionByID(ctx, id)
}

func (svc *Service) ListSessionsByMentor(ctx context.Context, mentorID string) ([]Session, error) {
	return svc.repo.QuerySessions(ctx, SessionFilter{MentorID: mentorID})
}

func (svc *Service) ListSessionsByBeneficiary(ctx context.Context, beneficiaryID string) ([]Session, error) {
	return svc.repo.QuerySessions(ctx, SessionFilter{BeneficiaryID: beneficiaryID})
}
