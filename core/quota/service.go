package quota

import (
	"context"
	"net/mail"
	"time"

	"github.com/ecodeclub/ekit/slice"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/tier"
	"github.com/incubaapp/incuba/core/user"
	"github.com/incubaapp/incuba/core/venture"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("quota assignment")
	ErrAlreadyApproved = core.NewConflictError("venture already has an approved quota")
	ErrNotPending      = core.NewConflictError("quota assignment is no longer pending")
)

// side effects reported in the approval Outcome
const (
	EffectPromote = "promote owner"
	EffectNotify  = "notify owner"
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		// QueryAssignments returns matches ordered by creation date (oldest first).
		QueryAssignments(ctx context.Context, filter QueryFilter) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
	}

	Ventures interface {
		GetByID(ctx context.Context, id string) (venture.Venture, error)
	}

	Users interface {
		GetByID(ctx context.Context, id string) (user.User, error)
		PromoteToBeneficiary(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		conf     *core.Config
		repo     Repository
		ventures Ventures
		users    Users
		mailSvc  core.EmailService
		validate *validator.Validate
	}
)

func NewService(conf *core.Config, repo Repository, ventures Ventures, users Users, mailSvc core.EmailService, validate *validator.Validate) *Service {
	return &Service{
		conf:     conf,
		repo:     repo,
		ventures: ventures,
		users:    users,
		mailSvc:  mailSvc,
		validate: validate,
	}
}

func (svc *Service) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Assignment{}, err
	}
	if _, err := svc.ventures.GetByID(ctx, na.VentureID); err != nil {
		return Assignment{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateAssignment(ctx, Assignment{
		ID:        uuid.New().String(),
		VentureID: na.VentureID,
		Tier:      na.Tier,
		Cohort:    na.Cohort,
		State:     StatePending,
		Notes:     na.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) Get(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *Service) ListByVenture(ctx context.Context, ventureID string) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, QueryFilter{VentureID: ventureID})
}

// All returns every assignment regardless of state.
func (svc *Service) All(ctx context.Context) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, QueryFilter{})
}

func (svc *Service) Approved(ctx context.Context) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, QueryFilter{State: StateApproved})
}

// ApprovedIndex maps each venture with an approved quota to its tier.
func (svc *Service) ApprovedIndex(ctx context.Context) (map[string]tier.Tier, error) {
	approved, err := svc.Approved(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying approved assignments")
	}
	return slice.ToMapV(approved, func(a Assignment) (string, tier.Tier) {
		return a.VentureID, a.Tier
	}), nil
}

// ApprovedVentureIDs is the set of ventures holding an approved quota.
func (svc *Service) ApprovedVentureIDs(ctx context.Context) (core.StringSet, error) {
	approved, err := svc.Approved(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying approved assignments")
	}
	return core.NewStringSet(slice.Map(approved, func(_ int, a Assignment) string { return a.VentureID })...), nil
}

// Approve approves a pending assignment. A venture holds at most one approved
// assignment. Promoting the owner and emailing them are best-effort and
// reported in the Outcome.
func (svc *Service) Approve(ctx context.Context, approverID, id string) (Assignment, core.Outcome, error) {
	var out core.Outcome

	a, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, out, err
	}
	if a.IsApproved() {
		return Assignment{}, out, ErrAlreadyApproved
	}
	if a.State != StatePending {
		return Assignment{}, out, ErrNotPending
	}
	approved, err := svc.repo.QueryAssignments(ctx, QueryFilter{VentureID: a.VentureID, State: StateApproved})
	if err != nil {
		return Assignment{}, out, errors.Wrap(err, "querying approved assignments")
	}
	if len(approved) > 0 {
		return Assignment{}, out, ErrAlreadyApproved
	}

	v, err := svc.ventures.GetByID(ctx, a.VentureID)
	if err != nil {
		return Assignment{}, out, err
	}

	a.State = StateApproved
	a.ApprovedBy = approverID
	a.UpdatedAt = time.Now().UTC()
	if a, err = svc.repo.UpdateAssignment(ctx, a); err != nil {
		return Assignment{}, out, err
	}

	owner, err := svc.users.PromoteToBeneficiary(ctx, v.OwnerID)
	if err != nil {
		out.Fail(EffectPromote, err)
		if owner, err = svc.users.GetByID(ctx, v.OwnerID); err != nil {
			out.Fail(EffectNotify, err)
			return a, out, nil
		}
	}
	out.Fail(EffectNotify, svc.notifyApproved(owner, v, a))
	return a, out, nil
}

func (svc *Service) notifyApproved(owner user.User, v venture.Venture, a Assignment) error {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: owner.Name, Address: owner.Email}},
		Subject:      "Tu cupo en " + svc.conf.AppName + " fue aprobado",
		TemplateName: "quota_approved",
		TemplateData: ApprovedNotice{Name: owner.Name, Venture: v.Name, Tier: a.Tier, Cohort: a.Cohort},
	}
	if err := msg.Render(svc.conf); err != nil {
		return errors.Wrap(err, "rendering email")
	}
	return svc.mailSvc.SendMessages(msg)
}

func (svc *Service) Reject(ctx context.Context, id string) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if a.State != StatePending {
		return Assignment{}, ErrNotPending
	}
	a.State = StateRejected
	a.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAssignment(ctx, a)
}
