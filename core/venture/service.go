package venture

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("venture")
	ErrOwnerHasVenture = core.NewConflictError("user already owns a venture")
)

type (
	Repository interface {
		CreateVenture(ctx context.Context, v Venture) (Venture, error)
		GetVentureByID(ctx context.Context, id string) (Venture, error)
		GetVentureByOwner(ctx context.Context, ownerID string) (Venture, error)
		// QueryVentures returns ventures ordered by creation date (oldest first).
		QueryVentures(ctx context.Context, filter *QueryFilter) ([]Venture, error)
		UpdateVenture(ctx context.Context, v Venture) (Venture, error)

		GetTeam(ctx context.Context, ventureID string) (Team, error)
		UpsertTeam(ctx context.Context, t Team) (Team, error)
		// QueryTeams returns every stored team keyed by venture ID.
		QueryTeams(ctx context.Context) (map[string]Team, error)
		GetFinancing(ctx context.Context, ventureID string) (Financing, error)
		UpsertFinancing(ctx context.Context, f Financing) (Financing, error)
		GetProjections(ctx context.Context, ventureID string) (Projections, error)
		UpsertProjections(ctx context.Context, p Projections) (Projections, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Create(ctx context.Context, ownerID string, nv NewVenture) (Venture, error) {
	if _, err := svc.repo.GetVentureByOwner(ctx, ownerID); err == nil {
		return Venture{}, ErrOwnerHasVenture
	} else if err != ErrNotFound {
		return Venture{}, errors.Wrap(err, "checking owner venture")
	}

	now := time.Now().UTC()
	return svc.repo.CreateVenture(ctx, Venture{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		Name:            nv.Name,
		Description:     nv.Description,
		Category:        nv.Category,
		Stage:           nv.Stage,
		MarketReach:     nv.MarketReach,
		Formalized:      nv.Formalized,
		InnovationLevel: nv.InnovationLevel,
		Department:      nv.Department,
		Municipality:    nv.Municipality,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Venture, error) {
	return svc.repo.GetVentureByID(ctx, id)
}

func (svc *Service) GetByOwner(ctx context.Context, ownerID string) (Venture, error) {
	return svc.repo.GetVentureByOwner(ctx, ownerID)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Venture, error) {
	return svc.repo.QueryVentures(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, uv UpdateVenture) (Venture, error) {
	v, err := svc.repo.GetVentureByID(ctx, id)
	if err != nil {
		return Venture{}, err
	}
	v = uv.apply(v)
	v.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateVenture(ctx, v)
}

func (svc *Service) SaveTeam(ctx context.Context, ventureID string, t Team) (Team, error) {
	if err := svc.validate.Struct(t); err != nil {
		return Team{}, err
	}
	t.VentureID = ventureID
	t.UpdatedAt = time.Now().UTC()
	return svc.repo.UpsertTeam(ctx, t)
}

func (svc *Service) SaveFinancing(ctx context.Context, ventureID string, f Financing) (Financing, error) {
	f.VentureID = ventureID
	f.UpdatedAt = time.Now().UTC()
	return svc.repo.UpsertFinancing(ctx, f)
}

func (svc *Service) SaveProjections(ctx context.Context, ventureID string, p Projections) (Projections, error) {
	p.VentureID = ventureID
	p.UpdatedAt = time.Now().UTC()
	return svc.repo.UpsertProjections(ctx, p)
}

// Team returns the venture team; a venture without a stored team gets an empty one.
func (svc *Service) Team(ctx context.Context, ventureID string) (Team, error) {
	t, err := svc.repo.GetTeam(ctx, ventureID)
	if err == ErrNotFound {
		return Team{VentureID: ventureID}, nil
	}
	return t, err
}

func (svc *Service) Teams(ctx context.Context) (map[string]Team, error) {
	return svc.repo.QueryTeams(ctx)
}

// Profile gathers the venture and its satellites.
func (svc *Service) Profile(ctx context.Context, id string) (Profile, error) {
	v, err := svc.repo.GetVentureByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	p := Profile{Venture: v}

	if t, err := svc.repo.GetTeam(ctx, id); err == nil {
		p.Team = &t
	} else if err != ErrNotFound {
		return Profile{}, errors.Wrap(err, "getting team")
	}
	if f, err := svc.repo.GetFinancing(ctx, id); err == nil {
		p.Financing = &f
	} else if err != ErrNotFound {
		return Profile{}, errors.Wrap(err, "getting financing")
	}
	if pr, err := svc.repo.GetProjections(ctx, id); err == nil {
		p.Projections = &pr
	} else if err != ErrNotFound {
		return Profile{}, errors.Wrap(err, "getting projections")
	}
	return p, nil
}
