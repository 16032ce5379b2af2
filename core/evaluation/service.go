package evaluation

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/venture"
)

var (
	// errors
	ErrNotFound  = core.NewNotFoundError("evaluation")
	ErrSubmitted = core.NewConflictError("evaluation already submitted")
	ErrJuryFull  = core.NewConflictError("venture already has the maximum number of jury evaluations")
	ErrDuplicate = core.NewConflictError("evaluator already has an evaluation of this type for this venture")
	ErrNotJuror  = core.NewForbiddenError("evaluator is not a juror for this venture")
	ErrNotAuthor = core.NewForbiddenError("only the author may change an evaluation")
)

type (
	Repository interface {
		// CreateEvaluation refuses a jury evaluation once the venture holds
		// juryCap of them. The count and the insert are atomic.
		CreateEvaluation(ctx context.Context, e Evaluation, juryCap int) (Evaluation, error)
		GetEvaluationByID(ctx context.Context, id string) (Evaluation, error)
		// QueryEvaluations returns matches ordered by creation date (oldest first).
		QueryEvaluations(ctx context.Context, filter QueryFilter) ([]Evaluation, error)
		UpdateEvaluation(ctx context.Context, e Evaluation) (Evaluation, error)
	}

	// Ventures provides the venture data the aggregator and the gate read.
	Ventures interface {
		GetByID(ctx context.Context, id string) (venture.Venture, error)
		Team(ctx context.Context, ventureID string) (venture.Team, error)
	}

	// JuryChecker reports whether a mentor sits on the jury of a venture.
	JuryChecker interface {
		IsJuror(ctx context.Context, mentorID, ventureID string) (bool, error)
	}

	Service struct {
		repo     Repository
		ventures Ventures
		jury     JuryChecker
		validate *validator.Validate
		homeCity string
		maxJury  int
	}
)

func NewService(repo Repository, ventures Ventures, jury JuryChecker, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		ventures: ventures,
		jury:     jury,
		validate: validate,
		homeCity: conf.Program.HomeCity,
		maxJury:  conf.Program.MaxJuryEvaluations,
	}
}

// assess computes the breakdown and eligibility from the current venture data.
func (svc *Service) assess(ctx context.Context, ventureID string, s Scores) (Breakdown, Eligibility, error) {
	v, err := svc.ventures.GetByID(ctx, ventureID)
	if err != nil {
		return Breakdown{}, Eligibility{}, err
	}
	b, err := Aggregate(s, v.Municipality, svc.homeCity)
	if err != nil {
		return Breakdown{}, Eligibility{}, err
	}
	t, err := svc.ventures.Team(ctx, ventureID)
	if err != nil {
		return Breakdown{}, Eligibility{}, errors.Wrap(err, "getting team")
	}
	return b, Gate(v, t), nil
}

func (svc *Service) CreateDraft(ctx context.Context, evaluatorID string, ne NewEvaluation) (Evaluation, error) {
	if err := ne.Validate(svc.validate); err != nil {
		return Evaluation{}, err
	}

	if ne.Type == TypeJury {
		ok, err := svc.jury.IsJuror(ctx, evaluatorID, ne.VentureID)
		if err != nil {
			return Evaluation{}, errors.Wrap(err, "checking jury assignment")
		}
		if !ok {
			return Evaluation{}, ErrNotJuror
		}
	}

	own, err := svc.repo.QueryEvaluations(ctx, QueryFilter{VentureID: ne.VentureID, EvaluatorID: evaluatorID, Type: ne.Type})
	if err != nil {
		return Evaluation{}, errors.Wrap(err, "querying evaluations")
	}
	if len(own) > 0 {
		return Evaluation{}, ErrDuplicate
	}

	b, elig, err := svc.assess(ctx, ne.VentureID, ne.Scores)
	if err != nil {
		return Evaluation{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateEvaluation(ctx, Evaluation{
		ID:          uuid.New().String(),
		VentureID:   ne.VentureID,
		EvaluatorID: evaluatorID,
		Type:        ne.Type,
		Scores:      ne.Scores,
		Breakdown:   b,
		Eligibility: elig,
		Rationale:   ne.Rationale,
		State:       StateDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, svc.maxJury)
}

// editable loads an evaluation its author may still change.
func (svc *Service) editable(ctx context.Context, evaluatorID, id string) (Evaluation, error) {
	e, err := svc.repo.GetEvaluationByID(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	if e.EvaluatorID != evaluatorID {
		return Evaluation{}, ErrNotAuthor
	}
	if e.IsSubmitted() {
		return Evaluation{}, ErrSubmitted
	}
	return e, nil
}

func (svc *Service) UpdateDraft(ctx context.Context, evaluatorID, id string, ue UpdateEvaluation) (Evaluation, error) {
	if err := ue.Validate(svc.validate); err != nil {
		return Evaluation{}, err
	}
	e, err := svc.editable(ctx, evaluatorID, id)
	if err != nil {
		return Evaluation{}, err
	}

	b, elig, err := svc.assess(ctx, e.VentureID, ue.Scores)
	if err != nil {
		return Evaluation{}, err
	}
	e.Scores = ue.Scores
	e.Rationale = ue.Rationale
	e.Breakdown = b
	e.Eligibility = elig
	e.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEvaluation(ctx, e)
}

// Submit moves a draft to enviada. Totals and eligibility are recomputed so
// the persisted values match the venture at submission time.
func (svc *Service) Submit(ctx context.Context, evaluatorID, id string) (Evaluation, error) {
	e, err := svc.editable(ctx, evaluatorID, id)
	if err != nil {
		return Evaluation{}, err
	}

	b, elig, err := svc.assess(ctx, e.VentureID, e.Scores)
	if err != nil {
		return Evaluation{}, err
	}
	now := time.Now().UTC()
	e.Breakdown = b
	e.Eligibility = elig
	e.State = StateSubmitted
	e.SubmittedAt = &now
	e.UpdatedAt = now
	return svc.repo.UpdateEvaluation(ctx, e)
}

// SetVisibility controls whether the venture owner may see the evaluation.
func (svc *Service) SetVisibility(ctx context.Context, id string, visible bool) (Evaluation, error) {
	e, err := svc.repo.GetEvaluationByID(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	e.Visible = visible
	e.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEvaluation(ctx, e)
}

func (svc *Service) Get(ctx context.Context, id string) (Evaluation, error) {
	return svc.repo.GetEvaluationByID(ctx, id)
}

func (svc *Service) ListByVenture(ctx context.Context, ventureID string, visibleOnly bool) ([]Evaluation, error) {
	return svc.repo.QueryEvaluations(ctx, QueryFilter{VentureID: ventureID, VisibleOnly: visibleOnly})
}

func (svc *Service) ListByEvaluator(ctx context.Context, evaluatorID string) ([]Evaluation, error) {
	return svc.repo.QueryEvaluations(ctx, QueryFilter{EvaluatorID: evaluatorID})
}

func (svc *Service) List(ctx context.Context, filter QueryFilter) ([]Evaluation, error) {
	return svc.repo.QueryEvaluations(ctx, filter)
}

// Summary is the average of the submitted jury totals of a venture.
func (svc *Service) Summary(ctx context.Context, ventureID string, visibleOnly bool) (Summary, error) {
	evals, err := svc.repo.QueryEvaluations(ctx, QueryFilter{
		VentureID:   ventureID,
		Type:        TypeJury,
		State:       StateSubmitted,
		VisibleOnly: visibleOnly,
	})
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying evaluations")
	}
	return Summarize(evals), nil
}

// ScoreIndex maps each venture to the totals of its submitted evaluations of
// any type. Classification reads the maximum of each entry.
func (svc *Service) ScoreIndex(ctx context.Context) (map[string][]float64, error) {
	evals, err := svc.repo.QueryEvaluations(ctx, QueryFilter{State: StateSubmitted})
	if err != nil {
		return nil, errors.Wrap(err, "querying evaluations")
	}
	return IndexScores(evals), nil
}

// IndexScores groups submitted totals by venture.
func IndexScores(evals []Evaluation) map[string][]float64 {
	idx := make(map[string][]float64)
	for _, e := range evals {
		if !e.IsSubmitted() {
			continue
		}
		idx[e.VentureID] = append(idx[e.VentureID], e.Breakdown.Total)
	}
	return idx
}
