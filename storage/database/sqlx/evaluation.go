package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/evaluation"
	"github.com/incubaapp/incuba/core/venture"
)

const evaluationColumns = `id, venture_id, evaluator_id, type,
	impact, team, innovation, sales, financing_projection, regional_referral, rubric_total, derived_total, total,
	elig_location, elig_min_team, elig_dedication, elig_interest,
	rationale_impact, rationale_team, rationale_innovation, rationale_sales, rationale_financing, rationale_general,
	state, visible, created_at, updated_at, submitted_at`

type evaluationRow struct {
	ID                  string      `db:"id"`
	VentureID           string      `db:"venture_id"`
	EvaluatorID         string      `db:"evaluator_id"`
	Type                string      `db:"type"`
	Impact              float64     `db:"impact"`
	Team                float64     `db:"team"`
	Innovation          float64     `db:"innovation"`
	Sales               float64     `db:"sales"`
	FinancingProjection float64     `db:"financing_projection"`
	RegionalReferral    float64     `db:"regional_referral"`
	RubricTotal         float64     `db:"rubric_total"`
	DerivedTotal        float64     `db:"derived_total"`
	Total               float64     `db:"total"`
	EligLocation        bool        `db:"elig_location"`
	EligMinTeam         bool        `db:"elig_min_team"`
	EligDedication      bool        `db:"elig_dedication"`
	EligInterest        bool        `db:"elig_interest"`
	RationaleImpact     null.String `db:"rationale_impact"`
	RationaleTeam       null.String `db:"rationale_team"`
	RationaleInnovation null.String `db:"rationale_innovation"`
	RationaleSales      null.String `db:"rationale_sales"`
	RationaleFinancing  null.String `db:"rationale_financing"`
	RationaleGeneral    null.String `db:"rationale_general"`
	State               string      `db:"state"`
	Visible             bool        `db:"visible"`
	CreatedAt           time.Time   `db:"created_at"`
	UpdatedAt           time.Time   `db:"updated_at"`
	SubmittedAt         null.Time   `db:"submitted_at"`
}

func toEvaluationRow(e evaluation.Evaluation) evaluationRow {
	return evaluationRow{
		ID:                  e.ID,
		VentureID:           e.VentureID,
		EvaluatorID:         e.EvaluatorID,
		Type:                string(e.Type),
		Impact:              e.Breakdown.Impact,
		Team:                e.Breakdown.Team,
		Innovation:          e.Breakdown.Innovation,
		Sales:               e.Breakdown.Sales,
		FinancingProjection: e.Breakdown.FinancingProjection,
		RegionalReferral:    e.Breakdown.RegionalReferral,
		RubricTotal:         e.Breakdown.Rubric,
		DerivedTotal:        e.Breakdown.Derived,
		Total:               e.Breakdown.Total,
		EligLocation:        e.Eligibility.Location,
		EligMinTeam:         e.Eligibility.MinTeam,
		EligDedication:      e.Eligibility.Dedication,
		EligInterest:        e.Eligibility.Interest,
		RationaleImpact:     nullString(e.Rationale.Impact),
		RationaleTeam:       nullString(e.Rationale.Team),
		RationaleInnovation: nullString(e.Rationale.Innovation),
		RationaleSales:      nullString(e.Rationale.Sales),
		RationaleFinancing:  nullString(e.Rationale.FinancingProjection),
		RationaleGeneral:    nullString(e.Rationale.General),
		State:               string(e.State),
		Visible:             e.Visible,
		CreatedAt:           e.CreatedAt.UTC(),
		UpdatedAt:           e.UpdatedAt.UTC(),
		SubmittedAt:         null.TimeFromPtr(e.SubmittedAt),
	}
}

func (r evaluationRow) evaluation() evaluation.Evaluation {
	return evaluation.Evaluation{
		ID:          r.ID,
		VentureID:   r.VentureID,
		EvaluatorID: r.EvaluatorID,
		Type:        evaluation.Type(r.Type),
		Scores: evaluation.Scores{
			Impact:              r.Impact,
			Team:                r.Team,
			Innovation:          r.Innovation,
			Sales:               r.Sales,
			FinancingProjection: r.FinancingProjection,
		},
		Breakdown: evaluation.Breakdown{
			Impact:              r.Impact,
			Team:                r.Team,
			Innovation:          r.Innovation,
			Sales:               r.Sales,
			FinancingProjection: r.FinancingProjection,
			RegionalReferral:    r.RegionalReferral,
			Rubric:              r.RubricTotal,
			Derived:             r.DerivedTotal,
			Total:               r.Total,
		},
		Eligibility: evaluation.Eligibility{
			Location:   r.EligLocation,
			MinTeam:    r.EligMinTeam,
			Dedication: r.EligDedication,
			Interest:   r.EligInterest,
		},
		Rationale: evaluation.Rationale{
			Impact:              r.RationaleImpact.String,
			Team:                r.RationaleTeam.String,
			Innovation:          r.RationaleInnovation.String,
			Sales:               r.RationaleSales.String,
			FinancingProjection: r.RationaleFinancing.String,
			General:             r.RationaleGeneral.String,
		},
		State:       evaluation.State(r.State),
		Visible:     r.Visible,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		SubmittedAt: r.SubmittedAt.Ptr(),
	}
}

type evaluationRepository struct {
	exec core.DBExecutor
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(exec core.DBExecutor) evaluation.Repository {
	return &evaluationRepository{exec: exec}
}

// CreateEvaluation locks the venture row while it counts the jury panel, so
// concurrent jurors cannot push it past juryCap.
func (repo *evaluationRepository) CreateEvaluation(ctx context.Context, e evaluation.Evaluation, juryCap int) (evaluation.Evaluation, error) {
	if e.Type != evaluation.TypeJury {
		return e, insertEvaluation(ctx, repo.exec, e)
	}
	err := inTx(ctx, repo.exec, func(tx core.DBExecutor) error {
		var id string
		if err := tx.GetContext(ctx, &id, "SELECT id FROM ventures WHERE id = $1 FOR UPDATE", e.VentureID); err != nil {
			return trapNoRowsErr(err, venture.ErrNotFound, "locking venture")
		}
		var panel int
		q := "SELECT count(*) FROM evaluations WHERE venture_id = $1 AND type = $2"
		if err := tx.GetContext(ctx, &panel, q, e.VentureID, string(evaluation.TypeJury)); err != nil {
			return errors.Wrap(err, "counting jury evaluations")
		}
		if panel >= juryCap {
			return evaluation.ErrJuryFull
		}
		return insertEvaluation(ctx, tx, e)
	})
	if err != nil {
		return evaluation.Evaluation{}, err
	}
	return e, nil
}

func insertEvaluation(ctx context.Context, exec core.DBExecutor, e evaluation.Evaluation) error {
	_, err := exec.NamedExecContext(ctx, `
		INSERT INTO evaluations (`+evaluationColumns+`)
		VALUES (:id, :venture_id, :evaluator_id, :type,
			:impact, :team, :innovation, :sales, :financing_projection, :regional_referral, :rubric_total, :derived_total, :total,
			:elig_location, :elig_min_team, :elig_dedication, :elig_interest,
			:rationale_impact, :rationale_team, :rationale_innovation, :rationale_sales, :rationale_financing, :rationale_general,
			:state, :visible, :created_at, :updated_at, :submitted_at)`,
		toEvaluationRow(e),
	)
	if isUniqueViolation(err) {
		return evaluation.ErrDuplicate
	}
	return errors.Wrap(err, "inserting evaluation")
}

func (repo *evaluationRepository) GetEvaluationByID(ctx context.Context, id string) (evaluation.Evaluation, error) {
	var row evaluationRow
	if err := repo.exec.GetContext(ctx, &row, "SELECT "+evaluationColumns+" FROM evaluations WHERE id = $1", id); err != nil {
		return evaluation.Evaluation{}, trapNoRowsErr(err, evaluation.ErrNotFound, "getting evaluation")
	}
	return row.evaluation(), nil
}

func (repo *evaluationRepository) QueryEvaluations(ctx context.Context, filter evaluation.QueryFilter) ([]evaluation.Evaluation, error) {
	var w where
	if filter.VentureID != "" {
		w.add("venture_id = ?", filter.VentureID)
	}
	if filter.EvaluatorID != "" {
		w.add("evaluator_id = ?", filter.EvaluatorID)
	}
	if filter.Type != "" {
		w.add("type = ?", string(filter.Type))
	}
	if filter.State != "" {
		w.add("state = ?", string(filter.State))
	}
	if filter.VisibleOnly {
		w.add("visible = ?", true)
	}

	var rows []evaluationRow
	q := "SELECT " + evaluationColumns + " FROM evaluations" + w.String() + " ORDER BY created_at, id"
	if err := repo.exec.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying evaluations")
	}
	evals := make([]evaluation.Evaluation, 0, len(rows))
	for _, r := range rows {
		evals = append(evals, r.evaluation())
	}
	return evals, nil
}

func (repo *evaluationRepository) UpdateEvaluation(ctx context.Context, e evaluation.Evaluation) (evaluation.Evaluation, error) {
	res, err := repo.exec.NamedExecContext(ctx, `
		UPDATE evaluations SET
			impact = :impact, team = :team, innovation = :innovation, sales = :sales,
			financing_projection = :financing_projection, regional_referral = :regional_referral,
			rubric_total = :rubric_total, derived_total = :derived_total, total = :total,
			elig_location = :elig_location, elig_min_team = :elig_min_team,
			elig_dedication = :elig_dedication, elig_interest = :elig_interest,
			rationale_impact = :rationale_impact, rationale_team = :rationale_team,
			rationale_innovation = :rationale_innovation, rationale_sales = :rationale_sales,
			rationale_financing = :rationale_financing, rationale_general = :rationale_general,
			state = :state, visible = :visible, updated_at = :updated_at, submitted_at = :submitted_at
		WHERE id = :id`,
		toEvaluationRow(e),
	)
	if err != nil {
		return evaluation.Evaluation{}, errors.Wrap(err, "updating evaluation")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return evaluation.Evaluation{}, evaluation.ErrNotFound
	}
	return e, nil
}
