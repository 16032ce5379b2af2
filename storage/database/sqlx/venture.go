package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/venture"
)

const ventureColumns = `id, owner_id, name, description, category, stage, market_reach, formalized,
	innovation_level, department, municipality, created_at, updated_at`

type ventureRow struct {
	ID              string      `db:"id"`
	OwnerID         string      `db:"owner_id"`
	Name            string      `db:"name"`
	Description     null.String `db:"description"`
	Category        string      `db:"category"`
	Stage           string      `db:"stage"`
	MarketReach     null.String `db:"market_reach"`
	Formalized      bool        `db:"formalized"`
	InnovationLevel null.String `db:"innovation_level"`
	Department      null.String `db:"department"`
	Municipality    null.String `db:"municipality"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

func toVentureRow(v venture.Venture) ventureRow {
	return ventureRow{
		ID:              v.ID,
		OwnerID:         v.OwnerID,
		Name:            v.Name,
		Description:     nullString(v.Description),
		Category:        v.Category,
		Stage:           v.Stage,
		MarketReach:     nullString(v.MarketReach),
		Formalized:      v.Formalized,
		InnovationLevel: nullString(v.InnovationLevel),
		Department:      nullString(v.Department),
		Municipality:    nullString(v.Municipality),
		CreatedAt:       v.CreatedAt.UTC(),
		UpdatedAt:       v.UpdatedAt.UTC(),
	}
}

func (r ventureRow) venture() venture.Venture {
	return venture.Venture{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		Name:            r.Name,
		Description:     r.Description.String,
		Category:        r.Category,
		Stage:           r.Stage,
		MarketReach:     r.MarketReach.String,
		Formalized:      r.Formalized,
		InnovationLevel: r.InnovationLevel.String,
		Department:      r.Department.String,
		Municipality:    r.Municipality.String,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type financingRow struct {
	VentureID       string      `db:"venture_id"`
	HasFinancing    bool        `db:"has_financing"`
	Source          null.String `db:"source"`
	AmountRange     null.String `db:"amount_range"`
	InvestmentNeeds null.String `db:"investment_needs"`
	Notes           null.String `db:"notes"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

type projectionsRow struct {
	VentureID     string      `db:"venture_id"`
	SalesGoal     null.String `db:"sales_goal"`
	NewMarkets    null.String `db:"new_markets"`
	JobsExpected  null.String `db:"jobs_expected"`
	ThreeYearPlan null.String `db:"three_year_plan"`
	SupportNeeded null.String `db:"support_needed"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

type ventureRepository struct {
	exec core.DBExecutor
}

var _ venture.Repository = (*ventureRepository)(nil) // interface compliance check

func NewVentureRepository(exec core.DBExecutor) venture.Repository {
	return &ventureRepository{exec: exec}
}

func (repo *ventureRepository) CreateVenture(ctx context.Context, v venture.Venture) (venture.Venture, error) {
	_, err := repo.exec.NamedExecContext(ctx, `
		INSERT INTO ventures (`+ventureColumns+`)
		VALUES (:id, :owner_id, :name, :description, :category, :stage, :market_reach, :formalized,
			:innovation_level, :department, :municipality, :created_at, :updated_at)`,
		toVentureRow(v),
	)
	if isUniqueViolation(err) {
		return venture.Venture{}, venture.ErrOwnerHasVenture
	}
	if err != nil {
		return venture.Venture{}, errors.Wrap(err, "inserting venture")
	}
	return v, nil
}

func (repo *ventureRepository) get(ctx context.Context, cond string, arg interface{}) (venture.Venture, error) {
	var row ventureRow
	if err := repo.exec.GetContext(ctx, &row, "SELECT "+ventureColumns+" FROM ventures WHERE "+cond, arg); err != nil {
		return venture.Venture{}, trapNoRowsErr(err, venture.ErrNotFound, "getting venture")
	}
	return row.venture(), nil
}

func (repo *ventureRepository) GetVentureByID(ctx context.Context, id string) (venture.Venture, error) {
	return repo.get(ctx, "id = $1", id)
}

func (repo *ventureRepository) GetVentureByOwner(ctx context.Context, ownerID string) (venture.Venture, error) {
	return repo.get(ctx, "owner_id = $1", ownerID)
}

func (repo *ventureRepository) QueryVentures(ctx context.Context, filter *venture.QueryFilter) ([]venture.Venture, error) {
	var w where
	if filter != nil {
		if filter.Search != "" {
			w.add("(name ILIKE ? OR description ILIKE ?)", "%"+filter.Search+"%")
		}
		if filter.Category != "" {
			w.add("LOWER(category) = LOWER(?)", filter.Category)
		}
		if filter.Stage != "" {
			w.add("LOWER(stage) = LOWER(?)", filter.Stage)
		}
	}

	var rows []ventureRow
	q := "SELECT " + ventureColumns + " FROM ventures" + w.String() + " ORDER BY created_at, id"
	if err := repo.exec.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying ventures")
	}
	vs := make([]venture.Venture, 0, len(rows))
	for _, r := range rows {
		vs = append(vs, r.venture())
	}
	return vs, nil
}

func (repo *ventureRepository) UpdateVenture(ctx context.Context, v venture.Venture) (venture.Venture, error) {
	res, err := repo.exec.NamedExecContext(ctx, `
		UPDATE ventures SET name = :name, description = :description, category = :category, stage = :stage,
			market_reach = :market_reach, formalized = :formalized, innovation_level = :innovation_level,
			department = :department, municipality = :municipality, updated_at = :updated_at
		WHERE id = :id`,
		toVentureRow(v),
	)
	if err != nil {
		return venture.Venture{}, errors.Wrap(err, "updating venture")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return venture.Venture{}, venture.ErrNotFound
	}
	return v, nil
}

const teamColumns = "venture_id, total, full_time, founders, collaborators, updated_at"

func (repo *ventureRepository) GetTeam(ctx context.Context, ventureID string) (venture.Team, error) {
	var t venture.Team
	if err := repo.exec.GetContext(ctx, &t, "SELECT "+teamColumns+" FROM teams WHERE venture_id = $1", ventureID); err != nil {
		return venture.Team{}, trapNoRowsErr(err, venture.ErrNotFound, "getting team")
	}
	return t, nil
}

func (repo *ventureRepository) UpsertTeam(ctx context.Context, t venture.Team) (venture.Team, error) {
	_, err := repo.exec.NamedExecContext(ctx, `
		INSERT INTO teams (`+teamColumns+`)
		VALUES (:venture_id, :total, :full_time, :founders, :collaborators, :updated_at)
		ON CONFLICT (venture_id) DO UPDATE SET total = EXCLUDED.total, full_time = EXCLUDED.full_time,
			founders = EXCLUDED.founders, collaborators = EXCLUDED.collaborators, updated_at = EXCLUDED.updated_at`,
		t,
	)
	return t, errors.Wrap(err, "upserting team")
}

func (repo *ventureRepository) QueryTeams(ctx context.Context) (map[string]venture.Team, error) {
	var teams []venture.Team
	if err := repo.exec.SelectContext(ctx, &teams, "SELECT "+teamColumns+" FROM teams"); err != nil {
		return nil, errors.Wrap(err, "querying teams")
	}
	idx := make(map[string]venture.Team, len(teams))
	for _, t := range teams {
		idx[t.VentureID] = t
	}
	return idx, nil
}

func (repo *ventureRepository) GetFinancing(ctx context.Context, ventureID string) (venture.Financing, error) {
	var r financingRow
	err := repo.exec.GetContext(ctx, &r, `
		SELECT venture_id, has_financing, source, amount_range, investment_needs, notes, updated_at
		FROM financings WHERE venture_id = $1`, ventureID)
	if err != nil {
		return venture.Financing{}, trapNoRowsErr(err, venture.ErrNotFound, "getting financing")
	}
	return venture.Financing{
		VentureID:       r.VentureID,
		HasFinancing:    r.HasFinancing,
		Source:          r.Source.String,
		AmountRange:     r.AmountRange.String,
		InvestmentNeeds: r.InvestmentNeeds.String,
		Notes:           r.Notes.String,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

func (repo *ventureRepository) UpsertFinancing(ctx context.Context, f venture.Financing) (venture.Financing, error) {
	_, err := repo.exec.NamedExecContext(ctx, `
		INSERT INTO financings (venture_id, has_financing, source, amount_range, investment_needs, notes, updated_at)
		VALUES (:venture_id, :has_financing, :source, :amount_range, :investment_needs, :notes, :updated_at)
		ON CONFLICT (venture_id) DO UPDATE SET has_financing = EXCLUDED.has_financing, source = EXCLUDED.source,
			amount_range = EXCLUDED.amount_range, investment_needs = EXCLUDED.investment_needs,
			notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at`,
		financingRow{
			VentureID:       f.VentureID,
			HasFinancing:    f.HasFinancing,
			Source:          nullString(f.Source),
			AmountRange:     nullString(f.AmountRange),
			InvestmentNeeds: nullString(f.InvestmentNeeds),
			Notes:           nullString(f.Notes),
			UpdatedAt:       f.UpdatedAt.UTC(),
		},
	)
	return f, errors.Wrap(err, "upserting financing")
}

func (repo *ventureRepository) GetProjections(ctx context.Context, ventureID string) (venture.Projections, error) {
	var r projectionsRow
	err := repo.exec.GetContext(ctx, &r, `
		SELECT venture_id, sales_goal, new_markets, jobs_expected, three_year_plan, support_needed, updated_at
		FROM projections WHERE venture_id = $1`, ventureID)
	if err != nil {
		return venture.Projections{}, trapNoRowsErr(err, venture.ErrNotFound, "getting projections")
	}
	return venture.Projections{
		VentureID:     r.VentureID,
		SalesGoal:     r.SalesGoal.String,
		NewMarkets:    r.NewMarkets.String,
		JobsExpected:  r.JobsExpected.String,
		ThreeYearPlan: r.ThreeYearPlan.String,
		SupportNeeded: r.SupportNeeded.String,
		UpdatedAt:     r.UpdatedAt,
	}, nil
}

func (repo *ventureRepository) UpsertProjections(ctx context.Context, p venture.Projections) (venture.Projections, error) {
	_, err := repo.exec.NamedExecContext(ctx, `
		INSERT INTO projections (venture_id, sales_goal, new_markets, jobs_expected, three_year_plan, support_needed, updated_at)
		VALUES (:venture_id, :sales_goal, :new_markets, :jobs_expected, :three_year_plan, :support_needed, :updated_at)
		ON CONFLICT (venture_id) DO UPDATE SET sales_goal = EXCLUDED.sales_goal, new_markets = EXCLUDED.new_markets,
			jobs_expected = EXCLUDED.jobs_expected, three_year_plan = EXCLUDED.three_year_plan,
			support_needed = EXCLUDED.support_needed, updated_at = EXCLUDED.updated_at`,
		projectionsRow{
			VentureID:     p.VentureID,
			SalesGoal:     nullString(p.SalesGoal),
			NewMarkets:    nullString(p.NewMarkets),
			JobsExpected:  nullString(p.JobsExpected),
			ThreeYearPlan: nullString(p.ThreeYearPlan),
			SupportNeeded: nullString(p.SupportNeeded),
			UpdatedAt:     p.UpdatedAt.UTC(),
		},
	)
	return p, errors.Wrap(err, "upserting projections")
}
