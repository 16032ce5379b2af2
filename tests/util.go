package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/dashboard"
	"github.com/incubaapp/incuba/core/evaluation"
	"github.com/incubaapp/incuba/core/export"
	"github.com/incubaapp/incuba/core/lab"
	"github.com/incubaapp/incuba/core/mentorship"
	"github.com/incubaapp/incuba/core/quota"
	"github.com/incubaapp/incuba/core/user"
	"github.com/incubaapp/incuba/core/venture"
	emailsvc "github.com/incubaapp/incuba/services/email"
	"github.com/incubaapp/incuba/services/filestore"
	logsvc "github.com/incubaapp/incuba/services/logger"
	webhooksvc "github.com/incubaapp/incuba/services/webhook"
	dummydb "github.com/incubaapp/incuba/storage/database/dummy"
)

// Env wires every service over the in-memory database.
type Env struct {
	Conf       *core.Config
	Validate   *validator.Validate
	Translator ut.Translator
	Logger     core.Logger
	DB         *dummydb.DB
	Mail       *SwitchMailer
	Webhook    *webhooksvc.Recorder
	Files      lab.FileStore

	UserRepo    user.Repository
	VentureRepo venture.Repository

	Users       *user.Service
	Ventures    *venture.Service
	Evaluations *evaluation.Service
	Quotas      *quota.Service
	Mentorship  *mentorship.Service
	Lab         *lab.Service
	Export      *export.Service
	Dashboard   *dashboard.Loader
}

// NewValidator registers every custom validator, as the API does.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	evaluation.InitValidators(validate, translator)
	quota.InitValidators(validate, translator)
	return validate, translator
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	conf := core.NewTestConfig()
	logger := logsvc.NewNopLogger()
	core.ParseEmailTemplates(conf, logger)

	validate, translator := NewValidator()

	env := &Env{
		Conf:        conf,
		Validate:    validate,
		Translator:  translator,
		Logger:      logger,
		DB:          db,
		Mail:        &SwitchMailer{EmailService: emailsvc.NewConsoleServiceMock(conf)},
		Webhook:     &webhooksvc.Recorder{},
		Files:       filestore.NewDummyStore("http://files.test", conf.Storage.SignedURLTTL),
		UserRepo:    dummydb.NewUserRepository(db),
		VentureRepo: dummydb.NewVentureRepository(db),
	}
	env.Users = user.NewService(env.UserRepo, logger)
	env.Ventures = venture.NewService(env.VentureRepo, env.Validate)
	env.Mentorship = mentorship.NewService(dummydb.NewMentorshipRepository(db), env.Users, env.Ventures, env.Webhook, env.Validate)
	env.Evaluations = evaluation.NewService(dummydb.NewEvaluationRepository(db), env.Ventures, env.Mentorship, env.Validate, conf)
	env.Quotas = quota.NewService(conf, dummydb.NewQuotaRepository(db), env.Ventures, env.Users, env.Mail, env.Validate)
	env.Lab = lab.NewService(dummydb.NewLabRepository(db), env.Files, env.Validate)
	env.Export = export.NewService(env.Ventures, env.Evaluations, env.Quotas)
	env.Dashboard = dashboard.NewLoader(env.Ventures, env.Users, env.Quotas, env.Evaluations)
	emailsvc.ClearSentMessages()
	return env
}

// SwitchMailer fails every send while Err is set.
type SwitchMailer struct {
	core.EmailService
	Err error
}

func (m *SwitchMailer) SendMessages(messages ...*core.EmailMessage) error {
	if m.Err != nil {
		return m.Err
	}
	return m.EmailService.SendMessages(messages...)
}

var ErrSMTPDown = errors.New("smtp down")

func CreateUser(t *testing.T, repo user.Repository, name, email string, roles []string, createdAt ...time.Time) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr, err := repo.CreateUser(context.Background(), user.User{
		ID:        uuidFor(name),
		Name:      name,
		Email:     email,
		Roles:     roles,
		IsActive:  true,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// CreateVenture stores a venture owned by ownerID with a team of the given size.
func CreateVenture(t *testing.T, env *Env, ownerID, name, municipality string, teamTotal, fullTime int) venture.Venture {
	t.Helper()
	ctx := context.Background()
	v, err := env.Ventures.Create(ctx, ownerID, venture.NewVenture{
		Name:         name,
		Description:  name + " description",
		Category:     "agro",
		Stage:        "idea",
		Department:   "Nariño",
		Municipality: municipality,
	})
	if err != nil {
		t.Fatalf("createVenture() failed: %v", err)
	}
	if _, err := env.Ventures.SaveTeam(ctx, v.ID, venture.Team{Total: teamTotal, FullTime: fullTime}); err != nil {
		t.Fatalf("saveTeam() failed: %v", err)
	}
	return v
}

// SubmitEvaluation files and submits an evaluation with the given scores.
func SubmitEvaluation(t *testing.T, env *Env, evaluatorID, ventureID string, typ evaluation.Type, s evaluation.Scores) evaluation.Evaluation {
	t.Helper()
	ctx := context.Background()
	e, err := env.Evaluations.CreateDraft(ctx, evaluatorID, evaluation.NewEvaluation{VentureID: ventureID, Type: typ, Scores: s})
	if err != nil {
		t.Fatalf("createDraft() failed: %v", err)
	}
	if e, err = env.Evaluations.Submit(ctx, evaluatorID, e.ID); err != nil {
		t.Fatalf("submit() failed: %v", err)
	}
	return e
}

// AssignJuror makes mentorID a juror of ventureID.
func AssignJuror(t *testing.T, env *Env, mentorID, ventureID string) {
	t.Helper()
	_, err := env.Mentorship.Assign(context.Background(), mentorship.NewAssignment{MentorID: mentorID, VentureID: ventureID, IsJury: true})
	if err != nil {
		t.Fatalf("assign() failed: %v", err)
	}
}

func uuidFor(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
