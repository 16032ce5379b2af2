package di

import (
	"context"
	"database/sql"
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/wire"
	"github.com/jmoiron/sqlx"
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
	"github.com/incubaapp/incuba/storage/database"
	dummydb "github.com/incubaapp/incuba/storage/database/dummy"
	sqlxrepos "github.com/incubaapp/incuba/storage/database/sqlx"
)

// EngineDummy keeps everything in memory; handy for demos and the admin CLI tests.
const EngineDummy = "dummy"

type (
	// App holds every long lived dependency of the API and the admin CLI.
	App struct {
		Conf       *core.Config
		Logger     core.Logger
		Store      *Store
		Validate   *validator.Validate
		Translator ut.Translator
		Mail       core.EmailService

		Users       *user.Service
		Ventures    *venture.Service
		Evaluations *evaluation.Service
		Quotas      *quota.Service
		Mentorship  *mentorship.Service
		Lab         *lab.Service
		Export      *export.Service
		Dashboard   *dashboard.Loader
	}

	// Store is the configured database engine: postgres through sqlx, or the in-memory one.
	Store struct {
		engine string
		sqlDB  *sqlx.DB
		memDB  *dummydb.DB
	}
)

var (
	repositorySet = wire.NewSet(
		userRepository,
		ventureRepository,
		evaluationRepository,
		quotaRepository,
		mentorshipRepository,
		labRepository,
	)

	serviceSet = wire.NewSet(
		user.NewService,
		venture.NewService,
		mentorship.NewService,
		evaluation.NewService,
		quota.NewService,
		lab.NewService,
		export.NewService,
		dashboard.NewLoader,

		wire.Bind(new(mentorship.Users), new(*user.Service)),
		wire.Bind(new(mentorship.Ventures), new(*venture.Service)),
		wire.Bind(new(evaluation.Ventures), new(*venture.Service)),
		wire.Bind(new(evaluation.JuryChecker), new(*mentorship.Service)),
		wire.Bind(new(quota.Ventures), new(*venture.Service)),
		wire.Bind(new(quota.Users), new(*user.Service)),
		wire.Bind(new(export.Ventures), new(*venture.Service)),
		wire.Bind(new(export.Evaluations), new(*evaluation.Service)),
		wire.Bind(new(export.Quotas), new(*quota.Service)),
		wire.Bind(new(dashboard.VentureSource), new(*venture.Service)),
		wire.Bind(new(dashboard.BeneficiarySource), new(*user.Service)),
		wire.Bind(new(dashboard.QuotaSource), new(*quota.Service)),
		wire.Bind(new(dashboard.ScoreSource), new(*evaluation.Service)),
	)

	// ProviderSet builds an App from a *core.Config.
	ProviderSet = wire.NewSet(
		newLogger,
		newStore,
		newTranslator,
		newValidator,
		newEmailService,
		newFileStore,
		webhooksvc.NewNotifier,
		repositorySet,
		serviceSet,
		wire.Struct(new(App), "*"),
	)
)

// newLogger mirrors everything to zap and reports warnings and errors to Rollbar outside DEV.
func newLogger(conf *core.Config) (core.Logger, func(), error) {
	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		return nil, nil, errors.Wrap(err, "building zap logger")
	}
	logger := logsvc.NewRollbarLogger(conf, zl)
	cleanup := func() {
		logger.Close()
		_ = zl.Sync()
	}
	return logger, cleanup, nil
}

func newStore(conf *core.Config, logger core.Logger) (*Store, func(), error) {
	if conf.Database.Engine == EngineDummy {
		memDB, err := dummydb.Open()
		if err != nil {
			return nil, nil, err
		}
		logger.Warn("using the in-memory database; nothing will be persisted")
		return &Store{engine: EngineDummy, memDB: memDB}, func() {}, nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, nil, errors.Wrap(err, "creating database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}
	return &Store{engine: conf.Database.Engine, sqlDB: db}, cleanup, nil
}

// Migrate runs a goose command against the SQL database.
func (st *Store) Migrate(command string, args ...string) error {
	if st.sqlDB == nil {
		return errors.Errorf("%s engine has no migrations", st.engine)
	}
	return database.Migrate(st.sqlDB.DB, command, args...)
}

// SQL returns the underlying *sql.DB, nil for the in-memory engine.
func (st *Store) SQL() *sql.DB {
	if st.sqlDB == nil {
		return nil
	}
	return st.sqlDB.DB
}

func userRepository(st *Store) user.Repository {
	if st.memDB != nil {
		return dummydb.NewUserRepository(st.memDB)
	}
	return sqlxrepos.NewUserRepository(st.sqlDB)
}

func ventureRepository(st *Store) venture.Repository {
	if st.memDB != nil {
		return dummydb.NewVentureRepository(st.memDB)
	}
	return sqlxrepos.NewVentureRepository(st.sqlDB)
}

func evaluationRepository(st *Store) evaluation.Repository {
	if st.memDB != nil {
		return dummydb.NewEvaluationRepository(st.memDB)
	}
	return sqlxrepos.NewEvaluationRepository(st.sqlDB)
}

func quotaRepository(st *Store) quota.Repository {
	if st.memDB != nil {
		return dummydb.NewQuotaRepository(st.memDB)
	}
	return sqlxrepos.NewQuotaRepository(st.sqlDB)
}

func mentorshipRepository(st *Store) mentorship.Repository {
	if st.memDB != nil {
		return dummydb.NewMentorshipRepository(st.memDB)
	}
	return sqlxrepos.NewMentorshipRepository(st.sqlDB)
}

func labRepository(st *Store) lab.Repository {
	if st.memDB != nil {
		return dummydb.NewLabRepository(st.memDB)
	}
	return sqlxrepos.NewLabRepository(st.sqlDB)
}

func newTranslator() ut.Translator {
	return core.NewTranslator()
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	evaluation.InitValidators(validate, translator)
	quota.InitValidators(validate, translator)
	return validate
}

func newEmailService(conf *core.Config) core.EmailService {
	if conf.TestMode {
		return emailsvc.NewConsoleServiceMock(conf)
	}
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf)
	}
	return emailsvc.NewSendgridService(conf)
}

// newFileStore presigns against S3; tests get local fake URLs.
func newFileStore(conf *core.Config) (lab.FileStore, error) {
	if conf.TestMode {
		return filestore.NewDummyStore(conf.FrontendBaseURL+"/files", conf.Storage.SignedURLTTL), nil
	}
	return filestore.NewS3Store(context.Background(), conf.Storage)
}
