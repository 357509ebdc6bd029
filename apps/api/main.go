package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/analytics"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	logsvc "github.com/trezcool/shule/services/logger"
	sessionsvc "github.com/trezcool/shule/services/session"
	"github.com/trezcool/shule/storage"
	"github.com/trezcool/shule/storage/database"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

const sessionPurgeInterval = 10 * time.Minute

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	if err := conf.Validate(); err != nil {
		log.Fatal(err)
	}

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// set up storage
	store, err := setUpStore(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s store: %v", conf.Database.Backend, err), err)
	}
	defer func() {
		if err = store.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up services
	usrSvc := user.NewService(store.Users())
	schoolSvc := school.NewService(store.School())
	analyticsSvc := analytics.NewService(store.Analytics())

	sessions := sessionsvc.NewMemStore(conf.Server.SessionMaxAge, conf.Server.SecureCookies, []byte(conf.SecretKey))
	go sessions.RunJanitor(ctx, sessionPurgeInterval)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	if err = bootstrapAdmin(ctx, conf, usrSvc, validate, logger); err != nil {
		logger.Fatal(fmt.Sprintf("bootstrapping admin: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus metrics.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Database.Backend)
	http.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			UserSvc:      usrSvc,
			SchoolSvc:    schoolSvc,
			AnalyticsSvc: analyticsSvc,
			Sessions:     sessions,
			Validate:     validate,
			Translator:   translator,
		},
	)

	go func() {
		logger.Info(fmt.Sprintf("API listening on %s", conf.Server.Address))
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer shutdownCancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(shutdownCtx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpStore opens the configured backend. Postgres is created and migrated on the way.
func setUpStore(ctx context.Context, conf *core.Config) (storage.Store, error) {
	switch conf.Database.Backend {
	case core.BackendPostgres:
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return sqlxrepos.New(db), nil
	default:
		return inmemdb.Open(), nil
	}
}

// bootstrapAdmin seeds the configured admin account, if any.
// The in-memory store starts empty, so without it nobody could log in.
func bootstrapAdmin(ctx context.Context, conf *core.Config, svc *user.Service, validate *validator.Validate, logger core.Logger) error {
	if conf.Admin.Username == "" {
		if conf.Database.Backend == core.BackendMemory {
			logger.Warn("no admin configured: the in-memory store has no users")
		}
		return nil
	}

	nu := user.NewUser{
		Username: conf.Admin.Username,
		Password: conf.Admin.Password,
		Role:     user.RoleAdmin,
		FullName: conf.Admin.FullName,
	}
	if err := nu.Validate(validate); err != nil {
		return err
	}
	usr, created, err := svc.Bootstrap(ctx, nu)
	if err != nil {
		return err
	}
	if created {
		logger.Info(fmt.Sprintf("admin %q created", usr.Username))
	}
	return nil
}
