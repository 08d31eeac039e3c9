package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/api"
	"github.com/Ntropy86/Codeforces-Calendar/internal/cache"
	"github.com/Ntropy86/Codeforces-Calendar/internal/codeforces"
	"github.com/Ntropy86/Codeforces-Calendar/internal/config"
	"github.com/Ntropy86/Codeforces-Calendar/internal/database"
	"github.com/Ntropy86/Codeforces-Calendar/internal/email"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/assignment_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/auth_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/job_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/problem_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/scheduler_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/streak_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/submission_service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/user_service"
	"github.com/Ntropy86/Codeforces-Calendar/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	emailWorkers     = 1
	schedulerBuffer  = 16
	shutdownDeadline = 10 * time.Second
)

var (
	apiConfig *api.Api
	cfg       *config.Config
)

type services struct {
	scheduler *scheduler_service.Scheduler
	jobs      *job_service.JobService
}

func initLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("invalid log level %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func initDatabase(ctx context.Context) (*pgxpool.Pool, *database.Queries) {
	if cfg.DBURL == "" {
		panic("dbURL not found")
	}

	// create a connection pool to the database
	pool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		panic(err)
	}
	if err = pool.Ping(ctx); err != nil {
		panic(err)
	}

	queries := database.New(pool)
	if err = queries.Migrate(ctx); err != nil {
		panic(err)
	}
	log.Info("database schema is up to date")
	return pool, queries
}

func initCodeforcesClient() *codeforces.Client {
	log.Info("initializing codeforces client")
	client, err := codeforces.NewClient(cfg.CfApiURL, cfg.CfRequestsPerSecond)
	if err != nil {
		panic(err)
	}
	return client
}

// redis is optional, the calendar is read straight from postgres without it
func initCache(ctx context.Context) cache.Cache {
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not set, monthly problem sets will not be cached")
		return nil
	}
	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Errorf("cannot connect to redis, continuing without cache, %v", err)
		return nil
	}
	return cache.NewRedisCache(client)
}

func initProblemService(db *database.Queries, cf *codeforces.Client) *problem_service.ProblemService {
	log.Info("initializing problem service")
	return &problem_service.ProblemService{
		DB:       db,
		Catalog:  cf,
		FullScan: cfg.IngestFullScan,
	}
}

func initAssignmentService(
	db *database.Queries,
	ps *problem_service.ProblemService,
	calendarCache cache.Cache,
) *assignment_service.AssignmentService {
	log.Info("initializing assignment service")
	return &assignment_service.AssignmentService{
		DB:       db,
		Pool:     ps,
		Cache:    calendarCache,
		CacheTTL: cfg.RedisCacheDuration,
	}
}

func initStreakService(db *database.Queries) *streak_service.StreakService {
	log.Info("initializing streak service")
	return &streak_service.StreakService{
		Store:           &streak_service.PgLedgerStore{DB: db},
		RetentionMonths: cfg.RetentionMonths,
	}
}

func initSubmissionService(
	cf *codeforces.Client,
	us *user_service.UserService,
	as *assignment_service.AssignmentService,
	ss *streak_service.StreakService,
) *submission_service.SubmissionService {
	log.Info("initializing submission service")
	verifier, err := submission_service.NewVerifier(cf, cfg.VerifyAttempts, cfg.VerifyInterval)
	if err != nil {
		panic(err)
	}
	return &submission_service.SubmissionService{
		Users:    us,
		Problems: as,
		Streaks:  ss,
		Verifier: verifier,
	}
}

func initScheduler(ctx context.Context) *scheduler_service.Scheduler {
	log.Info("initializing scheduler")
	scheduler := &scheduler_service.Scheduler{
		QueueBuffer:   schedulerBuffer,
		MaxConcurrent: 1,
	}
	scheduler.Start(ctx)
	return scheduler
}

func initJobService(
	scheduler *scheduler_service.Scheduler,
	ps *problem_service.ProblemService,
	as *assignment_service.AssignmentService,
	ss *streak_service.StreakService,
	us *user_service.UserService,
) *job_service.JobService {
	log.Info("initializing job service")
	metrics, err := job_service.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		panic(err)
	}

	alerts := &email.EmailService{AlertRecipients: cfg.AlertEmails}
	alerts.Start()

	js := &job_service.JobService{
		Ingester:  ps,
		Generator: as,
		Pruner:    ss,
		Refresher: us,
		Scheduler: scheduler,
		Alerts:    alerts,
		Metrics:   metrics,
	}
	err = js.Start(job_service.Schedules{
		IngestAt:   cfg.IngestAt,
		GenerateAt: cfg.GenerateAt,
		PruneAt:    cfg.PruneAt,
		RefreshAt:  cfg.RefreshAt,
	})
	if err != nil {
		panic(err)
	}
	return js
}

func initApi(ctx context.Context, db *database.Queries) (*api.Api, services) {
	log.Info("initializing api config")
	cf := initCodeforcesClient()
	calendarCache := initCache(ctx)

	ps := initProblemService(db, cf)
	us := &user_service.UserService{DB: db, Profiles: cf}
	as := initAssignmentService(db, ps, calendarCache)
	ss := initStreakService(db)
	subs := initSubmissionService(cf, us, as, ss)
	scheduler := initScheduler(ctx)
	js := initJobService(scheduler, ps, as, ss, us)

	a := api.Api{
		UserServiceConfig:       us,
		StreakServiceConfig:     ss,
		SubmissionServiceConfig: subs,
		AssignmentServiceConfig: as,
		ProblemServiceConfig:    ps,
		AuthServiceConfig: &auth_service.AuthService{
			PasswordHash: cfg.AdminPasswordHash,
			JWTSecret:    cfg.JWTSecret,
		},
		JobServiceConfig: js,
		SchedulerConfig:  scheduler,
	}
	return &a, services{scheduler: scheduler, jobs: js}
}

func setup(ctx context.Context) (*pgxpool.Pool, services) {
	cfg = config.Load()
	initLogger()

	// the jwt middleware reads the secret from the environment
	if cfg.JWTSecret != "" {
		os.Setenv(service.KeyJWTSecret, cfg.JWTSecret)
	}

	pool, db := initDatabase(ctx)
	service.InitializeServices(pool)

	if err := middleware.InitPrometheus(prometheus.DefaultRegisterer); err != nil {
		panic(err)
	}

	var svcs services
	apiConfig, svcs = initApi(ctx, db)
	email.StartEmailWorkers(emailWorkers, cfg.SenderEmail, cfg.SenderEmailPassword)
	go middleware.CleanupVisitors(ctx)
	return pool, svcs
}

func setCors(router *chi.Mux) {
	router.Use(
		cors.Handler(
			cors.Options{
				AllowedOrigins:   []string{"https://*", "http://*"},
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: false,
				ExposedHeaders:   []string{"Link"},
				MaxAge:           300,
			},
		),
	)
	log.Info("cors options has been set")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, svcs := setup(ctx)
	defer pool.Close()
	defer svcs.scheduler.Stop()

	// initialize a new router
	router := chi.NewRouter()
	setCors(router)
	router.Use(middleware.MonitorMiddleware)
	router.Use(middleware.RateLimitMiddleware)

	// mount v1 router
	router.Mount("/v1", NewV1Router())
	log.Info("v1 router has been mounted")

	router.Handle("/metrics", metricsHandler())

	// find the address to start the server
	apiAddress := cfg.ApiURL + ":" + cfg.Port

	log.Infof("starting server on %s", apiAddress)
	// create a server object to listen to all requests
	srv := http.Server{
		Handler:           router,
		Addr:              apiAddress,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("server shutdown failed, %v", err)
		}
	}()

	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server cannot be started. Error: %v", err)
	}
}
