package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	redis "github.com/redis/go-redis/v9"

	authhandler "github.com/schoolflow/schoolflow-backend/internal/auth/handler"
	"github.com/schoolflow/schoolflow-backend/internal/auth/jwt"
	authrepo "github.com/schoolflow/schoolflow-backend/internal/auth/repository"
	authservice "github.com/schoolflow/schoolflow-backend/internal/auth/service"
	"github.com/schoolflow/schoolflow-backend/internal/audit"
	audithandler "github.com/schoolflow/schoolflow-backend/internal/audit/handler"
	auditrepo "github.com/schoolflow/schoolflow-backend/internal/audit/repository"
	auditservice "github.com/schoolflow/schoolflow-backend/internal/audit/service"
	"github.com/schoolflow/schoolflow-backend/internal/authz"
	platformhandler "github.com/schoolflow/schoolflow-backend/internal/platform/handler"
	platformrepo "github.com/schoolflow/schoolflow-backend/internal/platform/repository"
	platformservice "github.com/schoolflow/schoolflow-backend/internal/platform/service"
	schoolhandler "github.com/schoolflow/schoolflow-backend/internal/school/handler"
	schoolrepo "github.com/schoolflow/schoolflow-backend/internal/school/repository"
	schoolservice "github.com/schoolflow/schoolflow-backend/internal/school/service"
	timetablegenerator "github.com/schoolflow/schoolflow-backend/internal/timetable/generator"
	timetablehandler "github.com/schoolflow/schoolflow-backend/internal/timetable/handler"
	timetablerepo "github.com/schoolflow/schoolflow-backend/internal/timetable/repository"
	timetableservice "github.com/schoolflow/schoolflow-backend/internal/timetable/service"
	usershandler "github.com/schoolflow/schoolflow-backend/internal/users/handler"
	usersrepo "github.com/schoolflow/schoolflow-backend/internal/users/repository"
	usersservice "github.com/schoolflow/schoolflow-backend/internal/users/service"

	"github.com/schoolflow/schoolflow-backend/pkg/config"
	"github.com/schoolflow/schoolflow-backend/pkg/database"
	"github.com/schoolflow/schoolflow-backend/pkg/httputil"
	"github.com/schoolflow/schoolflow-backend/pkg/i18n"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
	"github.com/schoolflow/schoolflow-backend/pkg/mailer"
	"github.com/schoolflow/schoolflow-backend/pkg/messaging"
	"github.com/schoolflow/schoolflow-backend/pkg/permissions"
	"github.com/schoolflow/schoolflow-backend/pkg/ratelimit"
	"github.com/schoolflow/schoolflow-backend/pkg/tenant"
	"github.com/schoolflow/schoolflow-backend/pkg/tracing"
)

func main() {
	cfg, err := config.LoadWithValidation("api-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("api-server", cfg.Server.Environment)
	log.Info().Msg("starting schoolflow API server")

	if err := tracing.Init(cfg.Tracing.JaegerEndpoint, cfg.Server.Environment); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown error")
		}
	}()

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	auditPublisher, err := messaging.NewPublisher(rmq, cfg.RabbitMQ.AuditExchange, "api-server", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create audit event publisher")
	}

	var rateLimitStore ratelimit.Store
	if cfg.Redis.URL != "" {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid redis url")
		}
		redisOpts.PoolSize = cfg.Redis.PoolSize
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		rateLimitStore = ratelimit.NewRedisStore(redisClient)
		log.Info().Msg("rate limiter backed by redis")
	} else {
		rateLimitStore = ratelimit.NewMemoryStore()
		log.Info().Msg("rate limiter backed by in-process memory store")
	}
	limiter := ratelimit.NewLimiter(rateLimitStore).WithRule("api", ratelimit.Rule{
		Window:              cfg.RateLimit.DefaultWindow,
		Max:                 int64(cfg.RateLimit.DefaultLimit),
		EscalationThreshold: int64(cfg.RateLimit.EscalationThreshold),
		BlockWindow:         cfg.RateLimit.EscalationBlockWindow,
	})

	jwtManager := jwt.NewManager(&cfg.JWT)
	permCache := permissions.NewCache(15 * time.Minute)
	mail := mailer.New(&cfg.SMTP, log)

	facade := database.NewFacade(db)

	tenantRepo := platformrepo.NewTenantRepository(facade)
	userRepo := usersrepo.NewUserRepository(facade)
	roleRepo := usersrepo.NewRoleRepository(facade)
	sessionRepo := authrepo.NewSessionRepository(db)
	lookupRepo := authrepo.NewUserTenantLookupRepository(db)
	resetRepo := authrepo.NewPasswordResetRepository(db)
	auditLogRepo := auditrepo.NewLogRepository(facade)
	schoolRepo := schoolrepo.NewSchoolRepository(facade)
	timetableRepo := timetablerepo.NewTimetableRepository(facade)

	auditPub := audit.NewPublisher(auditLogRepo, auditPublisher, log)

	tenantResolver := tenant.NewResolver(tenantRepo, 30*time.Second)
	pipeline := authz.NewPipeline(jwtManager, tenantResolver, permCache, tenantRepo, roleRepo, log)

	authSvc := authservice.NewAuthService(sessionRepo, lookupRepo, userRepo, roleRepo, tenantRepo, permCache, jwtManager, auditPub, resetRepo, mail, cfg.Server.PublicBaseURL, log)
	authHandler := authhandler.NewAuthHandler(authSvc, log, cfg.Server.Environment != config.EnvDevelopment)

	tenantSvc := platformservice.NewTenantService(tenantRepo, auditPub, log)
	tenantHandler := platformhandler.NewTenantHandler(tenantSvc, log)

	userSvc := usersservice.NewUserService(userRepo, roleRepo, permCache, auditPub, log)
	userHandler := usershandler.NewUserHandler(userSvc, log)

	schoolSvc := schoolservice.NewSchoolService(schoolRepo, log)
	schoolHandler := schoolhandler.NewSchoolHandler(schoolSvc, log)

	generator := timetablegenerator.NewGenerator(timetableRepo, schoolRepo, log)
	timetableSvc := timetableservice.NewTimetableService(timetableRepo, generator, schoolRepo, log)
	timetableHandler := timetablehandler.NewTimetableHandler(timetableSvc, schoolSvc, log)

	auditSvc := auditservice.NewAuditService(auditLogRepo, log)
	auditHandler := audithandler.NewAuditHandler(auditSvc, log)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(i18n.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Tenant-Id", "X-Impersonate-Tenant", "Accept-Language"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "api-server",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	byIP := func(r *http.Request) string { return r.RemoteAddr }

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(limiter, "auth", byIP))
			authhandler.RegisterRoutes(r, authHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(pipeline.Require)
			r.Use(ratelimit.Middleware(limiter, "api", byIP))

			authhandler.RegisterProtectedRoutes(r, authHandler)
			usershandler.RegisterRoutes(r, userHandler)
			schoolhandler.RegisterRoutes(r, schoolHandler)
			timetablehandler.RegisterRoutes(r, timetableHandler)
			audithandler.RegisterRoutes(r, auditHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(pipeline.RequirePlatformOwner)
			platformhandler.RegisterRoutes(r, tenantHandler)
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
