package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dyscalc-screening-service/internal/app"
	"dyscalc-screening-service/internal/auth"
	"dyscalc-screening-service/internal/config"
	"dyscalc-screening-service/internal/infra/memory"
	pginfra "dyscalc-screening-service/internal/infra/postgres"
	redisinfra "dyscalc-screening-service/internal/infra/redis"
	transport "dyscalc-screening-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the screening server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	var bunDB *bun.DB
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		bunDB = bun.NewDB(sqldb, pgdialect.New())
		defer bunDB.Close()
	}

	// Storage tiers: postgres when configured, in-memory otherwise. The
	// question cache and session store prefer redis when available.
	memStore := memory.NewAssessmentStore()

	var assessmentRepo app.AssessmentRepository = memStore
	var resultRepo app.ResultRepository = memory.NewResultStore()
	var userRepo app.UserRepository = memory.NewUserStore()
	var loader memory.QuestionSetLoader = memStore
	if bunDB != nil {
		assessmentRepo = pginfra.NewAssessmentRepository(bunDB)
		resultRepo = pginfra.NewResultRepository(bunDB)
		userRepo = pginfra.NewUserRepository(bunDB)
		loader = pginfra.NewQuestionSetLoader(pool)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questionSets app.QuestionSetRepository
	if redisClient != nil {
		questionSets = redisinfra.NewQuestionSetCache(redisClient, loader, questionTTL)
	} else {
		questionSets = memory.NewQuestionSetCache(loader, questionTTL)
	}

	// redis.ttl is the tier-wide default; screening.sessionTtl overrides it.
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)
	sessionTTL := config.TTLDuration(cfg.Screening.SessionTTL, redisTTL)
	var sessions app.SessionStore
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		log.Printf("auth.jwtSecret not configured, using an insecure development default")
		secret = "dev-secret"
	}
	tokens := auth.NewTokenManager(secret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))

	assessmentService := app.NewAssessmentService(assessmentRepo, questionSets, resultRepo, userRepo, sessions)
	userService := app.NewUserService(userRepo)

	mux := http.NewServeMux()
	transport.NewAPI(userService, assessmentService, tokens).Routes(mux)
	mux.HandleFunc("/ws/screening", transport.NewWSHandler(assessmentService, tokens).ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting screening service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
