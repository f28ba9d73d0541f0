package integration

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"dyscalc-screening-service/internal/app"
	"dyscalc-screening-service/internal/domain"
	"dyscalc-screening-service/internal/export"
	pginfra "dyscalc-screening-service/internal/infra/postgres"
	pgmigrations "dyscalc-screening-service/internal/infra/postgres/migrations"
	redisinfra "dyscalc-screening-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestScreeningEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(pgURL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	userRepo := pginfra.NewUserRepository(db)
	service := app.NewAssessmentService(
		pginfra.NewAssessmentRepository(db),
		redisinfra.NewQuestionSetCache(redisClient, pginfra.NewQuestionSetLoader(pool), 5*time.Minute),
		pginfra.NewResultRepository(db),
		userRepo,
		redisinfra.NewSessionStore(redisClient, 5*time.Minute),
	)
	users := app.NewUserService(userRepo)

	user, err := users.Register(ctx, app.Registration{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "hunter22",
		Age:      8,
		Consent:  true,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	identity := domain.Identity{UserID: user.ID, Role: user.Role}

	assessment, err := service.StartAssessment(ctx, identity, []domain.Question{
		{ID: "q1", Domain: domain.DomainArithmetic, Text: "2 + 2 = ?", CorrectAnswer: "4", Difficulty: 1,
			Options: []domain.Option{{Text: "4", IsCorrect: true}, {Text: "5"}}},
		{ID: "q2", Domain: domain.DomainNumberSense, Text: "7  ?  3", CorrectAnswer: ">", Difficulty: 1,
			Options: []domain.Option{{Text: ">", IsCorrect: true}, {Text: "<"}}},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	four := "4"
	less := "<"
	result, err := service.SubmitAssessment(ctx, identity, assessment.ID, []domain.SubmittedAnswer{
		{QuestionID: "q1", SelectedAnswer: &four, ResponseTimeMs: 1800, Attempts: 1},
		{QuestionID: "q2", SelectedAnswer: &less, ResponseTimeMs: 2600, Attempts: 1},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Scores.Total != 50 || result.RiskLevel != domain.RiskModerate {
		t.Fatalf("unexpected result: %+v", result)
	}

	// The result pipeline wrote through postgres; read it back and export.
	target, results, err := service.ResultsForUser(ctx, identity, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 1 || results[0].ID != result.ID {
		t.Fatalf("unexpected results: %+v", results)
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, target, results); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(buf.String(), result.ID) || !strings.Contains(buf.String(), "ada@example.com") {
		t.Fatalf("csv missing expected fields: %q", buf.String())
	}

	// Redis served the question set during submit; the cache key must exist.
	exists, err := redisClient.Exists(ctx, fmt.Sprintf("assessment:%s:questions", assessment.ID)).Result()
	if err != nil || exists != 1 {
		t.Fatalf("expected cached question set, got exists=%d err=%v", exists, err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "screening", "POSTGRES_PASSWORD": "screeningpass", "POSTGRES_DB": "screeningdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://screening:screeningpass@%s:%s/screeningdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
