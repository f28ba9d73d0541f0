package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"dyscalc-screening-service/internal/app"
	"dyscalc-screening-service/internal/config"
	"dyscalc-screening-service/internal/domain"
	"dyscalc-screening-service/internal/generate"
	"dyscalc-screening-service/internal/infra/memory"
	pginfra "dyscalc-screening-service/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewSeedCmd loads demo data: a student account plus one generated
// assessment per cognitive domain.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed a demo user and generated assessments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

const (
	seedEmail    = "demo@screening.local"
	seedPassword = "demo-pass"
)

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	userRepo := pginfra.NewUserRepository(db)
	users := app.NewUserService(userRepo)
	service := app.NewAssessmentService(
		pginfra.NewAssessmentRepository(db),
		memory.NewQuestionSetCache(pginfra.NewQuestionSetLoader(pool), time.Minute),
		pginfra.NewResultRepository(db),
		userRepo,
		memory.NewSessionStore(),
	)

	user, err := users.Register(ctx, app.Registration{
		Name:     "Demo Student",
		Email:    seedEmail,
		Password: seedPassword,
		Age:      8,
		Grade:    "3",
		Language: "en",
		Consent:  true,
	})
	if errors.Is(err, domain.ErrEmailTaken) {
		log.Printf("demo user already seeded, nothing to do")
		return nil
	}
	if err != nil {
		return err
	}

	generator := generate.New()
	identity := domain.Identity{UserID: user.ID, Role: user.Role}
	for _, dom := range domain.Domains {
		questions := make([]domain.Question, 0, generate.QuestionsPerRun)
		for i := 0; i < generate.QuestionsPerRun; i++ {
			questions = append(questions, generator.Question(dom, 1+i%3, i, ""))
		}
		assessment, err := service.StartAssessment(ctx, identity, questions)
		if err != nil {
			return err
		}
		log.Printf("seeded %s assessment %s", dom, assessment.ID)
	}
	log.Printf("seeded demo user %s (%s / %s)", user.ID, seedEmail, seedPassword)
	return nil
}
