package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"dyscalc-screening-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionSetLoader loads an assessment's question set JSONB from Postgres.
type QuestionSetLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionSetLoader(pool *pgxpool.Pool) *QuestionSetLoader {
	return &QuestionSetLoader{pool: pool}
}

func (l *QuestionSetLoader) LoadQuestionSet(ctx context.Context, assessmentID string) ([]domain.Question, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM assessments WHERE id=$1`, assessmentID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("load question set: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal question set: %w", err)
	}
	return questions, nil
}
