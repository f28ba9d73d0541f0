package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dyscalc-screening-service/internal/domain"
	"github.com/uptrace/bun"
)

type assessmentRow struct {
	bun.BaseModel `bun:"table:assessments,alias:a"`

	ID          string     `bun:"id,pk"`
	UserID      string     `bun:"user_id,notnull"`
	Data        []byte     `bun:"data,type:jsonb,notnull"`
	Status      string     `bun:"status,notnull"`
	StartedAt   time.Time  `bun:"started_at,notnull"`
	CompletedAt *time.Time `bun:"completed_at"`
}

// AssessmentRepository persists assessments through bun; question sets are
// stored as one JSONB document per assessment and read back through the
// pgx loader.
type AssessmentRepository struct {
	db *bun.DB
}

func NewAssessmentRepository(db *bun.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

func (r *AssessmentRepository) CreateAssessment(ctx context.Context, assessment domain.Assessment) error {
	data, err := json.Marshal(assessment.Questions)
	if err != nil {
		return fmt.Errorf("marshal question set: %w", err)
	}
	row := &assessmentRow{
		ID:        assessment.ID,
		UserID:    assessment.UserID,
		Data:      data,
		Status:    assessment.Status,
		StartedAt: assessment.StartedAt,
	}
	_, err = r.db.NewInsert().Model(row).Exec(ctx)
	return err
}

func (r *AssessmentRepository) MarkCompleted(ctx context.Context, assessmentID string, completedAt time.Time) error {
	res, err := r.db.NewUpdate().
		Model((*assessmentRow)(nil)).
		Set("status = ?", domain.AssessmentCompleted).
		Set("completed_at = ?", completedAt).
		Where("id = ?", assessmentID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrAssessmentNotFound
	}
	return nil
}

type resultRow struct {
	bun.BaseModel `bun:"table:results,alias:r"`

	ID              string    `bun:"id,pk"`
	UserID          string    `bun:"user_id,notnull"`
	AssessmentID    string    `bun:"assessment_id,notnull"`
	Answers         []byte    `bun:"answers,type:jsonb,notnull"`
	Scores          []byte    `bun:"scores,type:jsonb,notnull"`
	SubtypeCounts   []byte    `bun:"subtype_counts,type:jsonb,notnull"`
	ErrorPatterns   []byte    `bun:"error_patterns,type:jsonb,notnull"`
	RiskLevel       string    `bun:"risk_level,notnull"`
	ConfidenceScore float64   `bun:"confidence_score,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
}

// ResultRepository is the append-only result history in Postgres.
type ResultRepository struct {
	db *bun.DB
}

func NewResultRepository(db *bun.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) SaveResult(ctx context.Context, result domain.Result) error {
	row, err := toResultRow(result)
	if err != nil {
		return err
	}
	_, err = r.db.NewInsert().Model(row).Exec(ctx)
	return err
}

func (r *ResultRepository) ListResults(ctx context.Context, userID string) ([]domain.Result, error) {
	var rows []resultRow
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]domain.Result, 0, len(rows))
	for _, row := range rows {
		result, err := fromResultRow(row)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func toResultRow(result domain.Result) (*resultRow, error) {
	answers, err := json.Marshal(result.Answers)
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}
	scores, err := json.Marshal(result.Scores)
	if err != nil {
		return nil, fmt.Errorf("marshal scores: %w", err)
	}
	subtypes, err := json.Marshal(result.SubtypeCounts)
	if err != nil {
		return nil, fmt.Errorf("marshal subtype counts: %w", err)
	}
	patterns, err := json.Marshal(result.ErrorPatterns)
	if err != nil {
		return nil, fmt.Errorf("marshal error patterns: %w", err)
	}
	return &resultRow{
		ID:              result.ID,
		UserID:          result.UserID,
		AssessmentID:    result.AssessmentID,
		Answers:         answers,
		Scores:          scores,
		SubtypeCounts:   subtypes,
		ErrorPatterns:   patterns,
		RiskLevel:       result.RiskLevel,
		ConfidenceScore: result.ConfidenceScore,
		CreatedAt:       result.CreatedAt,
	}, nil
}

func fromResultRow(row resultRow) (domain.Result, error) {
	result := domain.Result{
		ID:              row.ID,
		UserID:          row.UserID,
		AssessmentID:    row.AssessmentID,
		RiskLevel:       row.RiskLevel,
		ConfidenceScore: row.ConfidenceScore,
		CreatedAt:       row.CreatedAt,
	}
	if err := json.Unmarshal(row.Answers, &result.Answers); err != nil {
		return domain.Result{}, fmt.Errorf("unmarshal answers: %w", err)
	}
	if err := json.Unmarshal(row.Scores, &result.Scores); err != nil {
		return domain.Result{}, fmt.Errorf("unmarshal scores: %w", err)
	}
	if err := json.Unmarshal(row.SubtypeCounts, &result.SubtypeCounts); err != nil {
		return domain.Result{}, fmt.Errorf("unmarshal subtype counts: %w", err)
	}
	if err := json.Unmarshal(row.ErrorPatterns, &result.ErrorPatterns); err != nil {
		return domain.Result{}, fmt.Errorf("unmarshal error patterns: %w", err)
	}
	return result, nil
}

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string    `bun:"id,pk"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         string    `bun:"role,notnull"`
	Age          int       `bun:"age"`
	Grade        string    `bun:"grade"`
	Language     string    `bun:"language"`
	GuardianID   string    `bun:"guardian_id"`
	Consent      bool      `bun:"consent"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

// UserRepository stores accounts in Postgres.
type UserRepository struct {
	db *bun.DB
}

func NewUserRepository(db *bun.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user domain.User) error {
	_, err := r.db.NewInsert().Model(toUserRow(user)).Exec(ctx)
	return err
}

func (r *UserRepository) UserByID(ctx context.Context, id string) (domain.User, error) {
	var row userRow
	err := r.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, err
	}
	return fromUserRow(row), nil
}

func (r *UserRepository) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	var row userRow
	err := r.db.NewSelect().Model(&row).Where("email = ?", email).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, err
	}
	return fromUserRow(row), nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	res, err := r.db.NewUpdate().Model(toUserRow(user)).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ListStudents(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	err := r.db.NewSelect().
		Model(&rows).
		Where("role = ?", domain.RoleStudent).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, fromUserRow(row))
	}
	return users, nil
}

func toUserRow(user domain.User) *userRow {
	return &userRow{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		Age:          user.Age,
		Grade:        user.Grade,
		Language:     user.Language,
		GuardianID:   user.GuardianID,
		Consent:      user.Consent,
		CreatedAt:    user.CreatedAt,
	}
}

func fromUserRow(row userRow) domain.User {
	return domain.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         row.Role,
		Age:          row.Age,
		Grade:        row.Grade,
		Language:     row.Language,
		GuardianID:   row.GuardianID,
		Consent:      row.Consent,
		CreatedAt:    row.CreatedAt,
	}
}
