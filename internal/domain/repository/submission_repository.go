package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"leetcode_backend/internal/common"
	"leetcode_backend/internal/domain/model"

	"github.com/google/uuid"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)

	CreateTestCaseResults(ctx context.Context, tx *sql.Tx, results []model.TestCaseResult) error
	// GetTestCaseResults returns results ordered by test case index.
	GetTestCaseResults(ctx context.Context, submissionID string) ([]model.TestCaseResult, error)

	// MarkProblemSolved is a no-op when the mark already exists.
	MarkProblemSolved(ctx context.Context, tx *sql.Tx, userID, problemID string) error
	IsProblemSolved(ctx context.Context, userID, problemID string) (bool, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func (r *pgSubmissionRepository) conn(tx *sql.Tx) execer {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *pgSubmissionRepository) CreateSubmission(ctx context.Context, tx *sql.Tx, s *model.Submission) error {
	query := `INSERT INTO submissions (id, user_id, problem_id, source_code, language, language_id, stdin, stdout, stderr, compile_output, status, memory, time)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING created_at`
	err := r.conn(tx).QueryRowContext(ctx, query,
		s.ID, s.UserID, s.ProblemID, s.SourceCode, s.Language, s.LanguageID, s.Stdin,
		s.Stdout, s.Stderr, s.CompileOutput, s.Status, s.Memory, s.Time,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateSubmission: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrNotFound
	}
	query := `SELECT id, user_id, problem_id, source_code, language, language_id, stdin,
                     stdout, stderr, compile_output, status, memory, time, created_at
              FROM submissions WHERE id = $1`
	s := &model.Submission{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.ProblemID, &s.SourceCode, &s.Language, &s.LanguageID, &s.Stdin,
		&s.Stdout, &s.Stderr, &s.CompileOutput, &s.Status, &s.Memory, &s.Time, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) CreateTestCaseResults(ctx context.Context, tx *sql.Tx, results []model.TestCaseResult) error {
	if len(results) == 0 {
		return nil
	}
	stmt, err := r.conn(tx).PrepareContext(ctx, `INSERT INTO test_case_results
	    (id, submission_id, test_case_index, passed, is_public, stdout, expected_output, stderr, compile_output, status, memory, time)
	    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateTestCaseResults prepare: %w", err)
	}
	defer stmt.Close()

	for _, res := range results {
		_, err := stmt.ExecContext(ctx, res.ID, res.SubmissionID, res.TestCaseIndex, res.Passed, res.IsPublic,
			res.Stdout, res.Expected, res.Stderr, res.CompileOutput, res.Status, res.Memory, res.Time)
		if err != nil {
			return fmt.Errorf("pgSubmissionRepository.CreateTestCaseResults exec for case %d: %w", res.TestCaseIndex, err)
		}
	}
	return nil
}

func (r *pgSubmissionRepository) GetTestCaseResults(ctx context.Context, submissionID string) ([]model.TestCaseResult, error) {
	query := `SELECT id, submission_id, test_case_index, passed, is_public, stdout, expected_output,
                     stderr, compile_output, status, memory, time, created_at
              FROM test_case_results WHERE submission_id = $1 ORDER BY test_case_index ASC`
	rows, err := r.db.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetTestCaseResults query: %w", err)
	}
	defer rows.Close()

	var results []model.TestCaseResult
	for rows.Next() {
		var res model.TestCaseResult
		if err := rows.Scan(&res.ID, &res.SubmissionID, &res.TestCaseIndex, &res.Passed, &res.IsPublic,
			&res.Stdout, &res.Expected, &res.Stderr, &res.CompileOutput, &res.Status, &res.Memory, &res.Time, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.GetTestCaseResults scan: %w", err)
		}
		results = append(results, res)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetTestCaseResults rows.Err: %w", err)
	}
	return results, nil
}

func (r *pgSubmissionRepository) MarkProblemSolved(ctx context.Context, tx *sql.Tx, userID, problemID string) error {
	_, err := r.conn(tx).ExecContext(ctx,
		`INSERT INTO problems_solved (user_id, problem_id) VALUES ($1, $2) ON CONFLICT (user_id, problem_id) DO NOTHING`,
		userID, problemID)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.MarkProblemSolved: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) IsProblemSolved(ctx context.Context, userID, problemID string) (bool, error) {
	var solved bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM problems_solved WHERE user_id = $1 AND problem_id = $2)`,
		userID, problemID).Scan(&solved)
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.IsProblemSolved: %w", err)
	}
	return solved, nil
}
