package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"leetcode_backend/internal/common"
	"leetcode_backend/internal/domain/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type ProblemRepository interface {
	CreateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	FindProblemByID(ctx context.Context, id string) (*model.Problem, error)
	FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error)
	// ExistsByTitleOrNumber reports whether any problem already uses the
	// title or the number.
	ExistsByTitleOrNumber(ctx context.Context, title string, number int) (bool, error)
	// ListProblems returns one page ordered by number and the total match count.
	ListProblems(ctx context.Context, filter ProblemFilter) ([]model.Problem, int, error)

	AddTestCasesToProblem(ctx context.Context, tx *sql.Tx, problemID string, testCases []model.TestCase) error
	// GetTestCasesByProblemID returns public cases first, then by sort order.
	GetTestCasesByProblemID(ctx context.Context, problemID string, publicOnly bool) ([]model.TestCase, error)
}

type ProblemFilter struct {
	Difficulty model.ProblemDifficulty // empty matches all
	Tag        string                  // empty matches all
	Limit      int
	Offset     int
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) CreateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	tags, snippets, solutions, err := encodeProblemJSON(p)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}

	query := `INSERT INTO problems (id, number, title, slug, description, difficulty, tags, constraints, code_snippets, reference_solutions, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING created_at, updated_at`
	args := []any{p.ID, p.Number, p.Title, p.Slug, p.Description, p.Difficulty, tags, p.Constraints, snippets, solutions, p.CreatedByID}

	var row *sql.Row
	if tx != nil {
		row = tx.QueryRowContext(ctx, query, args...)
	} else {
		row = r.db.QueryRowContext(ctx, query, args...)
	}
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("problem with this title, number or slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}
	return nil
}

const problemColumns = `id, number, title, slug, description, difficulty, tags, constraints, code_snippets, reference_solutions, created_by, created_at, updated_at`

func (r *pgProblemRepository) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrNotFound // ids are UUID columns
	}
	p, err := scanProblem(r.db.QueryRowContext(ctx, `SELECT `+problemColumns+` FROM problems WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindProblemByID: %w", err)
	}
	return p, nil
}

func (r *pgProblemRepository) FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	p, err := scanProblem(r.db.QueryRowContext(ctx, `SELECT `+problemColumns+` FROM problems WHERE slug = $1`, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindProblemBySlug: %w", err)
	}
	return p, nil
}

func (r *pgProblemRepository) ExistsByTitleOrNumber(ctx context.Context, title string, number int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM problems WHERE title = $1 OR number = $2)`, title, number,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgProblemRepository.ExistsByTitleOrNumber: %w", err)
	}
	return exists, nil
}

func (r *pgProblemRepository) ListProblems(ctx context.Context, filter ProblemFilter) ([]model.Problem, int, error) {
	var conditions []string
	var args []any
	argID := 1

	if filter.Difficulty != "" {
		conditions = append(conditions, fmt.Sprintf("difficulty = $%d", argID))
		args = append(args, filter.Difficulty)
		argID++
	}
	if filter.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("tags @> jsonb_build_array($%d::text)", argID))
		args = append(args, filter.Tag)
		argID++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems count: %w", err)
	}

	query := `SELECT ` + problemColumns + ` FROM problems` + where +
		fmt.Sprintf(" ORDER BY number ASC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems query: %w", err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems scan: %w", err)
		}
		problems = append(problems, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems rows.Err: %w", err)
	}
	return problems, total, nil
}

func (r *pgProblemRepository) AddTestCasesToProblem(ctx context.Context, tx *sql.Tx, problemID string, testCases []model.TestCase) error {
	if len(testCases) == 0 {
		return nil
	}
	if tx == nil {
		return fmt.Errorf("pgProblemRepository.AddTestCasesToProblem: transaction required")
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO test_cases (id, problem_id, input, expected_output, is_public, sort_order) VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.AddTestCasesToProblem prepare: %w", err)
	}
	defer stmt.Close()

	for i := range testCases {
		tc := &testCases[i]
		tc.ProblemID = problemID
		tc.SortOrder = i + 1
		if _, err := stmt.ExecContext(ctx, tc.ID, problemID, tc.Input, tc.Expected, tc.IsPublic, tc.SortOrder); err != nil {
			return fmt.Errorf("pgProblemRepository.AddTestCasesToProblem exec for test case %s: %w", tc.ID, err)
		}
	}
	return nil
}

func (r *pgProblemRepository) GetTestCasesByProblemID(ctx context.Context, problemID string, publicOnly bool) ([]model.TestCase, error) {
	query := `SELECT id, problem_id, input, expected_output, is_public, sort_order, created_at
              FROM test_cases WHERE problem_id = $1 AND (is_public OR NOT $2)
              ORDER BY is_public DESC, sort_order ASC`
	rows, err := r.db.QueryContext(ctx, query, problemID, publicOnly)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetTestCasesByProblemID query: %w", err)
	}
	defer rows.Close()

	var testCases []model.TestCase
	for rows.Next() {
		var tc model.TestCase
		if err := rows.Scan(&tc.ID, &tc.ProblemID, &tc.Input, &tc.Expected, &tc.IsPublic, &tc.SortOrder, &tc.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.GetTestCasesByProblemID scan: %w", err)
		}
		testCases = append(testCases, tc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetTestCasesByProblemID rows.Err: %w", err)
	}
	return testCases, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProblem(row scanner) (*model.Problem, error) {
	p := &model.Problem{}
	var tags, snippets, solutions []byte
	err := row.Scan(&p.ID, &p.Number, &p.Title, &p.Slug, &p.Description, &p.Difficulty,
		&tags, &p.Constraints, &snippets, &solutions, &p.CreatedByID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tags, &p.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal(snippets, &p.CodeSnippets); err != nil {
		return nil, fmt.Errorf("decode code_snippets: %w", err)
	}
	if err := json.Unmarshal(solutions, &p.ReferenceSolutions); err != nil {
		return nil, fmt.Errorf("decode reference_solutions: %w", err)
	}
	return p, nil
}

func encodeProblemJSON(p *model.Problem) (tags, snippets, solutions string, err error) {
	t := p.Tags
	if t == nil {
		t = []string{}
	}
	enc := func(v any) string {
		if err != nil {
			return ""
		}
		var b []byte
		b, err = json.Marshal(v)
		return string(b)
	}
	tags = enc(t)
	snippets = enc(nonNilMap(p.CodeSnippets))
	solutions = enc(nonNilMap(p.ReferenceSolutions))
	return tags, snippets, solutions, err
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
