package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"leetcode_backend/internal/common"
	"leetcode_backend/internal/domain/language"
	"leetcode_backend/internal/domain/model"
	"leetcode_backend/internal/domain/repository"
	"leetcode_backend/internal/platform/judge"
	"leetcode_backend/internal/platform/logger"
	"leetcode_backend/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"
)

type ProblemService struct {
	problemRepo repository.ProblemRepository
	txm         repository.TxManager
	runner      *BatchRunner
	langs       *language.Registry
	metrics     *metrics.Metrics
	logger      *slog.Logger

	// Reference solutions judged at once.
	concurrency int
}

func NewProblemService(
	problemRepo repository.ProblemRepository,
	txm repository.TxManager,
	runner *BatchRunner,
	langs *language.Registry,
	m *metrics.Metrics,
	logger *slog.Logger,
	concurrency int,
) *ProblemService {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProblemService{
		problemRepo: problemRepo,
		txm:         txm,
		runner:      runner,
		langs:       langs,
		metrics:     m,
		logger:      logger,
		concurrency: concurrency,
	}
}

type TestCaseInput struct {
	Input    string `json:"input"`
	Output   string `json:"output"`
	IsPublic bool   `json:"is_public"`
}

type CreateProblemRequest struct {
	Title       string                  `json:"title"`
	Number      int                     `json:"number"`
	Description string                  `json:"description"`
	Difficulty  model.ProblemDifficulty `json:"difficulty"`
	Tags        []string                `json:"tags"`
	Constraints *string                 `json:"constraints,omitempty"`
	// Keyed by language name.
	CodeSnippets       map[string]string `json:"code_snippets"`
	ReferenceSolutions map[string]string `json:"reference_solutions"`
	TestCases          []TestCaseInput   `json:"test_cases"`
}

// ValidateAndCreateProblem judges every reference solution against every test
// case and stores the problem only if all of them are accepted. The problem
// and its test cases are written in one transaction.
func (s *ProblemService) ValidateAndCreateProblem(ctx context.Context, userID string, req CreateProblemRequest) (*model.Problem, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.checkCreateRequest(req); err != nil {
		return nil, err
	}

	exists, err := s.problemRepo.ExistsByTitleOrNumber(ctx, req.Title, req.Number)
	if err != nil {
		return nil, common.Errorf("failed to check for duplicate problem: %w", err)
	}
	if exists {
		return nil, common.Errorf("problem with title %q or number %d already exists: %w", req.Title, req.Number, common.ErrConflict)
	}

	testCases := make([]model.TestCase, len(req.TestCases))
	for i, tc := range req.TestCases {
		testCases[i] = model.TestCase{
			ID:       uuid.NewString(),
			Input:    tc.Input,
			Expected: tc.Output,
			IsPublic: tc.IsPublic,
		}
	}

	if err := s.validateReferenceSolutions(ctx, req.ReferenceSolutions, testCases); err != nil {
		s.metrics.ProblemValidated(false)
		return nil, err
	}
	s.metrics.ProblemValidated(true)

	problem := &model.Problem{
		ID:                 uuid.NewString(),
		Number:             req.Number,
		Title:              req.Title,
		Slug:               problemSlug(req.Title, req.Number),
		Description:        req.Description,
		Difficulty:         req.Difficulty,
		Tags:               req.Tags,
		Constraints:        req.Constraints,
		CodeSnippets:       normalizeLanguageKeys(req.CodeSnippets),
		ReferenceSolutions: normalizeLanguageKeys(req.ReferenceSolutions),
		CreatedByID:        userID,
	}
	if problem.Tags == nil {
		problem.Tags = []string{}
	}

	err = s.txm.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.problemRepo.CreateProblem(ctx, tx, problem); err != nil {
			return common.Errorf("failed to create problem in DB: %w", err)
		}
		if err := s.problemRepo.AddTestCasesToProblem(ctx, tx, problem.ID, testCases); err != nil {
			return common.Errorf("failed to add test cases to problem: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	problem.TestCases = testCases

	logger.FromContext(ctx, s.logger).Info("problem created", "problem_id", problem.ID, "slug", problem.Slug,
		"test_cases", len(testCases), "languages", len(req.ReferenceSolutions))
	return problem, nil
}

func (s *ProblemService) checkCreateRequest(req CreateProblemRequest) error {
	var missing []string
	if req.Title == "" {
		missing = append(missing, "title")
	}
	if req.Number <= 0 {
		missing = append(missing, "number")
	}
	if !req.Difficulty.Valid() {
		missing = append(missing, "difficulty")
	}
	if len(req.TestCases) == 0 {
		missing = append(missing, "test_cases")
	}
	if len(req.ReferenceSolutions) == 0 {
		missing = append(missing, "reference_solutions")
	}
	if len(missing) > 0 {
		return common.Errorf("missing or invalid fields: %s: %w", strings.Join(missing, ", "), common.ErrBadRequest)
	}

	for lang, code := range req.ReferenceSolutions {
		if _, ok := s.langs.IDFor(lang); !ok {
			return common.Errorf("reference solution language %q: %w", lang, common.ErrUnsupportedLanguage)
		}
		if strings.TrimSpace(code) == "" {
			return common.Errorf("reference solution for %s is empty: %w", lang, common.ErrBadRequest)
		}
	}
	for lang := range req.CodeSnippets {
		if _, ok := s.langs.IDFor(lang); !ok {
			return common.Errorf("code snippet language %q: %w", lang, common.ErrUnsupportedLanguage)
		}
	}
	return nil
}

// validateReferenceSolutions returns the first *common.ReferenceSolutionFailedError
// found. A failure cancels the languages still being judged.
func (s *ProblemService) validateReferenceSolutions(ctx context.Context, solutions map[string]string, testCases []model.TestCase) error {
	langs := make([]string, 0, len(solutions))
	for lang := range solutions {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, lang := range langs {
		g.Go(func() error {
			return s.validateOne(gctx, lang, solutions[lang], testCases)
		})
	}
	return g.Wait()
}

func (s *ProblemService) validateOne(ctx context.Context, lang, code string, testCases []model.TestCase) error {
	langID, _ := s.langs.IDFor(lang)
	results, err := s.runner.Run(ctx, submissionsFor(code, langID, testCases))
	if err != nil {
		return fmt.Errorf("validate %s reference solution: %w", lang, err)
	}
	for i, res := range results {
		if res.Status.ID == judge.StatusAccepted {
			continue
		}
		logger.FromContext(ctx, s.logger).Warn("reference solution rejected", "language", lang, "test_case", i+1, "status", res.Description())
		return &common.ReferenceSolutionFailedError{
			Language:      strings.ToUpper(lang),
			TestCase:      i + 1,
			Status:        res.Description(),
			Stdout:        res.StdoutText(),
			Stderr:        res.StderrText(),
			CompileOutput: res.CompileOutputText(),
		}
	}
	return nil
}

// GetProblemDetails returns the problem with the test cases the caller may see:
// every case for admins, public cases for everyone else.
func (s *ProblemService) GetProblemDetails(ctx context.Context, problemSlug string, userRole string) (*model.Problem, error) {
	problem, err := s.problemRepo.FindProblemBySlug(ctx, problemSlug)
	if err != nil {
		return nil, err
	}

	isAdmin := userRole == model.RoleAdmin
	testCases, err := s.problemRepo.GetTestCasesByProblemID(ctx, problem.ID, !isAdmin)
	if err != nil {
		return nil, common.Errorf("failed to fetch test cases for problem %s: %w", problem.ID, err)
	}
	problem.TestCases = testCases
	if !isAdmin {
		problem.ReferenceSolutions = nil
	}
	return problem, nil
}

// maxListPage keeps (page-1)*pageSize far from overflowing.
const maxListPage = 1_000_000

type ListProblemsQuery struct {
	Page       int // 1-based
	PageSize   int
	Difficulty model.ProblemDifficulty
	Tag        string
}

func (s *ProblemService) ListProblems(ctx context.Context, q ListProblemsQuery) ([]model.Problem, int, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Page > maxListPage {
		return nil, 0, common.Errorf("page %d exceeds %d: %w", q.Page, maxListPage, common.ErrBadRequest)
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Difficulty != "" && !q.Difficulty.Valid() {
		return nil, 0, common.Errorf("unknown difficulty %q: %w", q.Difficulty, common.ErrBadRequest)
	}

	problems, total, err := s.problemRepo.ListProblems(ctx, repository.ProblemFilter{
		Difficulty: q.Difficulty,
		Tag:        q.Tag,
		Limit:      q.PageSize,
		Offset:     (q.Page - 1) * q.PageSize,
	})
	if err != nil {
		return nil, 0, common.Errorf("failed to list problems: %w", err)
	}
	for i := range problems {
		problems[i].ReferenceSolutions = nil
	}
	return problems, total, nil
}

func problemSlug(title string, number int) string {
	if s := slug.Make(title); s != "" {
		return s
	}
	return fmt.Sprintf("problem-%d", number)
}

func normalizeLanguageKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out
}
