package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"leetcode_backend/internal/app/evaluator"
	"leetcode_backend/internal/common"
	"leetcode_backend/internal/domain/language"
	"leetcode_backend/internal/domain/model"
	"leetcode_backend/internal/domain/repository"
	"leetcode_backend/internal/platform/kv"
	"leetcode_backend/internal/platform/logger"
	"leetcode_backend/internal/platform/metrics"

	"github.com/google/uuid"
)

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	txm            repository.TxManager
	runner         *BatchRunner
	langs          *language.Registry
	locker         kv.Locker
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	txm repository.TxManager,
	runner *BatchRunner,
	langs *language.Registry,
	locker kv.Locker,
	m *metrics.Metrics,
	logger *slog.Logger,
) *SubmissionService {
	if locker == nil {
		locker = kv.NopLocker{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionService{
		submissionRepo: subRepo,
		problemRepo:    probRepo,
		txm:            txm,
		runner:         runner,
		langs:          langs,
		locker:         locker,
		metrics:        m,
		logger:         logger,
	}
}

type SubmissionRequest struct {
	ProblemID  string `json:"problem_id"`
	Language   string `json:"language"` // e.g. "PYTHON"
	SourceCode string `json:"source_code"`
}

type RunResult struct {
	AllPassed   bool             `json:"all_passed"`
	PassedCount int              `json:"passed_count"`
	TotalCount  int              `json:"total_count"`
	Language    string           `json:"language"`
	Results     []evaluator.View `json:"results"`
}

type SubmitResult struct {
	SubmissionID    string                 `json:"submission_id"`
	Status          model.SubmissionStatus `json:"status"`
	Language        string                 `json:"language"`
	TestCasesPassed string                 `json:"test_cases_passed"` // "passed/total"
	PassedCount     int                    `json:"passed_count"`
	TotalCount      int                    `json:"total_count"`
	Performance     evaluator.Performance  `json:"performance"`
	Results         []evaluator.View       `json:"results"`
	CreatedAt       time.Time              `json:"created_at"`
}

type SubmissionDetail struct {
	SubmitResult
	ProblemID  string `json:"problem_id"`
	SourceCode string `json:"source_code"`
}

// RunAgainstPublicCases judges the code against the problem's public test
// cases. Nothing is stored.
func (s *SubmissionService) RunAgainstPublicCases(ctx context.Context, userID string, req SubmissionRequest) (*RunResult, error) {
	langID, err := s.checkRequest(req)
	if err != nil {
		return nil, err
	}
	testCases, err := s.loadTestCases(ctx, req.ProblemID, true)
	if err != nil {
		return nil, err
	}

	cases, err := s.judgeCases(ctx, req.SourceCode, langID, testCases)
	if err != nil {
		return nil, err
	}

	allPassed := evaluator.AllPassed(cases)
	s.metrics.RunJudged(allPassed)
	logger.FromContext(ctx, s.logger).Info("run judged", "user_id", userID, "problem_id", req.ProblemID,
		"passed", evaluator.PassedCount(cases), "total", len(cases))

	return &RunResult{
		AllPassed:   allPassed,
		PassedCount: evaluator.PassedCount(cases),
		TotalCount:  len(cases),
		Language:    s.langs.NameFor(langID),
		Results:     evaluator.Views(cases, evaluator.CaseResult.Full),
	}, nil
}

// SubmitForScoring judges the code against every test case and stores the
// submission, its per-case results and, when all cases pass, the solved mark
// in one transaction. Only one scored submission per user and problem is
// judged at a time.
func (s *SubmissionService) SubmitForScoring(ctx context.Context, userID string, req SubmissionRequest) (*SubmitResult, error) {
	langID, err := s.checkRequest(req)
	if err != nil {
		return nil, err
	}
	testCases, err := s.loadTestCases(ctx, req.ProblemID, false)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, kv.SubmitLockKey(userID, req.ProblemID))
	if err != nil {
		return nil, err
	}
	defer release()

	cases, err := s.judgeCases(ctx, req.SourceCode, langID, testCases)
	if err != nil {
		return nil, err
	}

	allPassed := evaluator.AllPassed(cases)
	status := model.StatusWrongAnswer
	if allPassed {
		status = model.StatusAccepted
	}

	sub, err := buildSubmission(userID, req, langID, s.langs.NameFor(langID), status, testCases, cases)
	if err != nil {
		return nil, err
	}
	results := buildTestCaseResults(sub.ID, cases)

	err = s.txm.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.submissionRepo.CreateSubmission(ctx, tx, sub); err != nil {
			return common.Errorf("failed to create submission: %w", err)
		}
		if err := s.submissionRepo.CreateTestCaseResults(ctx, tx, results); err != nil {
			return common.Errorf("failed to store test case results: %w", err)
		}
		if allPassed {
			if err := s.submissionRepo.MarkProblemSolved(ctx, tx, userID, req.ProblemID); err != nil {
				return common.Errorf("failed to mark problem solved: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SubmissionJudged(string(status))
	logger.FromContext(ctx, s.logger).Info("submission judged", "submission_id", sub.ID, "user_id", userID,
		"problem_id", req.ProblemID, "status", status)

	return summarize(sub, cases), nil
}

// GetSubmission returns a stored submission with redacted per-case results.
// Only the owner and admins may read it; anyone else gets ErrNotFound.
func (s *SubmissionService) GetSubmission(ctx context.Context, caller model.Identity, submissionID string) (*SubmissionDetail, error) {
	sub, err := s.submissionRepo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, common.ErrNotFound
	}

	stored, err := s.submissionRepo.GetTestCaseResults(ctx, sub.ID)
	if err != nil {
		return nil, common.Errorf("failed to load results for submission %s: %w", sub.ID, err)
	}
	cases := make([]evaluator.CaseResult, len(stored))
	for i, r := range stored {
		cases[i] = evaluator.CaseResult{
			TestCase:      r.TestCaseIndex,
			Passed:        r.Passed,
			IsPublic:      r.IsPublic,
			Stdout:        r.Stdout,
			Expected:      r.Expected,
			Stderr:        r.Stderr,
			CompileOutput: r.CompileOutput,
			Status:        r.Status,
			Memory:        r.Memory,
			Time:          r.Time,
		}
	}

	return &SubmissionDetail{
		SubmitResult: *summarize(sub, cases),
		ProblemID:    sub.ProblemID,
		SourceCode:   sub.SourceCode,
	}, nil
}

func (s *SubmissionService) checkRequest(req SubmissionRequest) (int, error) {
	if strings.TrimSpace(req.ProblemID) == "" || strings.TrimSpace(req.SourceCode) == "" || strings.TrimSpace(req.Language) == "" {
		return 0, common.Errorf("problem_id, language and source_code are required: %w", common.ErrBadRequest)
	}
	langID, ok := s.langs.IDFor(req.Language)
	if !ok {
		return 0, common.Errorf("language %q: %w", req.Language, common.ErrUnsupportedLanguage)
	}
	return langID, nil
}

func (s *SubmissionService) loadTestCases(ctx context.Context, problemID string, publicOnly bool) ([]model.TestCase, error) {
	if _, err := s.problemRepo.FindProblemByID(ctx, problemID); err != nil {
		return nil, common.Errorf("problem %s: %w", problemID, err)
	}
	testCases, err := s.problemRepo.GetTestCasesByProblemID(ctx, problemID, publicOnly)
	if err != nil {
		return nil, common.Errorf("failed to get test cases for problem %s: %w", problemID, err)
	}
	if len(testCases) == 0 {
		kind := "test cases"
		if publicOnly {
			kind = "public test cases"
		}
		return nil, common.Errorf("problem %s has no %s: %w", problemID, kind, common.ErrNotFound)
	}
	return testCases, nil
}

func (s *SubmissionService) judgeCases(ctx context.Context, code string, langID int, testCases []model.TestCase) ([]evaluator.CaseResult, error) {
	results, err := s.runner.Run(ctx, submissionsFor(code, langID, testCases))
	if err != nil {
		return nil, err
	}
	cases := make([]evaluator.CaseResult, len(results))
	for i, res := range results {
		cases[i] = evaluator.Evaluate(i+1, res, testCases[i].Expected, testCases[i].IsPublic)
	}
	return cases, nil
}

func buildSubmission(
	userID string,
	req SubmissionRequest,
	langID int,
	langName string,
	status model.SubmissionStatus,
	testCases []model.TestCase,
	cases []evaluator.CaseResult,
) (*model.Submission, error) {
	inputs := make([]string, len(testCases))
	for i, tc := range testCases {
		inputs[i] = tc.Input
	}
	column := func(f func(evaluator.CaseResult) string) []string {
		out := make([]string, len(cases))
		for i, c := range cases {
			out[i] = f(c)
		}
		return out
	}

	arrays := map[string][]string{
		"stdout":         column(func(c evaluator.CaseResult) string { return c.Stdout }),
		"stderr":         column(func(c evaluator.CaseResult) string { return c.Stderr }),
		"compile_output": column(func(c evaluator.CaseResult) string { return c.CompileOutput }),
		"memory":         column(func(c evaluator.CaseResult) string { return c.Memory }),
		"time":           column(func(c evaluator.CaseResult) string { return c.Time }),
	}
	encoded := make(map[string]string, len(arrays))
	for k, v := range arrays {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		encoded[k] = string(b)
	}

	return &model.Submission{
		ID:            uuid.NewString(),
		UserID:        userID,
		ProblemID:     req.ProblemID,
		SourceCode:    req.SourceCode,
		Language:      langName,
		LanguageID:    langID,
		Stdin:         strings.Join(inputs, "\n"),
		Stdout:        encoded["stdout"],
		Stderr:        encoded["stderr"],
		CompileOutput: encoded["compile_output"],
		Status:        status,
		Memory:        encoded["memory"],
		Time:          encoded["time"],
	}, nil
}

func buildTestCaseResults(submissionID string, cases []evaluator.CaseResult) []model.TestCaseResult {
	out := make([]model.TestCaseResult, len(cases))
	for i, c := range cases {
		out[i] = model.TestCaseResult{
			ID:            uuid.NewString(),
			SubmissionID:  submissionID,
			TestCaseIndex: c.TestCase,
			Passed:        c.Passed,
			IsPublic:      c.IsPublic,
			Stdout:        c.Stdout,
			Expected:      c.Expected,
			Stderr:        c.Stderr,
			CompileOutput: c.CompileOutput,
			Status:        c.Status,
			Memory:        c.Memory,
			Time:          c.Time,
		}
	}
	return out
}

func summarize(sub *model.Submission, cases []evaluator.CaseResult) *SubmitResult {
	passed := evaluator.PassedCount(cases)
	return &SubmitResult{
		SubmissionID:    sub.ID,
		Status:          sub.Status,
		Language:        sub.Language,
		TestCasesPassed: fmt.Sprintf("%d/%d", passed, len(cases)),
		PassedCount:     passed,
		TotalCount:      len(cases),
		Performance:     evaluator.Aggregate(cases),
		Results:         evaluator.Views(cases, evaluator.CaseResult.Redacted),
		CreatedAt:       sub.CreatedAt,
	}
}
