package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"leetcode_backend/internal/common"
	"leetcode_backend/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoProblem() CreateProblemRequest {
	return CreateProblemRequest{
		Title:       "Echo Input",
		Number:      1,
		Description: "Print the input.",
		Difficulty:  model.DifficultyEasy,
		Tags:        []string{"io"},
		CodeSnippets: map[string]string{
			"python": "# read and print",
		},
		ReferenceSolutions: map[string]string{
			"PYTHON": srcEcho,
			"CPP":    srcEcho,
		},
		TestCases: []TestCaseInput{
			{Input: "1", Output: "1", IsPublic: true},
			{Input: "2", Output: "2"},
			{Input: "3", Output: "3"},
		},
	}
}

func TestValidate_CreatesProblem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.problems.ValidateAndCreateProblem(ctx, "admin-1", echoProblem())
	require.NoError(t, err)
	assert.Equal(t, "echo-input", p.Slug)
	assert.Equal(t, "admin-1", p.CreatedByID)
	assert.Contains(t, p.CodeSnippets, "PYTHON")
	require.Len(t, p.TestCases, 3)

	// One batch per reference solution, each carrying every test case.
	batches := f.judge.Batches()
	require.Len(t, batches, 2)
	for _, b := range batches {
		require.Len(t, b, 3)
		require.NotNil(t, b[1].ExpectedOutput)
		assert.Equal(t, "2", *b[1].ExpectedOutput)
	}

	stored, err := f.store.FindProblemBySlug(ctx, "echo-input")
	require.NoError(t, err)
	cases, err := f.store.GetTestCasesByProblemID(ctx, stored.ID, false)
	require.NoError(t, err)
	assert.Len(t, cases, 3)
}

func TestValidate_ConcurrentLanguages(t *testing.T) {
	f := newFixture(t, func(c *fixtureConfig) { c.concurrency = 4 })
	req := echoProblem()
	req.ReferenceSolutions["JAVA"] = srcEcho
	req.ReferenceSolutions["JAVASCRIPT"] = srcEcho

	_, err := f.problems.ValidateAndCreateProblem(context.Background(), "admin", req)
	require.NoError(t, err)
	assert.Len(t, f.judge.Batches(), 4)
}

func TestValidate_ReferenceFailsOnSecondCase(t *testing.T) {
	f := newFixture(t)
	req := echoProblem()
	req.ReferenceSolutions = map[string]string{"PYTHON": srcWrongOn2}

	_, err := f.problems.ValidateAndCreateProblem(context.Background(), "admin", req)
	require.Error(t, err)

	var refErr *common.ReferenceSolutionFailedError
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, "PYTHON", refErr.Language)
	assert.Equal(t, 2, refErr.TestCase)
	assert.Equal(t, "Wrong Answer", refErr.Status)
	assert.Equal(t, "nope", refErr.Stdout)
	assert.ErrorIs(t, err, common.ErrValidation)

	assert.Equal(t, 0, f.store.ProblemCount())
}

func TestValidate_CompileErrorReportsOutput(t *testing.T) {
	f := newFixture(t)
	req := echoProblem()
	req.ReferenceSolutions = map[string]string{"JAVA": srcNoCompile}

	_, err := f.problems.ValidateAndCreateProblem(context.Background(), "admin", req)
	var refErr *common.ReferenceSolutionFailedError
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, 1, refErr.TestCase)
	assert.Equal(t, "Compilation Error", refErr.Status)
	assert.NotEmpty(t, refErr.CompileOutput)
	assert.Equal(t, 0, f.store.ProblemCount())
}

func TestValidate_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.problems.ValidateAndCreateProblem(ctx, "admin", echoProblem())
	require.NoError(t, err)
	before := len(f.judge.Batches())

	sameNumber := echoProblem()
	sameNumber.Title = "Another Title"
	_, err = f.problems.ValidateAndCreateProblem(ctx, "admin", sameNumber)
	require.ErrorIs(t, err, common.ErrConflict)

	sameTitle := echoProblem()
	sameTitle.Number = 2
	_, err = f.problems.ValidateAndCreateProblem(ctx, "admin", sameTitle)
	require.ErrorIs(t, err, common.ErrConflict)

	assert.Len(t, f.judge.Batches(), before)
}

func TestValidate_RejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		mod  func(*CreateProblemRequest)
		want error
	}{
		{"no test cases", func(r *CreateProblemRequest) { r.TestCases = nil }, common.ErrBadRequest},
		{"no reference solution", func(r *CreateProblemRequest) { r.ReferenceSolutions = nil }, common.ErrBadRequest},
		{"blank title", func(r *CreateProblemRequest) { r.Title = "  " }, common.ErrBadRequest},
		{"zero number", func(r *CreateProblemRequest) { r.Number = 0 }, common.ErrBadRequest},
		{"bad difficulty", func(r *CreateProblemRequest) { r.Difficulty = "Impossible" }, common.ErrBadRequest},
		{"empty reference", func(r *CreateProblemRequest) { r.ReferenceSolutions = map[string]string{"PYTHON": " "} }, common.ErrBadRequest},
		{"unknown language", func(r *CreateProblemRequest) { r.ReferenceSolutions = map[string]string{"BRAINFUCK": "+"} }, common.ErrUnsupportedLanguage},
		{"unknown snippet language", func(r *CreateProblemRequest) { r.CodeSnippets = map[string]string{"RUST": "fn main(){}"} }, common.ErrUnsupportedLanguage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := echoProblem()
			tt.mod(&req)
			_, err := f.problems.ValidateAndCreateProblem(ctx, "admin", req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, f.judge.Batches())
	assert.Equal(t, 0, f.store.ProblemCount())
}

func TestGetProblemDetails_HidesPrivateCases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.problems.ValidateAndCreateProblem(ctx, "admin", echoProblem())
	require.NoError(t, err)

	p, err := f.problems.GetProblemDetails(ctx, "echo-input", model.RoleUser)
	require.NoError(t, err)
	require.Len(t, p.TestCases, 1)
	assert.True(t, p.TestCases[0].IsPublic)
	assert.Nil(t, p.ReferenceSolutions)

	p, err = f.problems.GetProblemDetails(ctx, "echo-input", model.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, p.TestCases, 3)

	_, err = f.problems.GetProblemDetails(ctx, "missing", model.RoleUser)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListProblems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.problems.ValidateAndCreateProblem(ctx, "admin", echoProblem())
	require.NoError(t, err)

	problems, total, err := f.problems.ListProblems(ctx, ListProblemsQuery{Tag: "io"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, problems, 1)
	assert.Equal(t, "echo-input", problems[0].Slug)

	_, total, err = f.problems.ListProblems(ctx, ListProblemsQuery{Difficulty: model.DifficultyHard})
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	_, _, err = f.problems.ListProblems(ctx, ListProblemsQuery{Difficulty: "Trivial"})
	assert.ErrorIs(t, err, common.ErrBadRequest)

	_, _, err = f.problems.ListProblems(ctx, ListProblemsQuery{Page: math.MaxInt, PageSize: 100})
	assert.ErrorIs(t, err, common.ErrBadRequest)

	problems, total, err = f.problems.ListProblems(ctx, ListProblemsQuery{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Empty(t, problems)
}
