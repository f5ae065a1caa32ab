package service

import (
	"context"
	"encoding/json"
	"testing"

	"leetcode_backend/internal/common"
	"leetcode_backend/internal/domain/model"
	"leetcode_backend/internal/platform/judge/judgetest"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit_AllAccepted(t *testing.T) {
	f := newFixture(t, withJudgeOptions(judgetest.WithReversedResults(), judgetest.WithPendingPolls(2)))
	ctx := context.Background()
	p := f.seedProblem(t, private("3", "3"), public("1", "1"), public("2", "2"))

	res, err := f.submissions.SubmitForScoring(ctx, "u1", SubmissionRequest{ProblemID: p.ID, Language: "python", SourceCode: srcEcho})
	require.NoError(t, err)

	assert.Equal(t, model.StatusAccepted, res.Status)
	assert.Equal(t, "3/3", res.TestCasesPassed)
	assert.Equal(t, "Python", res.Language)
	assert.Equal(t, "0.006 s", res.Performance.TotalTime)
	assert.Equal(t, "1.50 MB", res.Performance.TotalMemory)

	// Public cases go first; the private passing case is redacted.
	require.Len(t, res.Results, 3)
	require.NotNil(t, res.Results[0].Expected)
	assert.Equal(t, "1", *res.Results[0].Expected)
	assert.Nil(t, res.Results[2].Expected)
	assert.Nil(t, res.Results[2].Stdout)
	require.NotNil(t, res.Results[2].Memory)

	solved, err := f.store.IsProblemSolved(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.True(t, solved)

	sub, err := f.store.GetSubmissionByID(ctx, res.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3", sub.Stdin)
	assert.Equal(t, 71, sub.LanguageID)
	var stdout []string
	require.NoError(t, json.Unmarshal([]byte(sub.Stdout), &stdout))
	assert.Equal(t, []string{"1", "2", "3"}, stdout)

	stored, err := f.store.GetTestCaseResults(ctx, res.SubmissionID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	batches := f.judge.Batches()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 3)

	n, err := testutil.GatherAndCount(f.reg, "submissions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSubmit_RepeatedAcceptIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seedProblem(t, public("1", "1"))
	req := SubmissionRequest{ProblemID: p.ID, Language: "PYTHON", SourceCode: srcEcho}

	first, err := f.submissions.SubmitForScoring(ctx, "u1", req)
	require.NoError(t, err)
	second, err := f.submissions.SubmitForScoring(ctx, "u1", req)
	require.NoError(t, err)

	assert.NotEqual(t, first.SubmissionID, second.SubmissionID)
	assert.Equal(t, model.StatusAccepted, second.Status)
	assert.Equal(t, 1, f.store.SolvedCount())
}

func TestSubmit_WrongAnswerShowsFailingPrivateCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seedProblem(t, public("1", "1"), private("2", "2"), private("3", "3"))

	res, err := f.submissions.SubmitForScoring(ctx, "u1", SubmissionRequest{ProblemID: p.ID, Language: "CPP", SourceCode: srcWrongOn2})
	require.NoError(t, err)

	assert.Equal(t, model.StatusWrongAnswer, res.Status)
	assert.Equal(t, "2/3", res.TestCasesPassed)
	assert.Equal(t, "C++", res.Language)

	failing := res.Results[1]
	assert.False(t, failing.Passed)
	assert.Equal(t, "Wrong Answer", failing.Status)
	require.NotNil(t, failing.Expected)
	require.NotNil(t, failing.Stdout)
	assert.Equal(t, "2", *failing.Expected)
	assert.Equal(t, "nope", *failing.Stdout)
	assert.Nil(t, res.Results[2].Expected)

	assert.Equal(t, 0, f.store.SolvedCount())
}

func TestSubmit_CompilationError(t *testing.T) {
	f := newFixture(t)
	p := f.seedProblem(t, public("1", "1"))

	res, err := f.submissions.SubmitForScoring(context.Background(), "u1", SubmissionRequest{ProblemID: p.ID, Language: "JAVA", SourceCode: srcNoCompile})
	require.NoError(t, err)
	assert.Equal(t, model.StatusWrongAnswer, res.Status)
	assert.Equal(t, "Compilation Error", res.Results[0].Status)
	require.NotNil(t, res.Results[0].CompileOutput)
	assert.Nil(t, res.Results[0].Memory)
}

func TestSubmit_NoTestCases(t *testing.T) {
	f := newFixture(t)
	p := f.seedProblem(t)

	_, err := f.submissions.SubmitForScoring(context.Background(), "u1", SubmissionRequest{ProblemID: p.ID, Language: "PYTHON", SourceCode: srcEcho})
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Empty(t, f.judge.Batches())
}

func TestSubmit_LockHeld(t *testing.T) {
	f := newFixture(t, withLocker(heldLocker{}))
	p := f.seedProblem(t, public("1", "1"))

	_, err := f.submissions.SubmitForScoring(context.Background(), "u1", SubmissionRequest{ProblemID: p.ID, Language: "PYTHON", SourceCode: srcEcho})
	require.ErrorIs(t, err, common.ErrLockHeld)
	assert.Empty(t, f.judge.Batches())
}

func TestSubmit_JudgeFailureStoresNothing(t *testing.T) {
	f := newFixture(t)
	p := f.seedProblem(t, public("1", "1"))
	f.judge.FailPolls()

	_, err := f.submissions.SubmitForScoring(context.Background(), "u1", SubmissionRequest{ProblemID: p.ID, Language: "PYTHON", SourceCode: srcEcho})
	require.ErrorIs(t, err, common.ErrUpstreamJudge)
	assert.Equal(t, 0, f.store.SolvedCount())
	assert.Equal(t, 1, f.judge.PollCount())
}

func TestSubmit_RequestValidation(t *testing.T) {
	f := newFixture(t)
	p := f.seedProblem(t, public("1", "1"))
	ctx := context.Background()

	_, err := f.submissions.SubmitForScoring(ctx, "u1", SubmissionRequest{ProblemID: p.ID, Language: "COBOL", SourceCode: srcEcho})
	assert.ErrorIs(t, err, common.ErrUnsupportedLanguage)

	_, err = f.submissions.SubmitForScoring(ctx, "u1", SubmissionRequest{ProblemID: p.ID, Language: "PYTHON"})
	assert.ErrorIs(t, err, common.ErrBadRequest)

	_, err = f.submissions.SubmitForScoring(ctx, "u1", SubmissionRequest{ProblemID: "missing", Language: "PYTHON", SourceCode: srcEcho})
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.Empty(t, f.judge.Batches())
}

func TestRun_PublicCasesOnly(t *testing.T) {
	f := newFixture(t)
	p := f.seedProblem(t, public("2", "4"), private("5", "10"), public("3", "6"))

	res, err := f.submissions.RunAgainstPublicCases(context.Background(), "u1", SubmissionRequest{ProblemID: p.ID, Language: "JAVASCRIPT", SourceCode: srcDouble})
	require.NoError(t, err)

	assert.True(t, res.AllPassed)
	assert.Equal(t, 2, res.TotalCount)
	assert.Equal(t, "JavaScript", res.Language)
	for _, v := range res.Results {
		require.NotNil(t, v.Expected)
		require.NotNil(t, v.Stdout)
	}

	batches := f.judge.Batches()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 2)
	for _, sub := range batches[0] {
		assert.NotEqual(t, "5", sub.Stdin)
	}
	assert.Equal(t, 0, f.store.SolvedCount())
}

func TestRun_FailingCase(t *testing.T) {
	f := newFixture(t)
	p := f.seedProblem(t, public("1", "1"), public("2", "2"))

	res, err := f.submissions.RunAgainstPublicCases(context.Background(), "u1", SubmissionRequest{ProblemID: p.ID, Language: "PYTHON", SourceCode: srcWrongOn2})
	require.NoError(t, err)
	assert.False(t, res.AllPassed)
	assert.Equal(t, 1, res.PassedCount)
}

func TestRun_NoPublicCases(t *testing.T) {
	f := newFixture(t)
	p := f.seedProblem(t, private("1", "1"))

	_, err := f.submissions.RunAgainstPublicCases(context.Background(), "u1", SubmissionRequest{ProblemID: p.ID, Language: "PYTHON", SourceCode: srcEcho})
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Empty(t, f.judge.Batches())
}

func TestGetSubmission_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seedProblem(t, public("1", "1"), private("2", "2"))

	res, err := f.submissions.SubmitForScoring(ctx, "owner", SubmissionRequest{ProblemID: p.ID, Language: "PYTHON", SourceCode: srcEcho})
	require.NoError(t, err)

	got, err := f.submissions.GetSubmission(ctx, model.Identity{UserID: "owner", Role: model.RoleUser}, res.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, srcEcho, got.SourceCode)
	assert.Equal(t, "2/2", got.TestCasesPassed)
	require.Len(t, got.Results, 2)
	assert.NotNil(t, got.Results[0].Expected)
	assert.Nil(t, got.Results[1].Expected)
	assert.Equal(t, res.Performance, got.Performance)

	_, err = f.submissions.GetSubmission(ctx, model.Identity{UserID: "someone", Role: model.RoleUser}, res.SubmissionID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.submissions.GetSubmission(ctx, model.Identity{UserID: "admin", Role: model.RoleAdmin}, res.SubmissionID)
	assert.NoError(t, err)
}
