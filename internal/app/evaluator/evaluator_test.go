package evaluator

import (
	"testing"

	"leetcode_backend/internal/platform/judge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func accepted(stdout string) judge.Result {
	return judge.Result{
		Status: judge.Status{ID: judge.StatusAccepted, Description: "Accepted"},
		Stdout: ptr(stdout),
		Time:   ptr("0.002"),
		Memory: ptr(1536),
	}
}

func TestEvaluate_TrimsBeforeComparing(t *testing.T) {
	c := Evaluate(1, accepted("  42\n"), "42\n\n", true)
	assert.True(t, c.Passed)
	assert.Equal(t, StatusAccepted, c.Status)
	assert.Equal(t, "42", c.Stdout)
	assert.Equal(t, "1.50 MB", c.Memory)
	assert.Equal(t, "0.002 s", c.Time)

	c = Evaluate(2, accepted("42 "), "43", true)
	assert.False(t, c.Passed)
	assert.Equal(t, StatusWrongAnswer, c.Status)
}

func TestEvaluate_KeepsSpecificVerdict(t *testing.T) {
	res := judge.Result{
		Status:        judge.Status{ID: judge.StatusCompilationError, Description: "Compilation Error"},
		CompileOutput: ptr("main.cpp:1: error"),
	}
	c := Evaluate(1, res, "1", false)
	assert.False(t, c.Passed)
	assert.Equal(t, "Compilation Error", c.Status)
	assert.Empty(t, c.Memory)
	assert.Empty(t, c.Time)
}

func TestRedacted_PrivatePassingHidesOutputs(t *testing.T) {
	c := Evaluate(1, accepted("ok"), "ok", false)
	v := c.Redacted()

	assert.True(t, v.Passed)
	assert.Equal(t, StatusAccepted, v.Status)
	require.NotNil(t, v.Memory)
	require.NotNil(t, v.Time)
	assert.Nil(t, v.Stdout)
	assert.Nil(t, v.Expected)
	assert.Nil(t, v.Stderr)
	assert.Nil(t, v.CompileOutput)
}

func TestRedacted_PrivateFailingShowsOutputs(t *testing.T) {
	res := accepted("wrong")
	res.Stderr = ptr("warning: something")
	res.CompileOutput = ptr("note: compiled")
	v := Evaluate(3, res, "right", false).Redacted()

	assert.False(t, v.Passed)
	require.NotNil(t, v.Stdout)
	require.NotNil(t, v.Expected)
	require.NotNil(t, v.Stderr)
	require.NotNil(t, v.CompileOutput)
	assert.Equal(t, "wrong", *v.Stdout)
	assert.Equal(t, "right", *v.Expected)
	assert.Equal(t, 3, v.TestCase)
}

func TestRedacted_PublicAlwaysShowsOutputs(t *testing.T) {
	v := Evaluate(1, accepted("ok"), "ok", true).Redacted()
	require.NotNil(t, v.Stdout)
	require.NotNil(t, v.Expected)
	assert.Equal(t, "ok", *v.Expected)
}

func TestFull_IgnoresVisibility(t *testing.T) {
	v := Evaluate(1, accepted("ok"), "ok", false).Full()
	require.NotNil(t, v.Expected)
	assert.Equal(t, "ok", *v.Expected)
}

func TestAllPassed(t *testing.T) {
	cases := []CaseResult{
		Evaluate(1, accepted("a"), "a", true),
		Evaluate(2, accepted("b"), "b", true),
		Evaluate(3, accepted("c"), "x", false),
	}
	assert.False(t, AllPassed(cases))
	assert.Equal(t, 2, PassedCount(cases))

	withDetail := 0
	for _, v := range Views(cases, CaseResult.Redacted) {
		if !v.Passed && v.Stdout != nil {
			withDetail++
		}
	}
	assert.Equal(t, 1, withDetail)

	assert.True(t, AllPassed(cases[:2]))
	assert.False(t, AllPassed(nil))
}

func TestAggregate(t *testing.T) {
	cases := []CaseResult{
		{Time: "0.002 s", Memory: "512.00 KB"},
		{Time: "0.004 s", Memory: "1.50 MB"},
		{Time: "", Memory: ""},
		{Time: "broken", Memory: "lots"},
	}
	p := Aggregate(cases)
	assert.Equal(t, "0.006 s", p.TotalTime)
	assert.Equal(t, "2.00 MB", p.TotalMemory)

	empty := Aggregate(nil)
	assert.Equal(t, "0.000 s", empty.TotalTime)
	assert.Equal(t, "0.00 KB", empty.TotalMemory)
}
