// Package evaluator classifies judge results against expected output and
// builds the per-case views handed to clients.
package evaluator

import (
	"strings"

	"leetcode_backend/internal/common/units"
	"leetcode_backend/internal/platform/judge"
)

const (
	StatusAccepted    = "Accepted"
	StatusWrongAnswer = "Wrong Answer"
)

// CaseResult is the evaluated outcome of one test case. Memory and Time are
// display strings, empty when the judge reported nothing.
type CaseResult struct {
	TestCase      int // 1-based position in the submitted batch
	Passed        bool
	IsPublic      bool
	Stdout        string
	Expected      string
	Stderr        string
	CompileOutput string
	Status        string
	Memory        string
	Time          string
}

// Evaluate compares trimmed stdout with trimmed expected output.
func Evaluate(testCase int, res judge.Result, expected string, isPublic bool) CaseResult {
	stdout := strings.TrimSpace(res.StdoutText())
	exp := strings.TrimSpace(expected)
	passed := stdout == exp

	c := CaseResult{
		TestCase:      testCase,
		Passed:        passed,
		IsPublic:      isPublic,
		Stdout:        stdout,
		Expected:      exp,
		Stderr:        res.StderrText(),
		CompileOutput: res.CompileOutputText(),
		Status:        caseStatus(passed, res),
	}
	c.Memory, _ = units.FormatMemoryKB(res.Memory)
	c.Time, _ = units.FormatSeconds(res.Time)
	return c
}

// A failing case keeps the judge's verdict when it is more specific than a
// plain output mismatch (compile error, runtime error, time limit).
func caseStatus(passed bool, res judge.Result) string {
	if passed {
		return StatusAccepted
	}
	switch res.Status.ID {
	case judge.StatusAccepted, judge.StatusWrongAnswer, 0:
		return StatusWrongAnswer
	}
	return res.Description()
}

// View is the client-facing shape of a CaseResult. Nil fields are omitted.
type View struct {
	TestCase      int     `json:"test_case"`
	Passed        bool    `json:"passed"`
	Status        string  `json:"status"`
	Memory        *string `json:"memory,omitempty"`
	Time          *string `json:"time,omitempty"`
	Stdout        *string `json:"stdout,omitempty"`
	Expected      *string `json:"expected,omitempty"`
	Stderr        *string `json:"stderr,omitempty"`
	CompileOutput *string `json:"compile_output,omitempty"`
}

// Redacted hides outputs of private cases that passed. A failing private case
// exposes its details so the author can debug it.
func (c CaseResult) Redacted() View {
	v := c.base()
	if c.IsPublic || !c.Passed {
		c.fillOutputs(&v)
	}
	return v
}

// Full includes every field regardless of visibility.
func (c CaseResult) Full() View {
	v := c.base()
	c.fillOutputs(&v)
	return v
}

func (c CaseResult) base() View {
	return View{
		TestCase: c.TestCase,
		Passed:   c.Passed,
		Status:   c.Status,
		Memory:   optional(c.Memory),
		Time:     optional(c.Time),
	}
}

func (c CaseResult) fillOutputs(v *View) {
	stdout, expected := c.Stdout, c.Expected
	v.Stdout = &stdout
	v.Expected = &expected
	v.Stderr = optional(c.Stderr)
	v.CompileOutput = optional(c.CompileOutput)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// AllPassed is false for an empty set; zero test cases is never a pass.
func AllPassed(cases []CaseResult) bool {
	if len(cases) == 0 {
		return false
	}
	for _, c := range cases {
		if !c.Passed {
			return false
		}
	}
	return true
}

func PassedCount(cases []CaseResult) int {
	n := 0
	for _, c := range cases {
		if c.Passed {
			n++
		}
	}
	return n
}

type Performance struct {
	TotalTime   string `json:"total_time"`
	TotalMemory string `json:"total_memory"`
}

// Aggregate sums time and memory over the cases. Missing or malformed values
// count as zero.
func Aggregate(cases []CaseResult) Performance {
	var sec, kb float64
	for _, c := range cases {
		sec += units.ToSeconds(c.Time)
		kb += units.ToKB(c.Memory)
	}
	return Performance{
		TotalTime:   units.FormatTotalSeconds(sec),
		TotalMemory: units.FormatKB(kb),
	}
}

// Views maps cases through f, preserving order.
func Views(cases []CaseResult, f func(CaseResult) View) []View {
	out := make([]View, len(cases))
	for i, c := range cases {
		out[i] = f(c)
	}
	return out
}
