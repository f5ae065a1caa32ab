package model

import "time"

type SubmissionStatus string

const (
	StatusAccepted    SubmissionStatus = "Accepted"
	StatusWrongAnswer SubmissionStatus = "WrongAnswer"
)

// Submission is written once per scored submit and never updated. Stdout,
// Stderr, CompileOutput, Memory and Time hold JSON arrays with one entry per
// test case.
type Submission struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user_id"`
	ProblemID     string           `json:"problem_id"`
	SourceCode    string           `json:"source_code"`
	Language      string           `json:"language"`
	LanguageID    int              `json:"language_id"`
	Stdin         string           `json:"stdin"`
	Stdout        string           `json:"stdout"`
	Stderr        string           `json:"stderr"`
	CompileOutput string           `json:"compile_output"`
	Status        SubmissionStatus `json:"status"`
	Memory        string           `json:"memory"`
	Time          string           `json:"time"`
	CreatedAt     time.Time        `json:"created_at"`
}

type TestCaseResult struct {
	ID            string    `json:"id"`
	SubmissionID  string    `json:"submission_id"`
	TestCaseIndex int       `json:"test_case"` // 1-based
	Passed        bool      `json:"passed"`
	IsPublic      bool      `json:"is_public"`
	Stdout        string    `json:"stdout"`
	Expected      string    `json:"expected_output"`
	Stderr        string    `json:"stderr"`
	CompileOutput string    `json:"compile_output"`
	Status        string    `json:"status"`
	Memory        string    `json:"memory"`
	Time          string    `json:"time"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProblemSolved records that a user has at least one accepted submission.
type ProblemSolved struct {
	UserID    string    `json:"user_id"`
	ProblemID string    `json:"problem_id"`
	CreatedAt time.Time `json:"created_at"`
}
