package model

import (
	"time"
)

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "Easy"
	DifficultyMedium ProblemDifficulty = "Medium"
	DifficultyHard   ProblemDifficulty = "Hard"
)

func (d ProblemDifficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Problem struct {
	ID          string            `json:"id"`
	Number      int               `json:"number"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Description string            `json:"description"`
	Difficulty  ProblemDifficulty `json:"difficulty"`
	Tags        []string          `json:"tags"`
	Constraints *string           `json:"constraints,omitempty"`
	// Starter code keyed by language name (PYTHON, CPP, ...).
	CodeSnippets map[string]string `json:"code_snippets,omitempty"`
	// Validated solutions keyed by language name. Admin only.
	ReferenceSolutions map[string]string `json:"-"`
	CreatedByID        string            `json:"created_by_id"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	TestCases          []TestCase        `json:"test_cases,omitempty"`
}

type TestCase struct {
	ID        string    `json:"id"`
	ProblemID string    `json:"problem_id"`
	Input     string    `json:"input"`
	Expected  string    `json:"expected_output"`
	IsPublic  bool      `json:"is_public"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}
