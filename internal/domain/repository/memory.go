package repository

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"leetcode_backend/internal/common"
	"leetcode_backend/internal/domain/model"
)

// MemoryStore keeps problems and submissions in process memory. It implements
// ProblemRepository, SubmissionRepository and TxManager. Transactions are
// serialized; a failed transaction restores the state it started from.
type MemoryStore struct {
	txMu sync.Mutex // held for the duration of WithTx

	mu    sync.RWMutex
	state memState
	now   func() time.Time
}

type memState struct {
	problems    map[string]model.Problem
	testCases   map[string][]model.TestCase // by problem id, insertion order
	submissions map[string]model.Submission
	results     map[string][]model.TestCaseResult // by submission id
	solved      map[solvedKey]model.ProblemSolved
}

type solvedKey struct{ userID, problemID string }

var (
	_ ProblemRepository    = (*MemoryStore)(nil)
	_ SubmissionRepository = (*MemoryStore)(nil)
	_ TxManager            = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: memState{
			problems:    map[string]model.Problem{},
			testCases:   map[string][]model.TestCase{},
			submissions: map[string]model.Submission{},
			results:     map[string][]model.TestCaseResult{},
			solved:      map[solvedKey]model.ProblemSolved{},
		},
		now: time.Now,
	}
}

func (s memState) clone() memState {
	c := memState{
		problems:    maps.Clone(s.problems),
		testCases:   make(map[string][]model.TestCase, len(s.testCases)),
		submissions: maps.Clone(s.submissions),
		results:     make(map[string][]model.TestCaseResult, len(s.results)),
		solved:      maps.Clone(s.solved),
	}
	for k, v := range s.testCases {
		c.testCases[k] = slices.Clone(v)
	}
	for k, v := range s.results {
		c.results[k] = slices.Clone(v)
	}
	return c
}

func (m *MemoryStore) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	snapshot := m.state.clone()
	m.mu.RUnlock()

	err := fn(nil)
	if err == nil {
		// A cancelled context fails the commit, as it does for *sql.Tx.
		err = ctx.Err()
	}
	if err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *MemoryStore) CreateProblem(_ context.Context, _ *sql.Tx, p *model.Problem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.state.problems {
		if existing.ID == p.ID || existing.Title == p.Title || existing.Number == p.Number || existing.Slug == p.Slug {
			return fmt.Errorf("problem with this title, number or slug already exists: %w", common.ErrConflict)
		}
	}
	p.CreatedAt = m.now()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	stored.TestCases = nil
	m.state.problems[p.ID] = stored
	return nil
}

func (m *MemoryStore) FindProblemByID(_ context.Context, id string) (*model.Problem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.state.problems[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) FindProblemBySlug(_ context.Context, slug string) (*model.Problem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.state.problems {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *MemoryStore) ExistsByTitleOrNumber(_ context.Context, title string, number int) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.state.problems {
		if p.Title == title || p.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) ListProblems(_ context.Context, filter ProblemFilter) ([]model.Problem, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := []model.Problem{}
	for _, p := range m.state.problems {
		if filter.Difficulty != "" && p.Difficulty != filter.Difficulty {
			continue
		}
		if filter.Tag != "" && !slices.Contains(p.Tags, filter.Tag) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Number < matched[j].Number })

	total := len(matched)
	start := min(max(filter.Offset, 0), total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	return matched[start:end], total, nil
}

func (m *MemoryStore) AddTestCasesToProblem(_ context.Context, _ *sql.Tx, problemID string, testCases []model.TestCase) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.problems[problemID]; !ok {
		return fmt.Errorf("memoryStore.AddTestCasesToProblem: problem %s: %w", problemID, common.ErrNotFound)
	}
	existing := m.state.testCases[problemID]
	for i := range testCases {
		tc := &testCases[i]
		tc.ProblemID = problemID
		tc.SortOrder = len(existing) + 1
		tc.CreatedAt = m.now()
		existing = append(existing, *tc)
	}
	m.state.testCases[problemID] = existing
	return nil
}

func (m *MemoryStore) GetTestCasesByProblemID(_ context.Context, problemID string, publicOnly bool) ([]model.TestCase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.TestCase
	for _, tc := range m.state.testCases[problemID] {
		if publicOnly && !tc.IsPublic {
			continue
		}
		out = append(out, tc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsPublic != out[j].IsPublic {
			return out[i].IsPublic
		}
		return out[i].SortOrder < out[j].SortOrder
	})
	return out, nil
}

func (m *MemoryStore) CreateSubmission(_ context.Context, _ *sql.Tx, sub *model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.submissions[sub.ID]; ok {
		return fmt.Errorf("submission %s: %w", sub.ID, common.ErrConflict)
	}
	sub.CreatedAt = m.now()
	m.state.submissions[sub.ID] = *sub
	return nil
}

func (m *MemoryStore) GetSubmissionByID(_ context.Context, id string) (*model.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.state.submissions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) CreateTestCaseResults(_ context.Context, _ *sql.Tx, results []model.TestCaseResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, res := range results {
		if _, ok := m.state.submissions[res.SubmissionID]; !ok {
			return fmt.Errorf("memoryStore.CreateTestCaseResults: submission %s: %w", res.SubmissionID, common.ErrNotFound)
		}
	}
	for _, res := range results {
		res.CreatedAt = m.now()
		m.state.results[res.SubmissionID] = append(m.state.results[res.SubmissionID], res)
	}
	return nil
}

func (m *MemoryStore) GetTestCaseResults(_ context.Context, submissionID string) ([]model.TestCaseResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := slices.Clone(m.state.results[submissionID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].TestCaseIndex < out[j].TestCaseIndex })
	return out, nil
}

func (m *MemoryStore) MarkProblemSolved(_ context.Context, _ *sql.Tx, userID, problemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := solvedKey{userID, problemID}
	if _, ok := m.state.solved[key]; ok {
		return nil
	}
	m.state.solved[key] = model.ProblemSolved{UserID: userID, ProblemID: problemID, CreatedAt: m.now()}
	return nil
}

func (m *MemoryStore) IsProblemSolved(_ context.Context, userID, problemID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.state.solved[solvedKey{userID, problemID}]
	return ok, nil
}

// SolvedCount returns how many solved marks exist across all users.
func (m *MemoryStore) SolvedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.state.solved)
}

// ProblemCount returns how many problems are stored.
func (m *MemoryStore) ProblemCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.state.problems)
}
