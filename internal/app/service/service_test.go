package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"leetcode_backend/internal/common"
	"leetcode_backend/internal/domain/language"
	"leetcode_backend/internal/domain/model"
	"leetcode_backend/internal/domain/repository"
	"leetcode_backend/internal/platform/judge"
	"leetcode_backend/internal/platform/judge/judgetest"
	"leetcode_backend/internal/platform/kv"
	"leetcode_backend/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// Sources understood by the fake judge.
const (
	srcEcho      = "echo"
	srcDouble    = "double"
	srcWrongOn2  = "wrong-on-2"
	srcNoCompile = "does not compile"
)

var programs = judgetest.Programs(map[string]func(string) string{
	srcEcho: func(in string) string { return in },
	srcDouble: func(in string) string {
		n, _ := strconv.Atoi(strings.TrimSpace(in))
		return strconv.Itoa(2 * n)
	},
	srcWrongOn2: func(in string) string {
		if strings.TrimSpace(in) == "2" {
			return "nope"
		}
		return in
	},
})

type fixture struct {
	store       *repository.MemoryStore
	judge       *judgetest.Server
	reg         *prometheus.Registry
	problems    *ProblemService
	submissions *SubmissionService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	locker      kv.Locker
	concurrency int
	judgeOpts   []judgetest.Option
}

func withLocker(l kv.Locker) fixtureOption {
	return func(c *fixtureConfig) { c.locker = l }
}

func withJudgeOptions(opts ...judgetest.Option) fixtureOption {
	return func(c *fixtureConfig) { c.judgeOpts = opts }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	cfg := fixtureConfig{concurrency: 1}
	for _, o := range opts {
		o(&cfg)
	}

	srv := judgetest.NewServer(t, programs, cfg.judgeOpts...)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client := judge.NewClient(judge.Options{
		BaseURL:         srv.URL,
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 20,
		Metrics:         m,
	})
	runner := NewBatchRunner(client, m, logger)
	langs := language.Default()
	store := repository.NewMemoryStore()

	return &fixture{
		store:       store,
		judge:       srv,
		reg:         reg,
		problems:    NewProblemService(store, store, runner, langs, m, logger, cfg.concurrency),
		submissions: NewSubmissionService(store, store, store, runner, langs, cfg.locker, m, logger),
	}
}

// seedProblem stores a problem with the given cases, bypassing validation.
func (f *fixture) seedProblem(t *testing.T, cases ...model.TestCase) *model.Problem {
	t.Helper()
	ctx := context.Background()
	n := int(uuid.New().ID()>>1) + 1
	p := &model.Problem{
		ID:         uuid.NewString(),
		Number:     n,
		Title:      "Problem " + strconv.Itoa(n),
		Slug:       "problem-" + strconv.Itoa(n),
		Difficulty: model.DifficultyEasy,
	}
	require.NoError(t, f.store.CreateProblem(ctx, nil, p))
	for i := range cases {
		cases[i].ID = uuid.NewString()
	}
	require.NoError(t, f.store.AddTestCasesToProblem(ctx, nil, p.ID, cases))
	return p
}

func public(in, out string) model.TestCase {
	return model.TestCase{Input: in, Expected: out, IsPublic: true}
}

func private(in, out string) model.TestCase {
	return model.TestCase{Input: in, Expected: out}
}

type heldLocker struct{}

func (heldLocker) Acquire(_ context.Context, key string) (func(), error) {
	return nil, fmt.Errorf("lock %s: %w", key, common.ErrLockHeld)
}
