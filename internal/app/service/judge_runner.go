package service

import (
	"context"
	"log/slog"
	"time"

	"leetcode_backend/internal/common"
	"leetcode_backend/internal/domain/model"
	"leetcode_backend/internal/platform/judge"
	"leetcode_backend/internal/platform/logger"
	"leetcode_backend/internal/platform/metrics"
)

// Judge is the batch execution service. *judge.Client implements it.
type Judge interface {
	SubmitBatch(ctx context.Context, subs []judge.Submission) ([]string, error)
	PollBatchResults(ctx context.Context, tokens []string) ([]judge.Result, error)
}

// BatchRunner submits one batch, waits for every result and returns them in
// submission order.
type BatchRunner struct {
	judge   Judge
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewBatchRunner(j Judge, m *metrics.Metrics, logger *slog.Logger) *BatchRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchRunner{judge: j, metrics: m, logger: logger}
}

func (b *BatchRunner) Run(ctx context.Context, subs []judge.Submission) ([]judge.Result, error) {
	if len(subs) == 0 {
		return nil, common.Errorf("no test cases to judge: %w", common.ErrBadRequest)
	}
	start := time.Now()

	tokens, err := b.judge.SubmitBatch(ctx, subs)
	if err != nil {
		return nil, err
	}
	results, err := b.judge.PollBatchResults(ctx, tokens)
	if err != nil {
		return nil, err
	}
	if len(results) != len(subs) {
		return nil, common.Errorf("judge returned %d results for %d submissions: %w",
			len(results), len(subs), common.ErrUpstreamJudge)
	}

	elapsed := time.Since(start)
	b.metrics.ObserveJudgeWait(elapsed)
	logger.FromContext(ctx, b.logger).Debug("batch judged", "size", len(subs), "elapsed", elapsed)
	return results, nil
}

// submissionsFor builds one judge submission per test case, in order.
func submissionsFor(sourceCode string, languageID int, cases []model.TestCase) []judge.Submission {
	subs := make([]judge.Submission, len(cases))
	for i, tc := range cases {
		expected := tc.Expected
		subs[i] = judge.Submission{
			SourceCode:     sourceCode,
			LanguageID:     languageID,
			Stdin:          tc.Input,
			ExpectedOutput: &expected,
		}
	}
	return subs
}
