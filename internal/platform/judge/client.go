// Package judge talks to a Judge0-compatible batch execution service.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leetcode_backend/internal/common"
	"leetcode_backend/internal/platform/metrics"

	"github.com/cenkalti/backoff/v4"
)

const resultFields = "token,status,stdout,stderr,compile_output,time,memory"

var errPending = errors.New("results still pending")

type Options struct {
	BaseURL   string
	AuthToken string // sent as X-Auth-Token when set

	PollInterval    time.Duration
	MaxPollAttempts int
	MaxBatchSize    int

	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

type Client struct {
	baseURL   string
	authToken string

	pollInterval    time.Duration
	maxPollAttempts int
	maxBatchSize    int

	http    *http.Client
	metrics *metrics.Metrics
}

func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		authToken:       opts.AuthToken,
		pollInterval:    opts.PollInterval,
		maxPollAttempts: opts.MaxPollAttempts,
		maxBatchSize:    opts.MaxBatchSize,
		http:            opts.HTTPClient,
		metrics:         opts.Metrics,
	}
	if c.pollInterval <= 0 {
		c.pollInterval = time.Second
	}
	if c.maxPollAttempts <= 0 {
		c.maxPollAttempts = 60
	}
	if c.maxBatchSize <= 0 {
		c.maxBatchSize = 20
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
	}
	return c
}

// SubmitBatch sends the submissions and returns one token per submission, in
// order. Errors are not retried.
func (c *Client) SubmitBatch(ctx context.Context, subs []Submission) ([]string, error) {
	tokens := make([]string, 0, len(subs))
	for start := 0; start < len(subs); start += c.maxBatchSize {
		end := min(start+c.maxBatchSize, len(subs))
		chunk, err := c.submitChunk(ctx, subs[start:end])
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, chunk...)
	}
	return tokens, nil
}

func (c *Client) submitChunk(ctx context.Context, subs []Submission) ([]string, error) {
	body, err := json.Marshal(struct {
		Submissions []Submission `json:"submissions"`
	}{subs})
	if err != nil {
		return nil, fmt.Errorf("judge: marshal batch: %w", err)
	}

	q := url.Values{"base64_encoded": {"false"}}
	var entries []json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/submissions/batch?"+q.Encode(), body, &entries); err != nil {
		return nil, fmt.Errorf("judge: submit batch: %w", err)
	}
	c.metrics.BatchSubmitted()

	if len(entries) != len(subs) {
		return nil, fmt.Errorf("judge: submit batch: %w: got %d tokens for %d submissions",
			common.ErrUpstreamJudge, len(entries), len(subs))
	}
	tokens := make([]string, len(entries))
	for i, raw := range entries {
		var e struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(raw, &e); err != nil || e.Token == "" {
			return nil, fmt.Errorf("judge: submit batch: %w: entry %d rejected: %s",
				common.ErrUpstreamJudge, i, truncate(string(raw)))
		}
		tokens[i] = e.Token
	}
	return tokens, nil
}

// PollBatchResults queries the tokens until every result is terminal and
// returns them in token order. It waits PollInterval between queries and gives
// up with common.ErrJudgeTimeout after MaxPollAttempts. A failed query aborts
// the whole poll.
func (c *Client) PollBatchResults(ctx context.Context, tokens []string) ([]Result, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	var results []Result
	attempts := 0
	poll := func() error {
		attempts++
		res, err := c.fetchResults(ctx, tokens)
		if err != nil {
			return backoff.Permanent(err)
		}
		results = res
		for _, r := range res {
			if r.Pending() {
				return errPending
			}
		}
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.pollInterval), uint64(c.maxPollAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(poll, b); err != nil {
		if errors.Is(err, errPending) {
			return nil, fmt.Errorf("judge: %d of %d results pending after %d polls: %w",
				countPending(results), len(tokens), attempts, common.ErrJudgeTimeout)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("judge: poll batch: %w: %w", common.ErrJudgeTimeout, err)
		}
		return nil, err
	}
	return results, nil
}

func (c *Client) fetchResults(ctx context.Context, tokens []string) ([]Result, error) {
	byToken := make(map[string]Result, len(tokens))
	for start := 0; start < len(tokens); start += c.maxBatchSize {
		end := min(start+c.maxBatchSize, len(tokens))
		q := url.Values{
			"tokens":         {strings.Join(tokens[start:end], ",")},
			"base64_encoded": {"false"},
			"fields":         {resultFields},
		}
		var resp struct {
			Submissions []*Result `json:"submissions"`
		}
		if err := c.do(ctx, http.MethodGet, "/submissions/batch?"+q.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("judge: poll batch: %w", err)
		}
		c.metrics.PollRequested()
		for _, r := range resp.Submissions {
			if r != nil {
				byToken[r.Token] = *r
			}
		}
	}

	results := make([]Result, len(tokens))
	for i, tok := range tokens {
		r, ok := byToken[tok]
		if !ok {
			return nil, fmt.Errorf("judge: poll batch: %w: no result for token %s", common.ErrUpstreamJudge, tok)
		}
		results[i] = r
	}
	return results, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUpstreamJudge, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("X-Auth-Token", c.authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUpstreamJudge, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", common.ErrUpstreamJudge, resp.StatusCode, truncate(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", common.ErrUpstreamJudge, err)
	}
	return nil
}

func countPending(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Pending() {
			n++
		}
	}
	return n
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
