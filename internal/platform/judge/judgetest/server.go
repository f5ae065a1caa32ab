// Package judgetest provides an in-process fake of the Judge0 batch API.
package judgetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"leetcode_backend/internal/platform/judge"

	"github.com/google/uuid"
)

// Outcome is what the fake reports for one submission once it is terminal.
// A zero StatusID is derived from ExpectedOutput (Accepted or Wrong Answer).
type Outcome struct {
	StatusID      int
	Stdout        string
	Stderr        string
	CompileOutput string
	Time          string
	Memory        int
}

type Executor func(sub judge.Submission) Outcome

// Programs executes a submission by looking its source up in progs. Unknown
// sources fail to compile.
func Programs(progs map[string]func(stdin string) string) Executor {
	return func(sub judge.Submission) Outcome {
		p, ok := progs[sub.SourceCode]
		if !ok {
			return Outcome{StatusID: judge.StatusCompilationError, CompileOutput: "error: unknown program"}
		}
		return Outcome{Stdout: p(sub.Stdin), Time: "0.002", Memory: 512}
	}
}

// Echo writes stdin back to stdout.
func Echo(sub judge.Submission) Outcome {
	return Outcome{Stdout: sub.Stdin, Time: "0.001", Memory: 256}
}

type Option func(*Server)

// WithPendingPolls keeps every token in Processing for n status queries.
func WithPendingPolls(n int) Option {
	return func(s *Server) { s.pendingPolls = n }
}

// WithReversedResults returns poll results in reverse token order.
func WithReversedResults() Option {
	return func(s *Server) { s.reversed = true }
}

type entry struct {
	sub     judge.Submission
	polls   int
	outcome Outcome
}

type Server struct {
	*httptest.Server

	exec         Executor
	pendingPolls int
	reversed     bool

	mu          sync.Mutex
	entries     map[string]*entry
	batches     [][]judge.Submission
	polls       int
	failPolls   bool
	authHeaders []string
}

func NewServer(t testing.TB, exec Executor, opts ...Option) *Server {
	t.Helper()
	s := &Server{exec: exec, entries: make(map[string]*entry)}
	for _, o := range opts {
		o(s)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /submissions/batch", s.handleSubmit)
	mux.HandleFunc("GET /submissions/batch", s.handlePoll)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// FailPolls makes every following status query answer 500.
func (s *Server) FailPolls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPolls = true
}

// Batches returns every submitted batch in arrival order.
func (s *Server) Batches() [][]judge.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]judge.Submission(nil), s.batches...)
}

func (s *Server) PollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authHeaders...)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Submissions []judge.Submission `json:"submissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.authHeaders = append(s.authHeaders, r.Header.Get("X-Auth-Token"))
	s.batches = append(s.batches, req.Submissions)
	tokens := make([]map[string]string, len(req.Submissions))
	for i, sub := range req.Submissions {
		tok := uuid.NewString()
		s.entries[tok] = &entry{sub: sub, outcome: s.resolve(sub)}
		tokens[i] = map[string]string{"token": tok}
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tokens)
}

func (s *Server) resolve(sub judge.Submission) Outcome {
	out := s.exec(sub)
	if out.StatusID == 0 {
		out.StatusID = judge.StatusAccepted
		if sub.ExpectedOutput != nil && strings.TrimSpace(out.Stdout) != strings.TrimSpace(*sub.ExpectedOutput) {
			out.StatusID = judge.StatusWrongAnswer
		}
	}
	return out
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	if s.failPolls {
		http.Error(w, "judge unavailable", http.StatusInternalServerError)
		return
	}

	tokens := strings.Split(r.URL.Query().Get("tokens"), ",")
	results := make([]*judge.Result, 0, len(tokens))
	for _, tok := range tokens {
		e, ok := s.entries[tok]
		if !ok {
			results = append(results, nil)
			continue
		}
		e.polls++
		if e.polls <= s.pendingPolls {
			results = append(results, &judge.Result{
				Token:  tok,
				Status: judge.Status{ID: judge.StatusProcessing, Description: "Processing"},
			})
			continue
		}
		results = append(results, result(tok, e.outcome))
	}
	if s.reversed {
		for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
			results[i], results[j] = results[j], results[i]
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"submissions": results})
}

func result(tok string, o Outcome) *judge.Result {
	res := &judge.Result{
		Token:  tok,
		Status: judge.Status{ID: o.StatusID, Description: judge.StatusDescription(o.StatusID)},
	}
	if o.StatusID != judge.StatusCompilationError {
		res.Stdout = &o.Stdout
		if o.Time != "" {
			res.Time = &o.Time
		}
		mem := o.Memory
		res.Memory = &mem
	}
	if o.Stderr != "" {
		res.Stderr = &o.Stderr
	}
	if o.CompileOutput != "" {
		res.CompileOutput = &o.CompileOutput
	}
	return res
}
