package judge

// Judge0 status ids.
const (
	StatusInQueue           = 1
	StatusProcessing        = 2
	StatusAccepted          = 3
	StatusWrongAnswer       = 4
	StatusTimeLimitExceeded = 5
	StatusCompilationError  = 6
	StatusInternalError     = 13
	StatusExecFormatError   = 14
)

var statusDescriptions = map[int]string{
	StatusInQueue:           "In Queue",
	StatusProcessing:        "Processing",
	StatusAccepted:          "Accepted",
	StatusWrongAnswer:       "Wrong Answer",
	StatusTimeLimitExceeded: "Time Limit Exceeded",
	StatusCompilationError:  "Compilation Error",
	7:                       "Runtime Error (SIGSEGV)",
	8:                       "Runtime Error (SIGXFSZ)",
	9:                       "Runtime Error (SIGFPE)",
	10:                      "Runtime Error (SIGABRT)",
	11:                      "Runtime Error (NZEC)",
	12:                      "Runtime Error (Other)",
	StatusInternalError:     "Internal Error",
	StatusExecFormatError:   "Exec Format Error",
}

// StatusDescription falls back to a generic label for ids the judge may add later.
func StatusDescription(id int) string {
	if d, ok := statusDescriptions[id]; ok {
		return d
	}
	return "Unknown Status"
}

// Submission is one entry of a batch.
type Submission struct {
	SourceCode     string  `json:"source_code"`
	LanguageID     int     `json:"language_id"`
	Stdin          string  `json:"stdin"`
	ExpectedOutput *string `json:"expected_output,omitempty"`
}

type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Result is the judge's view of one token. Nullable fields stay pointers so
// that "no data" is distinguishable from empty output.
type Result struct {
	Token         string  `json:"token"`
	Status        Status  `json:"status"`
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Time          *string `json:"time"`
	Memory        *int    `json:"memory"`
}

// Pending reports whether the judge may still change this result.
func (r Result) Pending() bool {
	return r.Status.ID == StatusInQueue || r.Status.ID == StatusProcessing
}

// Description prefers the judge's own text.
func (r Result) Description() string {
	if r.Status.Description != "" {
		return r.Status.Description
	}
	return StatusDescription(r.Status.ID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r Result) StdoutText() string        { return deref(r.Stdout) }
func (r Result) StderrText() string        { return deref(r.Stderr) }
func (r Result) CompileOutputText() string { return deref(r.CompileOutput) }
